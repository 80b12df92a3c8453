// Package dberr distinguishes the storage engine's two failure tiers:
// recoverable user-input errors, which the REPL reports and continues past,
// and fatal storage-invariant violations, which have no consistent
// intermediate state to preserve and must terminate the process.
package dberr

import (
	"errors"
	"fmt"
)

// FatalError marks an out-of-bounds page access, a corrupt file, an I/O
// failure, or an internal-node overflow: conditions the storage engine
// cannot recover from mid-operation.
type FatalError struct {
	msg string
}

func (e *FatalError) Error() string { return e.msg }

// Fatalf builds a FatalError the way fmt.Errorf builds a plain error.
func Fatalf(format string, args ...any) error {
	return &FatalError{msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err (or anything it wraps) is a FatalError.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

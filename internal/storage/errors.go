package storage

import "errors"

// ErrDuplicateKey is a user-input error: the caller rejects it as an
// ordinary failed operation and keeps running. It never leaves the tree
// mutated.
var ErrDuplicateKey = errors.New("duplicate key")

package storage

import (
	"encoding/binary"
	"fmt"
)

// Row on-disk layout: fixed schema, zero-padded byte arrays.
const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255
	RowSize      = IDSize + UsernameSize + EmailSize // 291

	MaxUsernameLen = UsernameSize - 1
	MaxEmailLen    = EmailSize - 1
)

// Row is the single fixed schema the engine supports.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Serialize writes r into dst, which must be exactly RowSize bytes. String
// fields are zero-padded to their maximum width.
func (r Row) Serialize(dst []byte) error {
	if len(dst) != RowSize {
		return fmt.Errorf("serialize row: dst is %d bytes, want %d", len(dst), RowSize)
	}
	if len(r.Username) > MaxUsernameLen {
		return fmt.Errorf("serialize row: username %q exceeds %d bytes", r.Username, MaxUsernameLen)
	}
	if len(r.Email) > MaxEmailLen {
		return fmt.Errorf("serialize row: email %q exceeds %d bytes", r.Email, MaxEmailLen)
	}

	for i := range dst {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint32(dst[0:IDSize], r.ID)
	copy(dst[IDSize:IDSize+UsernameSize], r.Username)
	copy(dst[IDSize+UsernameSize:RowSize], r.Email)
	return nil
}

// DeserializeRow reads a Row back out of src, which must be exactly RowSize
// bytes. Trailing zero bytes in each string region are trimmed.
func DeserializeRow(src []byte) (Row, error) {
	if len(src) != RowSize {
		return Row{}, fmt.Errorf("deserialize row: src is %d bytes, want %d", len(src), RowSize)
	}
	id := binary.LittleEndian.Uint32(src[0:IDSize])
	username := trimTrailingZeros(src[IDSize : IDSize+UsernameSize])
	email := trimTrailingZeros(src[IDSize+UsernameSize : RowSize])
	return Row{ID: id, Username: username, Email: email}, nil
}

// trimTrailingZeros finds the last non-zero byte and returns the string
// made of the prefix through it. An all-zero region yields "".
func trimTrailingZeros(b []byte) string {
	end := -1
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return ""
	}
	return string(b[:end+1])
}

package storage

import (
	"strings"
	"testing"
)

func TestSerializeDeserializeRowRoundTrip(t *testing.T) {
	orig := Row{ID: 7, Username: "alice", Email: "alice@example.com"}
	buf := make([]byte, RowSize)
	if err := orig.Serialize(buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := DeserializeRow(buf)
	if err != nil {
		t.Fatalf("DeserializeRow: %v", err)
	}
	if got != orig {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestSerializeRowEmptyStrings(t *testing.T) {
	orig := Row{ID: 0, Username: "", Email: ""}
	buf := make([]byte, RowSize)
	if err := orig.Serialize(buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := DeserializeRow(buf)
	if err != nil {
		t.Fatalf("DeserializeRow: %v", err)
	}
	if got != orig {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestSerializeRowMaxLength(t *testing.T) {
	orig := Row{
		ID:       1,
		Username: strings.Repeat("u", MaxUsernameLen),
		Email:    strings.Repeat("e", MaxEmailLen),
	}
	buf := make([]byte, RowSize)
	if err := orig.Serialize(buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := DeserializeRow(buf)
	if err != nil {
		t.Fatalf("DeserializeRow: %v", err)
	}
	if got != orig {
		t.Errorf("round trip mismatch at max length: got %+v, want %+v", got, orig)
	}
}

func TestSerializeRowTooLong(t *testing.T) {
	buf := make([]byte, RowSize)
	row := Row{ID: 1, Username: strings.Repeat("u", MaxUsernameLen+1)}
	if err := row.Serialize(buf); err == nil {
		t.Error("expected error for username exceeding max length")
	}

	row2 := Row{ID: 1, Email: strings.Repeat("e", MaxEmailLen+1)}
	if err := row2.Serialize(buf); err == nil {
		t.Error("expected error for email exceeding max length")
	}
}

func TestSerializeRowWrongBufferSize(t *testing.T) {
	row := Row{ID: 1, Username: "a", Email: "b"}
	if err := row.Serialize(make([]byte, RowSize-1)); err == nil {
		t.Error("expected error for undersized buffer")
	}
	if _, err := DeserializeRow(make([]byte, RowSize+1)); err == nil {
		t.Error("expected error for oversized buffer")
	}
}

// Package uuid includes tests for the run ID helpers.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
)

// TestNewRunID ensures run IDs are unique, valid and time-ordered.
func TestNewRunID(t *testing.T) {
	t.Parallel()

	id1, err := NewRunID()
	if err != nil {
		t.Fatalf("NewRunID() error = %v", err)
	}
	id2, err := NewRunID()
	if err != nil {
		t.Fatalf("NewRunID() error = %v", err)
	}
	if id1 == id2 {
		t.Fatalf("expected unique IDs, got %s and %s", id1, id2)
	}
	parsed, err := goUUID.Parse(id1)
	if err != nil {
		t.Fatalf("id1 not valid UUID: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
	if id1 > id2 {
		t.Fatalf("expected %s to sort before %s", id1, id2)
	}
}

func TestMustRunIDAndShort(t *testing.T) {
	t.Parallel()

	id := MustRunID()
	if _, err := goUUID.Parse(id); err != nil {
		t.Fatalf("MustRunID() not valid UUID: %v", err)
	}
	if got := Short(id); len(got) != 8 || got != id[:8] {
		t.Fatalf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Fatalf("Short() on short input = %q", got)
	}
}

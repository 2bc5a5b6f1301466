// Package id generates the primary keys of every ledger row.
package id

import "github.com/google/uuid"

// ID is a UUID. New ids are version 7, so they sort by creation time and
// ledger rows read back in insertion order.
type ID = uuid.UUID

// New returns a fresh UUIDv7, or a random v4 if the clock source fails.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

func Parse(s string) (ID, error) { return uuid.Parse(s) }

// IsNil reports whether v is the zero id, which marks an absent reference.
func IsNil(v ID) bool { return v == uuid.Nil }

// Ptr turns the zero id into nil for optional references such as a
// sale's customer or account.
func Ptr(v ID) *ID {
	if IsNil(v) {
		return nil
	}
	return &v
}

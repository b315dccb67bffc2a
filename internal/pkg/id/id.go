package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID for users and tasks. ULIDs sort by creation time.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Valid reports whether s is a well-formed ULID. Path parameters that fail
// this check can be treated as unknown records without a store round trip.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

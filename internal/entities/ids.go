package entities

import (
	"crypto/rand"

	"github.com/oklog/ulid"
)

// NewID returns a lexically sortable unique id.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

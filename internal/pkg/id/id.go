package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewTicketID generates a ticket identifier: a "TK" prefix plus a ULID.
// The ULID carries a millisecond timestamp and 80 bits of entropy, so ids
// sort by issuance time and collisions are not expected in practice.
func NewTicketID() string {
	return "TK" + New()
}

// Package idx generates the identifiers used across the service: ULIDs for
// accounts and token sessions, UUIDv4 for verification challenges handed to
// clients.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical string form.
type ID string

// ErrInvalid reports a malformed identifier.
var ErrInvalid = errors.New("idx: invalid id")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a new lexicographically sortable ULID-based ID.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt generates an ID at t. IDs from the same millisecond still sort in
// creation order.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

func (id ID) String() string { return string(id) }

// Time extracts the embedded UTC timestamp, or the zero time when invalid.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// NewChallengeID returns a random UUIDv4. Challenge ids are handed to
// unauthenticated clients, so they carry no timestamp.
func NewChallengeID() string {
	return uuid.NewString()
}

// ParseChallengeID validates and canonicalises a client supplied challenge id.
func ParseChallengeID(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || u.Version() != 4 {
		return "", ErrInvalid
	}
	return u.String(), nil
}

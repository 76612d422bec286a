package keys

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type ExpiringParts struct {
	ExpiresAt time.Time
	ID        string
}

// NewExpiring returns "<hex expiry secs>_<uuid>", expiring ttl after now.
func NewExpiring(now time.Time, ttl time.Duration) []byte {
	exp := now.Add(ttl).Unix()
	if exp < 0 {
		exp = 0
	}
	return []byte(fmt.Sprintf("%x%c%s", exp, ExpiringSep, uuid.NewString()))
}

func ParseExpiring(k []byte) (*ExpiringParts, error) {
	m := expiringRegexp.FindSubmatch(k)
	if m == nil {
		return nil, fmt.Errorf("%w: not an expiring key", ErrMalformedKey)
	}
	secs, err := strconv.ParseInt(string(m[1]), 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry: %v", ErrMalformedKey, err)
	}
	return &ExpiringParts{ExpiresAt: time.Unix(secs, 0), ID: string(m[2])}, nil
}

// Expired reports whether the key's expiry is strictly before now.
func (p *ExpiringParts) Expired(now time.Time) bool {
	return p.ExpiresAt.Unix() < now.Unix()
}

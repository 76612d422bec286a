package forum

import (
	"fmt"
	"slices"
	"time"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/records"
)

func (f *Forum) expiringNamespace(ns string) (*db.Namespace, error) {
	if !slices.Contains(ExpiringNamespaces, ns) {
		return nil, fmt.Errorf("%w: %s does not hold expiring keys", db.ErrInvalidNamespace, ns)
	}
	return f.namespace(ns), nil
}

// IssueToken stores payload under a fresh expiring key in ns (sessions or
// captcha) and returns the key. The sweeper removes it once expired.
func (f *Forum) IssueToken(ns string, payload []byte, ttl time.Duration) ([]byte, error) {
	n, err := f.expiringNamespace(ns)
	if err != nil {
		return nil, err
	}
	key := keys.NewExpiring(f.now(), ttl)
	if err := n.Put(key, payload); err != nil {
		return nil, err
	}
	return key, nil
}

// CheckToken returns the payload of a live token. Expired tokens fail with
// ErrExpired even before the sweeper has removed them.
func (f *Forum) CheckToken(ns string, key []byte) ([]byte, error) {
	n, err := f.expiringNamespace(ns)
	if err != nil {
		return nil, err
	}
	parts, err := keys.ParseExpiring(key)
	if err != nil {
		return nil, err
	}
	if parts.Expired(f.now()) {
		return nil, ErrExpired
	}
	v, err := n.Get(key)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("token: %w", records.ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}

// RevokeToken deletes a token; unknown tokens are ignored.
func (f *Forum) RevokeToken(ns string, key []byte) error {
	n, err := f.expiringNamespace(ns)
	if err != nil {
		return err
	}
	return n.Delete(key)
}

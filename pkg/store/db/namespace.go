package db

import (
	"errors"
	"fmt"

	"forumdb/pkg/logger"

	"github.com/cockroachdb/pebble"
)

// Namespace is an independently ordered keyspace inside a Store. Keys passed
// in and handed out are relative to the namespace.
type Namespace struct {
	store  *Store
	name   string
	prefix []byte
}

func (n *Namespace) Name() string { return n.name }

func (n *Namespace) Store() *Store { return n.store }

func (n *Namespace) key(k []byte) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	out = append(out, n.prefix...)
	return append(out, k...)
}

// Get returns a copy of the value under key, or ErrNotFound.
func (n *Namespace) Get(key []byte) ([]byte, error) {
	pdb, err := n.store.open()
	if err != nil {
		return nil, err
	}
	v, closer, err := pdb.Get(n.key(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			logger.Debug("get_key_missing", "namespace", n.name, "key", fmt.Sprintf("%x", key))
			return nil, fmt.Errorf("%s/%x: %w", n.name, key, ErrNotFound)
		}
		logger.Error("get_key_failed", "namespace", n.name, "key", fmt.Sprintf("%x", key), "error", err)
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (n *Namespace) Put(key, value []byte) error {
	pdb, err := n.store.open()
	if err != nil {
		return err
	}
	if n.store.readOnly {
		return ErrReadOnly
	}
	if err := pdb.Set(n.key(key), value, n.store.WriteOpt(true)); err != nil {
		logger.Error("save_key_failed", "namespace", n.name, "key", fmt.Sprintf("%x", key), "error", err)
		return err
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error.
func (n *Namespace) Delete(key []byte) error {
	pdb, err := n.store.open()
	if err != nil {
		return err
	}
	if n.store.readOnly {
		return ErrReadOnly
	}
	if err := pdb.Delete(n.key(key), n.store.WriteOpt(true)); err != nil {
		logger.Error("delete_key_failed", "namespace", n.name, "key", fmt.Sprintf("%x", key), "error", err)
		return err
	}
	return nil
}

func (n *Namespace) Contains(key []byte) (bool, error) {
	_, err := n.Get(key)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// ScanPrefix iterates the keys starting with prefix, ascending or, with
// reverse, descending. The iterator is lazy in both directions.
func (n *Namespace) ScanPrefix(prefix []byte, reverse bool) (*Iterator, error) {
	return n.newIterator(n.key(prefix), reverse)
}

// Iterate walks the whole namespace.
func (n *Namespace) Iterate(reverse bool) (*Iterator, error) {
	return n.newIterator(n.prefix, reverse)
}

func (n *Namespace) newIterator(lower []byte, reverse bool) (*Iterator, error) {
	pdb, err := n.store.open()
	if err != nil {
		return nil, err
	}
	iter, err := pdb.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upperBound(lower),
	})
	if err != nil {
		logger.Error("iter_open_failed", "namespace", n.name, "error", err)
		return nil, err
	}
	return newIterator(iter, len(n.prefix), reverse), nil
}

package counter

import (
	"errors"
	"fmt"
	"math"

	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
)

// ErrOverflow is raised (via panic) when a counter would wrap. Wrapping would
// hand out an id that already belongs to another record.
var ErrOverflow = errors.New("counter overflow")

// Allocator mints ids and per-owner cursors. Increments on the same
// (namespace, key) are serialized through the store's lock table, so every
// Allocator built on one Store agrees.
type Allocator struct {
	store *db.Store
}

func New(store *db.Store) *Allocator {
	return &Allocator{store: store}
}

// Incr adds one to the u32 counter under key and returns the new value. An
// absent counter starts at 0, so the first id is 1.
func (a *Allocator) Incr(ns *db.Namespace, key []byte) (uint32, error) {
	unlock := a.store.Locks().Lock(ns.Name(), key)
	defer unlock()

	cur, err := a.get32(ns, key)
	if err != nil {
		return 0, err
	}
	if cur == math.MaxUint32 {
		logger.Error("counter_overflow", "namespace", ns.Name(), "key", fmt.Sprintf("%x", key))
		panic(fmt.Errorf("%w: %s/%x at %d", ErrOverflow, ns.Name(), key, cur))
	}
	next := cur + 1
	if err := ns.Put(key, keys.EncodeU32(next)); err != nil {
		return 0, err
	}
	metrics.CounterAllocations.WithLabelValues(ns.Name()).Inc()
	return next, nil
}

// Incr64 is Incr for u64 counters.
func (a *Allocator) Incr64(ns *db.Namespace, key []byte) (uint64, error) {
	unlock := a.store.Locks().Lock(ns.Name(), key)
	defer unlock()

	cur, err := a.get64(ns, key)
	if err != nil {
		return 0, err
	}
	if cur == math.MaxUint64 {
		logger.Error("counter_overflow", "namespace", ns.Name(), "key", fmt.Sprintf("%x", key))
		panic(fmt.Errorf("%w: %s/%x at %d", ErrOverflow, ns.Name(), key, cur))
	}
	next := cur + 1
	if err := ns.Put(key, keys.EncodeU64(next)); err != nil {
		return 0, err
	}
	metrics.CounterAllocations.WithLabelValues(ns.Name()).Inc()
	return next, nil
}

// Get returns the current value, 0 when the counter was never incremented.
func (a *Allocator) Get(ns *db.Namespace, key []byte) (uint32, error) {
	return a.get32(ns, key)
}

func (a *Allocator) Get64(ns *db.Namespace, key []byte) (uint64, error) {
	return a.get64(ns, key)
}

func (a *Allocator) get32(ns *db.Namespace, key []byte) (uint32, error) {
	v, err := ns.Get(key)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := keys.DecodeU32(v)
	if err != nil {
		return 0, fmt.Errorf("counter %s/%x: %w", ns.Name(), key, err)
	}
	return n, nil
}

func (a *Allocator) get64(ns *db.Namespace, key []byte) (uint64, error) {
	v, err := ns.Get(key)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := keys.DecodeU64(v)
	if err != nil {
		return 0, fmt.Errorf("counter %s/%x: %w", ns.Name(), key, err)
	}
	return n, nil
}

package db

import (
	"errors"
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"

	"github.com/cockroachdb/pebble"
)

var ErrBatchClosed = errors.New("batch already committed or closed")

// Batch groups mutations across namespaces and applies them atomically on
// Commit. Readers see either none or all of them.
type Batch struct {
	store *Store
	b     *pebble.Batch
	err   error
}

func (s *Store) NewBatch() *Batch {
	pdb, err := s.open()
	if err != nil {
		return &Batch{store: s, err: err}
	}
	if s.readOnly {
		return &Batch{store: s, err: ErrReadOnly}
	}
	return &Batch{store: s, b: pdb.NewBatch()}
}

func (b *Batch) Put(ns *Namespace, key, value []byte) error {
	if b.err != nil {
		return b.err
	}
	if err := b.b.Set(ns.key(key), value, nil); err != nil {
		b.err = fmt.Errorf("batch set %s/%x: %w", ns.name, key, err)
	}
	return b.err
}

func (b *Batch) Delete(ns *Namespace, key []byte) error {
	if b.err != nil {
		return b.err
	}
	if err := b.b.Delete(ns.key(key), nil); err != nil {
		b.err = fmt.Errorf("batch delete %s/%x: %w", ns.name, key, err)
	}
	return b.err
}

// Len is the number of queued mutations.
func (b *Batch) Len() int {
	if b.b == nil {
		return 0
	}
	return int(b.b.Count())
}

// Commit applies the batch and releases it. An empty batch is a no-op.
func (b *Batch) Commit() error {
	if b.err != nil {
		b.Close()
		return b.err
	}
	n := b.Len()
	defer b.Close()
	if n == 0 {
		return nil
	}
	if err := b.b.Commit(b.store.WriteOpt(true)); err != nil {
		logger.Error("batch_commit_failed", "ops", n, "error", err)
		return err
	}
	metrics.BatchCommits.Inc()
	metrics.BatchOps.Add(float64(n))
	logger.Debug("batch_committed", "ops", n)
	return nil
}

// Close discards an uncommitted batch; safe to call more than once.
func (b *Batch) Close() error {
	if b.b == nil {
		return nil
	}
	err := b.b.Close()
	b.b = nil
	if b.err == nil {
		b.err = ErrBatchClosed
	}
	return err
}

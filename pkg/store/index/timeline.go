package index

import (
	"bytes"
	"fmt"
	"sort"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
)

// Timeline keeps ts#owner#id -> payload ordered by time, plus the reverse
// lookup owner#id -> ts needed to find and move an entry when its timestamp
// changes. There is at most one entry per (owner, id).
type Timeline struct {
	store   *db.Store
	entries *db.Namespace
	lookup  *db.Namespace
}

type TimelineEntry struct {
	Timestamp uint64 `json:"timestamp"`
	Owner     uint32 `json:"owner"`
	ID        uint32 `json:"id"`
	Payload   []byte `json:"payload,omitempty"`
}

func NewTimeline(store *db.Store, entries, lookup *db.Namespace) *Timeline {
	return &Timeline{store: store, entries: entries, lookup: lookup}
}

func (t *Timeline) lock(pair []byte) func() {
	return t.store.Locks().Lock(t.lookup.Name(), pair)
}

// Put places (owner, id) at ts with payload, replacing any earlier entry in
// the same batch.
func (t *Timeline) Put(owner, id uint32, ts uint64, payload []byte) error {
	b := t.store.NewBatch()
	defer b.Close()
	release, err := t.StagePut(b, owner, id, ts, payload)
	if err != nil {
		return err
	}
	defer release()
	return b.Commit()
}

// Relocate moves an existing entry forward to ts, keeping its payload. It
// reports false, and writes nothing, when (owner, id) has no entry or its
// current timestamp is not older than ts.
func (t *Timeline) Relocate(owner, id uint32, ts uint64) (bool, error) {
	b := t.store.NewBatch()
	defer b.Close()
	moved, release, err := t.StageRelocate(b, owner, id, ts)
	if err != nil {
		return false, err
	}
	defer release()
	return moved, b.Commit()
}

// StagePut queues Put on a caller's batch. The pair stays locked until
// release is called, which must happen after b is committed or dropped.
func (t *Timeline) StagePut(b *db.Batch, owner, id uint32, ts uint64, payload []byte) (release func(), err error) {
	_, release, err = t.stage(b, owner, id, ts, payload, false)
	return release, err
}

// StageRelocate queues Relocate on a caller's batch; see StagePut.
func (t *Timeline) StageRelocate(b *db.Batch, owner, id uint32, ts uint64) (moved bool, release func(), err error) {
	return t.stage(b, owner, id, ts, nil, true)
}

func (t *Timeline) stage(b *db.Batch, owner, id uint32, ts uint64, payload []byte, keep bool) (bool, func(), error) {
	pair := keys.Pair(owner, id)
	unlock := t.lock(pair)

	old, ok, err := t.lookupLocked(pair)
	if err != nil {
		unlock()
		return false, nil, err
	}
	if keep && (!ok || ts <= old) {
		return false, unlock, nil
	}
	if ok {
		oldKey := keys.Timeline(old, owner, id)
		if keep {
			payload, err = t.entries.Get(oldKey)
			if err != nil && !db.IsNotFound(err) {
				unlock()
				return false, nil, err
			}
		}
		if err := b.Delete(t.entries, oldKey); err != nil {
			unlock()
			return false, nil, err
		}
	}
	if err := t.queueInsert(b, pair, owner, id, ts, payload); err != nil {
		unlock()
		return false, nil, err
	}
	return true, unlock, nil
}

// Repayload rewrites the payload of every entry owned by owner in place,
// leaving timestamps alone, and returns how many entries it touched. Each
// entry is rewritten under its own pair lock.
func (t *Timeline) Repayload(owner uint32, payload []byte) (int, error) {
	it, err := t.lookup.ScanPrefix(keys.EncodeU32(owner), false)
	if err != nil {
		return 0, err
	}
	var ids []uint32
	for it.Next() {
		pp, err := keys.ParsePair(it.Key())
		if err != nil {
			it.Close()
			return 0, fmt.Errorf("%s: %w", t.lookup.Name(), err)
		}
		ids = append(ids, pp.ID)
	}
	err = it.Err()
	it.Close()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, id := range ids {
		ok, err := t.repayload(owner, id, payload)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (t *Timeline) repayload(owner, id uint32, payload []byte) (bool, error) {
	pair := keys.Pair(owner, id)
	unlock := t.lock(pair)
	defer unlock()

	ts, ok, err := t.lookupLocked(pair)
	if err != nil || !ok {
		return false, err
	}
	return true, t.entries.Put(keys.Timeline(ts, owner, id), payload)
}

// Remove drops the entry for (owner, id); a missing entry is a no-op.
func (t *Timeline) Remove(owner, id uint32) error {
	pair := keys.Pair(owner, id)
	unlock := t.lock(pair)
	defer unlock()

	old, ok, err := t.lookupLocked(pair)
	if err != nil || !ok {
		return err
	}
	b := t.store.NewBatch()
	defer b.Close()
	if err := b.Delete(t.entries, keys.Timeline(old, owner, id)); err != nil {
		return err
	}
	if err := b.Delete(t.lookup, pair); err != nil {
		return err
	}
	return b.Commit()
}

// Lookup returns the current timestamp of (owner, id).
func (t *Timeline) Lookup(owner, id uint32) (uint64, bool, error) {
	return t.lookupLocked(keys.Pair(owner, id))
}

// Payload returns the payload stored with the current entry of (owner, id).
func (t *Timeline) Payload(owner, id uint32) ([]byte, bool, error) {
	ts, ok, err := t.Lookup(owner, id)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := t.entries.Get(keys.Timeline(ts, owner, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (t *Timeline) lookupLocked(pair []byte) (uint64, bool, error) {
	v, err := t.lookup.Get(pair)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	ts, err := keys.DecodeU64(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", t.lookup.Name(), err)
	}
	return ts, true, nil
}

func (t *Timeline) queueInsert(b *db.Batch, pair []byte, owner, id uint32, ts uint64, payload []byte) error {
	if err := b.Put(t.entries, keys.Timeline(ts, owner, id), payload); err != nil {
		return err
	}
	return b.Put(t.lookup, pair, keys.EncodeU64(ts))
}

// Scan walks the whole timeline, newest first when the page is descending.
func (t *Timeline) Scan(page pagination.Page) ([]TimelineEntry, error) {
	it, err := t.entries.Iterate(page.Desc)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	skip, stop := page.Window()
	var out []TimelineEntry
	for pos := 0; pos < stop && it.Next(); pos++ {
		if pos < skip {
			continue
		}
		parts, err := keys.ParseTimeline(it.Key())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.entries.Name(), err)
		}
		out = append(out, TimelineEntry{
			Timestamp: parts.Timestamp,
			Owner:     parts.Owner,
			ID:        parts.ID,
			Payload:   bytes.Clone(it.Value()),
		})
	}
	return out, it.Err()
}

// ForOwners merges the entries of several owners by timestamp and returns
// the page window of the merged list. Used for "posts in the inns I joined".
func (t *Timeline) ForOwners(owners []uint32, page pagination.Page) ([]TimelineEntry, error) {
	var all []TimelineEntry
	for _, owner := range owners {
		it, err := t.lookup.ScanPrefix(keys.EncodeU32(owner), false)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			pp, err := keys.ParsePair(it.Key())
			if err != nil {
				it.Close()
				return nil, fmt.Errorf("%s: %w", t.lookup.Name(), err)
			}
			ts, err := keys.DecodeU64(it.Value())
			if err != nil {
				it.Close()
				return nil, fmt.Errorf("%s: %w", t.lookup.Name(), err)
			}
			all = append(all, TimelineEntry{Timestamp: ts, Owner: pp.Owner, ID: pp.ID})
		}
		err = it.Err()
		it.Close()
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.ID < b.ID
	})
	start, end, ok := pagination.Range(len(all), page)
	if !ok {
		return nil, nil
	}
	out := all[start-1 : end]
	if page.Desc {
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
	}
	return out, nil
}

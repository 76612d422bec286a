package index

import (
	"bytes"
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/store/counter"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
)

// Manager maintains secondary-index namespaces next to the record store.
type Manager struct {
	store    *db.Store
	counters *counter.Allocator
}

func New(store *db.Store, counters *counter.Allocator) *Manager {
	return &Manager{store: store, counters: counters}
}

func (m *Manager) Store() *db.Store { return m.store }

// SetIndex allocates the owner's next cursor from counts and only then
// writes owner#cursor -> payload into idx. Cursors are dense per owner, so
// entries for one owner sort in the order they were added.
func (m *Manager) SetIndex(counts *db.Namespace, owner uint32, idx *db.Namespace, payload []byte) (uint32, error) {
	cursor, err := m.counters.Incr(counts, keys.EncodeU32(owner))
	if err != nil {
		return 0, fmt.Errorf("allocate cursor for owner %d: %w", owner, err)
	}
	if err := idx.Put(keys.Pair(owner, cursor), payload); err != nil {
		// the cursor is spent; the gap is harmless for readers
		logger.Error("set_index_failed", "namespace", idx.Name(), "owner", owner, "cursor", cursor, "error", err)
		return 0, err
	}
	return cursor, nil
}

// IDsByPrefix returns the trailing u32 of every key under prefix. A nil page
// returns everything ascending; otherwise anchor entries are skipped from
// the chosen end and at most n are returned. Descending pages walk the
// prefix backwards instead of reversing a forward scan.
func (m *Manager) IDsByPrefix(idx *db.Namespace, prefix []byte, page *pagination.Page) ([]uint32, error) {
	desc := page != nil && page.Desc
	it, err := idx.ScanPrefix(prefix, desc)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	skip, stop := 0, -1
	if page != nil {
		skip, stop = page.Window()
	}
	var out []uint32
	for pos := 0; it.Next(); pos++ {
		if stop >= 0 && pos >= stop {
			break
		}
		if pos < skip {
			continue
		}
		id, err := keys.TrailingID(it.Key(), len(prefix))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", idx.Name(), err)
		}
		out = append(out, id)
	}
	return out, it.Err()
}

// IDsByTag returns ids indexed as tag#id. Every candidate key is re-parsed
// and kept only when its tag equals tag exactly; the page window applies to
// the exact matches.
func (m *Manager) IDsByTag(idx *db.Namespace, tag string, page *pagination.Page) ([]uint32, error) {
	prefix, err := keys.TagPrefix(tag)
	if err != nil {
		return nil, err
	}
	desc := page != nil && page.Desc
	it, err := idx.ScanPrefix(prefix, desc)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	skip, stop := 0, -1
	if page != nil {
		skip, stop = page.Window()
	}
	var out []uint32
	pos := 0
	for it.Next() {
		if stop >= 0 && pos >= stop {
			break
		}
		parts, err := keys.ParseTag(it.Key())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", idx.Name(), err)
		}
		if parts.Tag != tag {
			continue
		}
		if pos >= skip {
			out = append(out, parts.ID)
		}
		pos++
	}
	return out, it.Err()
}

// CountByPrefix scans the prefix range, O(matches). Keep a counter instead
// when the count is read often.
func (m *Manager) CountByPrefix(ns *db.Namespace, prefix []byte) (int, error) {
	it, err := ns.ScanPrefix(prefix, false)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}

// Add inserts a set-membership entry; adding an existing member is a no-op.
func (m *Manager) Add(idx *db.Namespace, key []byte) error {
	return idx.Put(key, nil)
}

// Remove deletes a set-membership entry; removing a non-member is a no-op.
func (m *Manager) Remove(idx *db.Namespace, key []byte) error {
	return idx.Delete(key)
}

func (m *Manager) Has(idx *db.Namespace, key []byte) (bool, error) {
	return idx.Contains(key)
}

// ValuesByPrefix is IDsByPrefix for indexes whose payload, not key, carries
// the id, such as owner#cursor -> id. Values are copied.
func (m *Manager) ValuesByPrefix(idx *db.Namespace, prefix []byte, page *pagination.Page) ([][]byte, error) {
	desc := page != nil && page.Desc
	it, err := idx.ScanPrefix(prefix, desc)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	skip, stop := 0, -1
	if page != nil {
		skip, stop = page.Window()
	}
	var out [][]byte
	for pos := 0; it.Next(); pos++ {
		if stop >= 0 && pos >= stop {
			break
		}
		if pos >= skip {
			out = append(out, bytes.Clone(it.Value()))
		}
	}
	return out, it.Err()
}

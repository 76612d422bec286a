package index

import (
	"cmp"
	"slices"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
)

// Diff returns the members of before missing from after (removed) and the
// members of after missing from before (added), each sorted and de-duplicated.
func Diff[T cmp.Ordered](before, after []T) (removed, added []T) {
	oldSet := make(map[T]struct{}, len(before))
	for _, v := range before {
		oldSet[v] = struct{}{}
	}
	newSet := make(map[T]struct{}, len(after))
	for _, v := range after {
		newSet[v] = struct{}{}
	}
	for v := range oldSet {
		if _, ok := newSet[v]; !ok {
			removed = append(removed, v)
		}
	}
	for v := range newSet {
		if _, ok := oldSet[v]; !ok {
			added = append(added, v)
		}
	}
	slices.Sort(removed)
	slices.Sort(added)
	return removed, added
}

// QueueReindexTags stages removal of tag#id for dropped tags and insertion
// for gained ones on an existing batch.
func (m *Manager) QueueReindexTags(b *db.Batch, idx *db.Namespace, id uint32, before, after []string) error {
	removed, added := Diff(before, after)
	for _, tag := range removed {
		k, err := keys.Tag(tag, id)
		if err != nil {
			return err
		}
		if err := b.Delete(idx, k); err != nil {
			return err
		}
	}
	for _, tag := range added {
		k, err := keys.Tag(tag, id)
		if err != nil {
			return err
		}
		if err := b.Put(idx, k, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReindexTags applies QueueReindexTags as one atomic batch, so readers never
// see stale and fresh tags for id side by side.
func (m *Manager) ReindexTags(idx *db.Namespace, id uint32, before, after []string) error {
	b := m.store.NewBatch()
	defer b.Close()
	if err := m.QueueReindexTags(b, idx, id, before, after); err != nil {
		return err
	}
	return b.Commit()
}

// QueueReindexOwners is QueueReindexTags for owner#id relations such as
// moderator#inn.
func (m *Manager) QueueReindexOwners(b *db.Batch, idx *db.Namespace, id uint32, before, after []uint32) error {
	removed, added := Diff(before, after)
	for _, owner := range removed {
		if err := b.Delete(idx, keys.Pair(owner, id)); err != nil {
			return err
		}
	}
	for _, owner := range added {
		if err := b.Put(idx, keys.Pair(owner, id), nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) ReindexOwners(idx *db.Namespace, id uint32, before, after []uint32) error {
	b := m.store.NewBatch()
	defer b.Close()
	if err := m.QueueReindexOwners(b, idx, id, before, after); err != nil {
		return err
	}
	return b.Commit()
}

package records

import (
	"fmt"

	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"
	"forumdb/pkg/store/counter"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"
)

// GetOne loads the record stored under a numeric id.
func GetOne[T any](ns *db.Namespace, id uint32) (T, error) {
	return GetOneByKey[T](ns, keys.EncodeU32(id))
}

// GetOneByKey loads a record stored under a composite key such as pid#cid.
func GetOneByKey[T any](ns *db.Namespace, key []byte) (T, error) {
	var out T
	raw, err := ns.Get(key)
	if err != nil {
		if db.IsNotFound(err) {
			return out, fmt.Errorf("%s/%x: %w", ns.Name(), key, ErrNotFound)
		}
		return out, err
	}
	if err := Decode(raw, &out); err != nil {
		return out, &DecodeError{Namespace: ns.Name(), Key: key, Err: err}
	}
	return out, nil
}

// SetOne encodes v and overwrites whatever is stored under id.
func SetOne[T any](ns *db.Namespace, id uint32, v *T) error {
	return SetOneByKey(ns, keys.EncodeU32(id), v)
}

func SetOneByKey[T any](ns *db.Namespace, key []byte, v *T) error {
	raw, err := Encode(v)
	if err != nil {
		return &EncodeError{Namespace: ns.Name(), Key: key, Err: err}
	}
	return ns.Put(key, raw)
}

// PutOne queues an encoded record on a batch.
func PutOne[T any](b *db.Batch, ns *db.Namespace, key []byte, v *T) error {
	raw, err := Encode(v)
	if err != nil {
		return &EncodeError{Namespace: ns.Name(), Key: key, Err: err}
	}
	return b.Put(ns, key, raw)
}

// GetBatch reads the counter under countKey as the collection size, windows
// ids 1..size with the page and loads them in order, newest first when the
// page is descending.
//
// Ids whose record is missing (a gap) or does not decode are skipped so the
// rest of the page still renders. Each skip is logged and counted.
func GetBatch[T any](items, counts *db.Namespace, countKey []byte, page pagination.Page) ([]T, error) {
	total, err := counter.New(items.Store()).Get(counts, countKey)
	if err != nil {
		return nil, err
	}
	return GetRange[T](items, total, page, keys.EncodeU32)
}

// GetRange is GetBatch for collections numbered 1..total under an arbitrary
// key, e.g. the comments pid#1..pid#n of one post.
func GetRange[T any](items *db.Namespace, total uint32, page pagination.Page, key func(uint32) []byte) ([]T, error) {
	start, end, ok := pagination.Range(int(total), page)
	if !ok {
		return []T{}, nil
	}

	out := make([]T, 0, end-start+1)
	for i := start; i <= end; i++ {
		v, err := GetOneByKey[T](items, key(uint32(i)))
		if err != nil {
			reason := "error"
			switch {
			case IsNotFound(err):
				reason = "missing"
			case IsDecodeError(err):
				reason = "decode"
			}
			logger.Warn("record_batch_skip", "namespace", items.Name(), "id", i, "reason", reason, "error", err)
			metrics.RecordsSkipped.WithLabelValues(items.Name(), reason).Inc()
			continue
		}
		out = append(out, v)
	}
	if page.Desc {
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
	}
	return out, nil
}

// Delete removes a record outright. Most entities are soft-deleted instead.
func Delete(ns *db.Namespace, id uint32) error {
	return ns.Delete(keys.EncodeU32(id))
}

package records

import (
	"testing"

	"forumdb/pkg/store/counter"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/pagination"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    uint32   `cbor:"1,keyasint"`
	Owner uint32   `cbor:"2,keyasint"`
	Name  string   `cbor:"3,keyasint"`
	Tags  []string `cbor:"4,keyasint,omitempty"`
}

// widgetV2 carries a field widget does not know about.
type widgetV2 struct {
	ID    uint32 `cbor:"1,keyasint"`
	Owner uint32 `cbor:"2,keyasint"`
	Name  string `cbor:"3,keyasint"`
	Color string `cbor:"9,keyasint"`
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.Open(db.Options{Path: "records-test", FS: vfs.NewMem(), DisableWAL: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := widget{ID: 3, Owner: 7, Name: "gear", Tags: []string{"a", "b"}}
	raw, err := Encode(&in)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, raw[0])

	var out widget
	require.NoError(t, Decode(raw, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := Encode(&widget{ID: 1, Name: "x", Tags: []string{"t"}})
	require.NoError(t, err)
	b, err := Encode(&widget{ID: 1, Name: "x", Tags: []string{"t"}})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGetOneNotFoundAndDecodeError(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("widgets")

	_, err := GetOne[widget](ns, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ns.Put(keys.EncodeU32(2), []byte{FormatVersion, 0xff, 0x00}))
	_, err = GetOne[widget](ns, 2)
	assert.True(t, IsDecodeError(err))

	require.NoError(t, ns.Put(keys.EncodeU32(3), []byte{99}))
	_, err = GetOne[widget](ns, 3)
	assert.True(t, IsDecodeError(err))

	require.NoError(t, SetOne(ns, 4, &widgetV2{ID: 4, Name: "new", Color: "red"}))
	_, err = GetOne[widget](ns, 4)
	assert.True(t, IsDecodeError(err), "unknown fields must be rejected, got %v", err)
}

func TestSetOneOverwrites(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("widgets")
	require.NoError(t, SetOne(ns, 1, &widget{ID: 1, Name: "first"}))
	require.NoError(t, SetOne(ns, 1, &widget{ID: 1, Name: "second"}))
	w, err := GetOne[widget](ns, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", w.Name)

	require.NoError(t, Delete(ns, 1))
	_, err = GetOne[widget](ns, 1)
	assert.True(t, IsNotFound(err))
}

func TestCompositeKeys(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("post_comments")
	k := keys.Pair(5, 2)
	require.NoError(t, SetOneByKey(ns, k, &widget{ID: 2, Owner: 5}))
	w, err := GetOneByKey[widget](ns, k)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), w.Owner)

	b := s.NewBatch()
	require.NoError(t, PutOne(b, ns, keys.Pair(5, 3), &widget{ID: 3, Owner: 5}))
	require.NoError(t, b.Commit())
	w, err = GetOneByKey[widget](ns, keys.Pair(5, 3))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), w.ID)
}

// allocate id 1 from widgets_count, store the record, index it under owner
// 7, then page it back.
func TestGetBatchSingleRecord(t *testing.T) {
	s := newTestStore(t)
	alloc := counter.New(s)
	counts := s.MustNamespace("default")
	items := s.MustNamespace("widgets")
	ownerIdx := s.MustNamespace("owner_widgets")

	id, err := alloc.Incr(counts, []byte("widgets_count"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), id)
	rec := widget{ID: id, Owner: 7, Name: "first"}
	require.NoError(t, SetOne(items, id, &rec))
	require.NoError(t, ownerIdx.Put(keys.Pair(7, 1), keys.EncodeU32(id)))

	got, err := GetBatch[widget](items, counts, []byte("widgets_count"), pagination.Page{Anchor: 0, N: 10})
	require.NoError(t, err)
	assert.Equal(t, []widget{rec}, got)
}

func TestGetBatchWindowsAndSkipsGaps(t *testing.T) {
	s := newTestStore(t)
	alloc := counter.New(s)
	counts := s.MustNamespace("default")
	items := s.MustNamespace("widgets")
	for i := 0; i < 6; i++ {
		id, err := alloc.Incr(counts, []byte("widgets_count"))
		require.NoError(t, err)
		require.NoError(t, SetOne(items, id, &widget{ID: id}))
	}
	// a deleted record and a corrupted one
	require.NoError(t, Delete(items, 5))
	require.NoError(t, items.Put(keys.EncodeU32(4), []byte{FormatVersion, 0xff}))

	ids := func(ws []widget) []uint32 {
		out := make([]uint32, 0, len(ws))
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}

	got, err := GetBatch[widget](items, counts, []byte("widgets_count"), pagination.Page{N: 3, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []uint32{6}, ids(got))

	got, err = GetBatch[widget](items, counts, []byte("widgets_count"), pagination.Page{N: 3})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, ids(got))

	got, err = GetBatch[widget](items, counts, []byte("widgets_count"), pagination.Page{Anchor: 3, N: 10, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 1}, ids(got))

	got, err = GetBatch[widget](items, counts, []byte("missing_count"), pagination.Page{N: 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetRangeCompositeKeys(t *testing.T) {
	s := newTestStore(t)
	items := s.MustNamespace("post_comments")
	for cid := uint32(1); cid <= 4; cid++ {
		require.NoError(t, SetOneByKey(items, keys.Pair(9, cid), &widget{ID: cid, Owner: 9}))
	}
	require.NoError(t, SetOneByKey(items, keys.Pair(8, 1), &widget{ID: 1, Owner: 8}))

	key := func(cid uint32) []byte { return keys.Pair(9, cid) }
	got, err := GetRange[widget](items, 4, pagination.Page{Anchor: 1, N: 2, Desc: true}, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(3), got[0].ID)
	assert.Equal(t, uint32(2), got[1].ID)
	assert.Equal(t, uint32(9), got[1].Owner)
}

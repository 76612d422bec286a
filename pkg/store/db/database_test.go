package db

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Path: "forumdb-test", FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type kv struct{ k, v string }

func drain(t *testing.T, it *Iterator) []kv {
	t.Helper()
	defer it.Close()
	var out []kv
	for it.Next() {
		out = append(out, kv{string(it.Key()), string(it.Value())})
	}
	require.NoError(t, it.Err())
	return out
}

func TestNamespaceIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Namespace("posts")
	require.NoError(t, err)
	b, err := s.Namespace("posts")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = s.Namespace("")
	assert.ErrorIs(t, err, ErrInvalidNamespace)
	_, err = s.Namespace("bad\x00name")
	assert.ErrorIs(t, err, ErrInvalidNamespace)
}

func TestPointOps(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("users")

	_, err := ns.Get([]byte("k"))
	assert.True(t, IsNotFound(err))
	ok, err := ns.Contains([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ns.Put([]byte("k"), []byte("v1")))
	v, err := ns.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, ns.Put([]byte("k"), []byte("v2")))
	v, _ = ns.Get([]byte("k"))
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, ns.Delete([]byte("k")))
	require.NoError(t, ns.Delete([]byte("k")))
	ok, _ = ns.Contains([]byte("k"))
	assert.False(t, ok)
}

func TestNamespacesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	a := s.MustNamespace("tags")
	b := s.MustNamespace("tags2")
	require.NoError(t, a.Put([]byte("x"), []byte("a")))
	require.NoError(t, b.Put([]byte("x"), []byte("b")))

	assert.Equal(t, []kv{{"x", "a"}}, drain(t, mustIter(t, a, false)))
	assert.Equal(t, []kv{{"x", "b"}}, drain(t, mustIter(t, b, false)))
}

func mustIter(t *testing.T, ns *Namespace, reverse bool) *Iterator {
	it, err := ns.Iterate(reverse)
	require.NoError(t, err)
	return it
}

func TestScanPrefixBothDirections(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("idx")
	for _, k := range []string{"a1", "a2", "a3", "b1", "a\xff", "\xff\xff"} {
		require.NoError(t, ns.Put([]byte(k), nil))
	}

	it, err := ns.ScanPrefix([]byte("a"), false)
	require.NoError(t, err)
	assert.Equal(t, []kv{{"a1", ""}, {"a2", ""}, {"a3", ""}, {"a\xff", ""}}, drain(t, it))

	it, err = ns.ScanPrefix([]byte("a"), true)
	require.NoError(t, err)
	assert.Equal(t, []kv{{"a\xff", ""}, {"a3", ""}, {"a2", ""}, {"a1", ""}}, drain(t, it))

	it, err = ns.ScanPrefix([]byte("\xff"), true)
	require.NoError(t, err)
	assert.Equal(t, []kv{{"\xff\xff", ""}}, drain(t, it))

	it, err = ns.ScanPrefix([]byte("zz"), false)
	require.NoError(t, err)
	assert.Empty(t, drain(t, it))

	all := drain(t, mustIter(t, ns, true))
	require.Len(t, all, 6)
	assert.Equal(t, "\xff\xff", all[0].k)
}

func TestBatchAppliesAcrossNamespaces(t *testing.T) {
	s := newTestStore(t)
	a := s.MustNamespace("post_timeline")
	b := s.MustNamespace("post_timeline_idx")
	require.NoError(t, a.Put([]byte("old"), []byte("1")))

	batch := s.NewBatch()
	require.NoError(t, batch.Delete(a, []byte("old")))
	require.NoError(t, batch.Put(a, []byte("new"), []byte("1")))
	require.NoError(t, batch.Put(b, []byte("pair"), []byte("new")))
	assert.Equal(t, 3, batch.Len())

	// nothing visible before commit
	ok, _ := a.Contains([]byte("new"))
	assert.False(t, ok)

	require.NoError(t, batch.Commit())
	assert.Equal(t, []kv{{"new", "1"}}, drain(t, mustIter(t, a, false)))
	assert.Equal(t, []kv{{"pair", "new"}}, drain(t, mustIter(t, b, false)))

	assert.ErrorIs(t, batch.Put(a, []byte("late"), nil), ErrBatchClosed)
}

func TestEmptyBatchCommit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.NewBatch().Commit())
}

func TestCatalogListsNamespaces(t *testing.T) {
	s := newTestStore(t)
	for _, n := range []string{"users", "posts", "inns"} {
		_, err := s.Namespace(n)
		require.NoError(t, err)
	}
	names, err := s.Namespaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"inns", "posts", "users"}, names)

	// catalog entries never leak into a namespace scan
	require.NoError(t, s.MustNamespace("users").Put([]byte("k"), nil))
	assert.Len(t, drain(t, mustIter(t, s.MustNamespace("users"), false)), 1)
}

func TestReopenKeepsData(t *testing.T) {
	fs := vfs.NewMem()
	s, err := Open(Options{Path: "db", FS: fs})
	require.NoError(t, err)
	require.NoError(t, s.MustNamespace("users").Put([]byte("1"), []byte("alice")))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: "db", FS: fs, ReadOnly: true})
	require.NoError(t, err)
	defer s.Close()
	names, err := s.Namespaces()
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, names)
	v, err := s.MustNamespace("users").Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "alice", string(v))
	assert.ErrorIs(t, s.MustNamespace("users").Put([]byte("2"), nil), ErrReadOnly)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(Options{Path: "db", FS: vfs.NewMem()})
	require.NoError(t, err)
	ns := s.MustNamespace("users")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = ns.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Namespace("other")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, s.Metrics())
}

func TestUpperBound(t *testing.T) {
	cases := []struct{ in, want []byte }{
		{[]byte("a"), []byte("b")},
		{[]byte{'a', 0xff}, []byte("b")},
		{[]byte{0xff, 0xff}, nil},
		{[]byte("posts\x00"), []byte("posts\x01")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, upperBound(tc.in), fmt.Sprintf("%x", tc.in))
	}
}

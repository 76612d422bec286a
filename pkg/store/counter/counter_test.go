package counter

import (
	"math"
	"sort"
	"sync"
	"testing"

	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.Open(db.Options{Path: "counter-test", FS: vfs.NewMem(), DisableWAL: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIncrSequential(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	ns := s.MustNamespace("default")

	n, err := a.Get(ns, []byte("widgets_count"))
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := uint32(1); want <= 20; want++ {
		got, err := a.Incr(ns, []byte("widgets_count"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	n, err = a.Get(ns, []byte("widgets_count"))
	require.NoError(t, err)
	assert.Equal(t, uint32(20), n)
}

func TestIncrConcurrentIsGapFree(t *testing.T) {
	s := newTestStore(t)
	ns := s.MustNamespace("default")
	const workers, per = 16, 40

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// separate allocators still share the store's lock table
			a := New(s)
			for i := 0; i < per; i++ {
				id, err := a.Incr(ns, []byte("posts_count"))
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				got = append(got, int(id))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Ints(got)
	require.Len(t, got, workers*per)
	for i, id := range got {
		require.Equal(t, i+1, id)
	}
}

func TestCountersAreIndependent(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	ns := s.MustNamespace("user_solos_count")

	for i := 0; i < 3; i++ {
		_, err := a.Incr(ns, keys.EncodeU32(7))
		require.NoError(t, err)
	}
	id, err := a.Incr(ns, keys.EncodeU32(8))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
}

func TestIncr64(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	ns := s.MustNamespace("default")
	for want := uint64(1); want <= 3; want++ {
		got, err := a.Incr64(ns, []byte("items_count"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	n, err := a.Get64(ns, []byte("items_count"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestOverflowPanics(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	ns := s.MustNamespace("default")
	require.NoError(t, ns.Put([]byte("full"), keys.EncodeU32(math.MaxUint32)))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrOverflow)

		// the stored value is untouched
		n, gerr := a.Get(ns, []byte("full"))
		require.NoError(t, gerr)
		assert.Equal(t, uint32(math.MaxUint32), n)
	}()
	_, _ = a.Incr(ns, []byte("full"))
}

func TestMalformedCounterValue(t *testing.T) {
	s := newTestStore(t)
	a := New(s)
	ns := s.MustNamespace("default")
	require.NoError(t, ns.Put([]byte("bad"), []byte{1, 2}))

	_, err := a.Incr(ns, []byte("bad"))
	assert.ErrorIs(t, err, keys.ErrMalformedKey)
}

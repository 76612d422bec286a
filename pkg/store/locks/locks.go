package locks

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultStripes = 256

// Table hands out mutexes for read-modify-write sections on a single
// (namespace, key). Keys hash onto a fixed set of stripes, so unrelated keys
// may share a mutex but the same key always maps to the same one.
type Table struct {
	stripes []sync.Mutex
}

func NewTable(n int) *Table {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Table{stripes: make([]sync.Mutex, n)}
}

// For returns the mutex guarding key inside namespace ns.
func (t *Table) For(ns string, key []byte) *sync.Mutex {
	d := xxhash.New()
	_, _ = d.WriteString(ns)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(key)
	return &t.stripes[d.Sum64()%uint64(len(t.stripes))]
}

// Lock locks the stripe for (ns, key) and returns its unlock func.
func (t *Table) Lock(ns string, key []byte) func() {
	m := t.For(ns, key)
	m.Lock()
	return m.Unlock
}

package db

import (
	"forumdb/pkg/store/pagination"

	"github.com/cockroachdb/pebble"
)

// Iterator is a lazy, bounded scan over one namespace. Key and Value are only
// valid until the next call to Next; copy them to keep them.
type Iterator struct {
	it    *pebble.Iterator
	dir   *pagination.Directed
	strip int
}

func newIterator(it *pebble.Iterator, strip int, reverse bool) *Iterator {
	return &Iterator{it: it, dir: pagination.NewDirected(it, reverse), strip: strip}
}

// Next moves to the following entry in scan order.
func (i *Iterator) Next() bool { return i.dir.Next() }

func (i *Iterator) Reverse() bool { return i.dir.Desc() }

// Key is namespace-relative.
func (i *Iterator) Key() []byte { return i.it.Key()[i.strip:] }

func (i *Iterator) Value() []byte { return i.it.Value() }

func (i *Iterator) Err() error { return i.it.Error() }

func (i *Iterator) Close() error { return i.it.Close() }

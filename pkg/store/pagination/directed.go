package pagination

// Cursor is a bidirectional positioned iterator; *pebble.Iterator satisfies it.
type Cursor interface {
	First() bool
	Last() bool
	Next() bool
	Prev() bool
	Valid() bool
}

// Directed walks a Cursor front-to-back or back-to-front behind one
// forward-only Next, so scan loops are written once for both directions.
type Directed struct {
	c       Cursor
	desc    bool
	started bool
}

func NewDirected(c Cursor, desc bool) *Directed {
	return &Directed{c: c, desc: desc}
}

// Next positions on the following entry in the chosen direction. The first
// call positions on the first (or last) entry.
func (d *Directed) Next() bool {
	if !d.started {
		d.started = true
		if d.desc {
			return d.c.Last()
		}
		return d.c.First()
	}
	if !d.c.Valid() {
		return false
	}
	if d.desc {
		return d.c.Prev()
	}
	return d.c.Next()
}

func (d *Directed) Desc() bool { return d.desc }


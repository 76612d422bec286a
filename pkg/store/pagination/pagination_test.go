package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestRangeScenarios(t *testing.T) {
	cases := []struct {
		name       string
		total      int
		page       Page
		start, end int
		ok         bool
	}{
		{"desc first page", 25, Page{Anchor: 0, N: 10, Desc: true}, 16, 25, true},
		{"desc deep anchor", 25, Page{Anchor: 20, N: 10, Desc: true}, 1, 5, true},
		{"asc first page", 25, Page{Anchor: 0, N: 10}, 1, 10, true},
		{"asc last partial", 25, Page{Anchor: 20, N: 10}, 21, 25, true},
		{"single record", 1, Page{Anchor: 0, N: 10}, 1, 1, true},
		{"empty total", 0, Page{Anchor: 0, N: 10}, 0, 0, false},
		{"asc anchor at total", 25, Page{Anchor: 25, N: 10}, 0, 0, false},
		{"asc anchor past total", 25, Page{Anchor: 99, N: 10}, 0, 0, false},
		{"desc anchor at total", 25, Page{Anchor: 25, N: 10, Desc: true}, 0, 0, false},
		{"zero page size", 25, Page{Anchor: 0, N: 0}, 0, 0, false},
		{"negative anchor", 5, Page{Anchor: -3, N: 2}, 1, 2, true},
		{"huge page asc", 10, Page{Anchor: 1, N: math.MaxInt}, 2, 10, true},
		{"huge page desc", 10, Page{Anchor: 1, N: math.MaxInt, Desc: true}, 1, 9, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := Range(tc.total, tc.page)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestRangeNeverLeavesBounds(t *testing.T) {
	for total := 0; total <= 30; total++ {
		for n := 1; n <= 12; n++ {
			for anchor := 0; anchor <= 35; anchor++ {
				for _, desc := range []bool{false, true} {
					start, end, ok := Range(total, Page{Anchor: anchor, N: n, Desc: desc})
					if !ok {
						continue
					}
					if start < 1 || end > total || start > end || end-start+1 > n {
						t.Fatalf("total=%d n=%d anchor=%d desc=%v -> (%d,%d)", total, n, anchor, desc, start, end)
					}
				}
			}
		}
	}
}

// sliceCursor is an in-memory Cursor over ints.
type sliceCursor struct {
	vals []int
	pos  int
}

func (c *sliceCursor) First() bool { c.pos = 0; return c.Valid() }
func (c *sliceCursor) Last() bool  { c.pos = len(c.vals) - 1; return c.Valid() }
func (c *sliceCursor) Next() bool  { c.pos++; return c.Valid() }
func (c *sliceCursor) Prev() bool  { c.pos--; return c.Valid() }
func (c *sliceCursor) Valid() bool { return c.pos >= 0 && c.pos < len(c.vals) }

func collect(d *Directed, c *sliceCursor) []int {
	var out []int
	for d.Next() {
		out = append(out, c.vals[c.pos])
	}
	return out
}

func TestDirectedBothWays(t *testing.T) {
	c := &sliceCursor{vals: []int{1, 2, 3, 4}}
	assert.Equal(t, []int{1, 2, 3, 4}, collect(NewDirected(c, false), c))
	assert.Equal(t, []int{4, 3, 2, 1}, collect(NewDirected(c, true), c))

	empty := &sliceCursor{}
	assert.Empty(t, collect(NewDirected(empty, true), empty))
}

func TestPageWindow(t *testing.T) {
	skip, stop := Page{Anchor: 3, N: 5}.Window()
	assert.Equal(t, 3, skip)
	assert.Equal(t, 8, stop)
	skip, stop = Page{Anchor: -1, N: -1}.Window()
	assert.Equal(t, 0, skip)
	assert.Equal(t, 0, stop)
	skip, stop = Page{Anchor: 2, N: math.MaxInt}.Window()
	assert.Equal(t, 2, skip)
	assert.Equal(t, math.MaxInt, stop)
}

func TestParsePage(t *testing.T) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	args.Parse("anchor=40&n=9999&desc=true")
	p := ParsePage(args, DefaultLimit, MaxLimit)
	require.Equal(t, Page{Anchor: 40, N: MaxLimit, Desc: true}, p)

	args.Parse("anchor=-2&n=abc")
	p = ParsePage(args, DefaultLimit, MaxLimit)
	assert.Equal(t, Page{Anchor: 0, N: DefaultLimit}, p)
}

func TestNewPageResponse(t *testing.T) {
	r := NewPageResponse(Page{Anchor: 10, N: 5}, 5, true)
	assert.Equal(t, 15, r.Next)
	r = NewPageResponse(Page{Anchor: 10, N: 5}, 2, false)
	assert.Equal(t, 0, r.Next)
}

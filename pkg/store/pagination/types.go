package pagination

import "math"

// Page selects a window over an ordered result set. Anchor is a plain offset
// into the current result set, not a stable cursor token: inserts and deletes
// between two requests shift what a given anchor points at.
type Page struct {
	Anchor int  `json:"anchor"` // number of entries to skip from the chosen end
	N      int  `json:"n"`      // page size
	Desc   bool `json:"desc"`   // count from the newest/highest end
}

// Window returns the anchor/n bounds as a half-open [skip, stop) interval
// over a directed scan. stop saturates at math.MaxInt.
func (p Page) Window() (skip, stop int) {
	skip = p.Anchor
	if skip < 0 {
		skip = 0
	}
	n := p.N
	if n < 0 {
		n = 0
	}
	if n > math.MaxInt-skip {
		return skip, math.MaxInt
	}
	return skip, skip + n
}

type PageResponse struct {
	Anchor  int  `json:"anchor"`
	N       int  `json:"n"`
	Desc    bool `json:"desc"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
	Next    int  `json:"next_anchor,omitempty"`
}

func NewPageResponse(p Page, count int, hasMore bool) *PageResponse {
	r := &PageResponse{Anchor: p.Anchor, N: p.N, Desc: p.Desc, Count: count, HasMore: hasMore}
	if hasMore {
		r.Next = p.Anchor + count
	}
	return r
}

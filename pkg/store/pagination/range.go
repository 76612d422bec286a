package pagination

// Range computes the 1-indexed inclusive id window [start, end] for a page
// over total entries numbered 1..total.
//
//	asc:  start = min(anchor, total) + 1; end = min(start + n - 1, total)
//	desc: end = total - min(anchor, total); start = max(end - n + 1, 1)
//
// ok is false when the window is empty (total == 0, n <= 0, or the anchor
// runs off the end). A returned window always satisfies 1 <= start <= end <= total.
func Range(total int, p Page) (start, end int, ok bool) {
	if total <= 0 || p.N <= 0 {
		return 0, 0, false
	}
	anchor := p.Anchor
	if anchor < 0 {
		anchor = 0
	}
	if anchor > total {
		anchor = total
	}
	n := p.N
	if n > total {
		n = total
	}

	if p.Desc {
		end = total - anchor
		start = end - n + 1
		if start < 1 {
			start = 1
		}
	} else {
		start = anchor + 1
		end = start + n - 1
		if end > total {
			end = total
		}
	}
	if start > end || start < 1 || end > total {
		return 0, 0, false
	}
	return start, end, true
}

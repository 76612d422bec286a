package registry

import (
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/pagination"
)

// Rows renders the window of ns selected by page. A page with N <= 0 returns
// every row from the anchor on. hasMore reports whether rows follow the window.
func (reg *Registry) Rows(ns *db.Namespace, page pagination.Page) (rows []Row, hasMore bool, err error) {
	it, err := ns.Iterate(page.Desc)
	if err != nil {
		return nil, false, err
	}
	defer it.Close()

	skip, stop := page.Window()
	if page.N <= 0 {
		stop = -1
	}
	for pos := 0; it.Next(); pos++ {
		if pos < skip {
			continue
		}
		if stop >= 0 && pos >= stop {
			hasMore = true
			break
		}
		rows = append(rows, reg.Render(ns.Name(), it.Key(), it.Value()))
	}
	return rows, hasMore, it.Err()
}

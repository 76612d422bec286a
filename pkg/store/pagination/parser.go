package pagination

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

// ParsePage reads anchor, n and desc from query args. Bad or missing values
// fall back to defaults; n is capped at maxLimit.
func ParsePage(args *fasthttp.Args, defLimit, maxLimit int) Page {
	p := Page{N: defLimit}
	if v := strings.TrimSpace(string(args.Peek("anchor"))); v != "" {
		if a, err := strconv.Atoi(v); err == nil && a >= 0 {
			p.Anchor = a
		}
	}
	if v := strings.TrimSpace(string(args.Peek("n"))); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.N = n
		}
	}
	if p.N > maxLimit {
		p.N = maxLimit
	}
	switch strings.ToLower(strings.TrimSpace(string(args.Peek("desc")))) {
	case "1", "true", "yes":
		p.Desc = true
	}
	return p
}

// Package adminview serves a read-only operator view of the store: the
// namespace catalog, rendered rows, metrics and a manual sweep trigger.
package adminview

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/time/rate"

	"forumdb/internal/sweeper"
	"forumdb/pkg/logger"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/pagination"
	"forumdb/pkg/store/registry"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
	defaultRPS   = 50
)

type Options struct {
	Store    *db.Store
	Registry *registry.Registry
	Gatherer prometheus.Gatherer // nil means the default gatherer

	// Sweep runs one sweep on POST /admin/jobs/sweep; nil disables the route.
	Sweep func(ctx context.Context) (int, error)

	RPS   float64
	Burst int
}

type Server struct {
	opts    Options
	limiter *rate.Limiter
	handler fasthttp.RequestHandler
	srv     *fasthttp.Server
}

func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = max(1, int(opts.RPS))
	}
	s := &Server{opts: opts, limiter: rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)}

	r := newRouter()
	r.GET("/admin/health", s.health)
	r.GET("/admin/namespaces", s.listNamespaces)
	r.GET("/admin/namespaces/{name}", s.namespaceRows)
	r.GET("/admin/metrics", wrapHTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	if opts.Sweep != nil {
		r.POST("/admin/jobs/sweep", s.runSweep)
	}
	r.notFound = func(ctx *fasthttp.RequestCtx) {
		writeJSONError(ctx, fasthttp.StatusNotFound, "not found")
	}
	s.handler = s.limit(r.Handler)
	return s
}

// Handler is the full admin handler, rate limiting included.
func (s *Server) Handler() fasthttp.RequestHandler { return s.handler }

// ListenAndServe serves on addr in the background; the channel receives the
// terminal error, nil after Shutdown.
func (s *Server) ListenAndServe(addr string) <-chan error {
	s.srv = &fasthttp.Server{
		Handler:      s.handler,
		Name:         "forumdb-admin",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin_listening", "addr", addr)
		errCh <- s.srv.ListenAndServe(addr)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- s.srv.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) limit(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !s.limiter.Allow() {
			logger.Warn("admin_rate_limited", "path", string(ctx.Path()), "remote", ctx.RemoteAddr().String())
			writeJSONError(ctx, fasthttp.StatusTooManyRequests, "too many requests")
			return
		}
		next(ctx)
	}
}

func wrapHTTPHandler(h http.Handler) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, map[string]string{"status": "ok"})
}

func (s *Server) listNamespaces(ctx *fasthttp.RequestCtx) {
	names, err := s.opts.Store.Namespaces()
	if err != nil {
		logger.Error("admin_list_namespaces_failed", "error", err)
		writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	type entry struct {
		Name     string `json:"name"`
		Rendered bool   `json:"rendered"`
	}
	out := make([]entry, 0, len(names))
	for _, name := range names {
		_, ok := s.opts.Registry.Lookup(name)
		out = append(out, entry{Name: name, Rendered: ok})
	}
	writeJSON(ctx, map[string]any{"namespaces": out})
}

func (s *Server) namespaceRows(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)
	names, err := s.opts.Store.Namespaces()
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	if !slices.Contains(names, name) {
		writeJSONError(ctx, fasthttp.StatusNotFound, "unknown namespace: "+name)
		return
	}
	ns, err := s.opts.Store.Namespace(name)
	if err != nil {
		writeJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	page := pagination.ParsePage(ctx.QueryArgs(), pagination.AdminDefaultLimit, pagination.AdminMaxLimit)
	rows, hasMore, err := s.opts.Registry.Rows(ns, page)
	if err != nil {
		logger.Error("admin_namespace_rows_failed", "namespace", name, "error", err)
		writeJSONError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []registry.Row{}
	}
	writeJSON(ctx, map[string]any{
		"namespace":  name,
		"rows":       rows,
		"pagination": pagination.NewPageResponse(page, len(rows), hasMore),
	})
}

func (s *Server) runSweep(ctx *fasthttp.RequestCtx) {
	sctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	removed, err := s.opts.Sweep(sctx)
	if err != nil {
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, sweeper.ErrRunning) {
			status = fasthttp.StatusConflict
		}
		writeJSONError(ctx, status, err.Error())
		return
	}
	logger.Info("admin_sweep_done", "removed", removed)
	writeJSON(ctx, map[string]int{"removed": removed})
}

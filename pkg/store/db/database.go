package db

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"forumdb/pkg/logger"
	"forumdb/pkg/store/locks"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrInvalidNamespace = errors.New("invalid namespace name")
	ErrClosed           = errors.New("store closed")
	ErrReadOnly         = errors.New("store opened read-only")
)

// physical layout: every namespace is the prefix name+0x00. Names never
// contain 0x00 and are never empty, so keys starting with 0x00 are free for
// the catalog.
var catalogPrefix = []byte("\x00catalog\x00")

type Options struct {
	Path       string
	FS         vfs.FS // nil means the OS filesystem
	DisableWAL bool
	ReadOnly   bool
	CacheSize  int64
}

// Store is one pebble DB split into named namespaces. It is safe for
// concurrent use and is passed explicitly to every component built on it.
type Store struct {
	db          *pebble.DB
	path        string
	walDisabled bool
	readOnly    bool
	locks       *locks.Table

	mu     sync.Mutex
	spaces map[string]*Namespace
}

// opens/creates the pebble DB backing all namespaces
func Open(opts Options) (*Store, error) {
	popts := &pebble.Options{
		FS:         opts.FS,
		DisableWAL: opts.DisableWAL,
		ReadOnly:   opts.ReadOnly,
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		popts.Cache = cache
	}
	if opts.DisableWAL {
		logger.Warn("durability_disabled", "durability", "pebble WAL disabled", "path", opts.Path)
	}
	pdb, err := pebble.Open(opts.Path, popts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", opts.Path, "error", err)
		return nil, err
	}
	logger.Info("store_opened", "path", opts.Path, "read_only", opts.ReadOnly)
	return &Store{
		db:          pdb,
		path:        opts.Path,
		walDisabled: opts.DisableWAL,
		readOnly:    opts.ReadOnly,
		locks:       locks.NewTable(locks.DefaultStripes),
		spaces:      make(map[string]*Namespace),
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		logger.Error("store_close_failed", "path", s.path, "error", err)
		return err
	}
	s.db = nil
	logger.Info("store_closed", "path", s.path)
	return nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) ReadOnly() bool { return s.readOnly }

// Locks is the lock table shared by every read-modify-write on this store.
func (s *Store) Locks() *locks.Table { return s.locks }

// Metrics exposes engine metrics; nil once closed.
func (s *Store) Metrics() *pebble.Metrics {
	pdb := s.handle()
	if pdb == nil {
		return nil
	}
	return pdb.Metrics()
}

// WriteOpt syncs requested writes unless the WAL is off.
func (s *Store) WriteOpt(requestSync bool) *pebble.WriteOptions {
	if requestSync && !s.walDisabled {
		return pebble.Sync
	}
	return pebble.NoSync
}

func (s *Store) handle() *pebble.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

func (s *Store) open() (*pebble.DB, error) {
	pdb := s.handle()
	if pdb == nil {
		return nil, ErrClosed
	}
	return pdb, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pebble.ErrNotFound)
}

func validName(name string) error {
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, name)
	}
	return nil
}

// Namespace returns the handle for name, recording it in the catalog the
// first time. Opening an existing namespace returns the same handle.
func (s *Store) Namespace(name string) (*Namespace, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if ns, ok := s.spaces[name]; ok {
		return ns, nil
	}
	if !s.readOnly {
		if err := s.db.Set(catalogKey(name), nil, s.WriteOpt(true)); err != nil {
			logger.Error("namespace_register_failed", "namespace", name, "error", err)
			return nil, err
		}
	}
	ns := &Namespace{store: s, name: name, prefix: append([]byte(name), 0)}
	s.spaces[name] = ns
	logger.Debug("namespace_opened", "namespace", name)
	return ns, nil
}

// MustNamespace is Namespace for wiring code that cannot continue without it.
func (s *Store) MustNamespace(name string) *Namespace {
	ns, err := s.Namespace(name)
	if err != nil {
		panic(fmt.Sprintf("open namespace %q: %v", name, err))
	}
	return ns
}

// Namespaces lists every namespace recorded in the catalog, sorted.
func (s *Store) Namespaces() ([]string, error) {
	pdb, err := s.open()
	if err != nil {
		return nil, err
	}
	iter, err := pdb.NewIter(&pebble.IterOptions{
		LowerBound: catalogPrefix,
		UpperBound: upperBound(catalogPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, string(bytes.TrimPrefix(iter.Key(), catalogPrefix)))
	}
	return out, iter.Error()
}

func catalogKey(name string) []byte {
	k := make([]byte, 0, len(catalogPrefix)+len(name))
	k = append(k, catalogPrefix...)
	return append(k, name...)
}

// upperBound is the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

package forum

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"forumdb/pkg/logger"
	"forumdb/pkg/store/counter"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/index"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/locks"
	"forumdb/pkg/store/records"
)

var (
	ErrNameTaken = errors.New("name already taken")
	ErrForbidden = errors.New("forbidden")
	ErrExpired   = errors.New("token expired")
)

// Forum is the data layer of the forum: typed records, their indexes and
// the flows that keep both consistent.
//
// Lock order is edits, then names, then the store's stripes. Nothing takes
// two stripes of the same table at once.
type Forum struct {
	store    *db.Store
	counters *counter.Allocator
	idx      *index.Manager
	timeline *index.Timeline
	ns       map[string]*db.Namespace

	edits *locks.Table // per-record read-modify-write
	names sync.Mutex   // unique-name registration

	now func() time.Time
}

type Option func(*Forum)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Forum) { f.now = now }
}

// New opens every forum namespace on store.
func New(store *db.Store, opts ...Option) (*Forum, error) {
	f := &Forum{
		store:    store,
		counters: counter.New(store),
		ns:       make(map[string]*db.Namespace, len(AllNamespaces)),
		edits:    locks.NewTable(locks.DefaultStripes),
		now:      time.Now,
	}
	f.idx = index.New(store, f.counters)
	for _, name := range AllNamespaces {
		ns, err := store.Namespace(name)
		if err != nil {
			return nil, fmt.Errorf("open namespace %s: %w", name, err)
		}
		f.ns[name] = ns
	}
	f.timeline = index.NewTimeline(store, f.ns[NsPostTimeline], f.ns[NsPostTimelineIdx])
	for _, o := range opts {
		o(f)
	}
	logger.Debug("forum_opened", "path", store.Path(), "namespaces", len(f.ns))
	return f, nil
}

func (f *Forum) Store() *db.Store { return f.store }

func (f *Forum) namespace(name string) *db.Namespace {
	ns, ok := f.ns[name]
	if !ok {
		panic("forum: unknown namespace " + name)
	}
	return ns
}

func (f *Forum) nextID(counterKey string) (uint32, error) {
	return f.counters.Incr(f.namespace(NsDefault), []byte(counterKey))
}

func (f *Forum) lockRecord(ns string, id uint32) func() {
	return f.edits.Lock(ns, keys.EncodeU32(id))
}

// reserveName checks a unique-name namespace. The caller must hold f.names.
func (f *Forum) reserveName(ns, name string) ([]byte, error) {
	if err := keys.ValidName(name); err != nil {
		return nil, err
	}
	norm := []byte(keys.NormalizeName(name))
	taken, err := f.namespace(ns).Contains(norm)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return norm, nil
}

// loadIDs resolves ids through a record namespace. Ids whose record is gone
// are dropped, matching the lenient batch readers.
func loadIDs[T any](ns *db.Namespace, ids []uint32) ([]T, error) {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v, err := records.GetOne[T](ns, id)
		if err != nil {
			if records.IsNotFound(err) {
				logger.Debug("index_entry_dangling", "namespace", ns.Name(), "id", id)
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// normalizeTags lower-cases, trims and de-duplicates tags, keeping the first
// limit in input order.
func normalizeTags(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > maxTagLength {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ExtractElements collects words that follow sep and end at a space, such
// as hashtags in "#go is #fun ". A word at the very end of input without a
// trailing space is not collected. Words longer than 25 bytes are skipped
// and at most limit are returned.
func ExtractElements(input string, limit int, sep rune) []string {
	var out []string
	parts := strings.Split(input, string(sep))
	for _, p := range parts[1:] {
		word, _, found := strings.Cut(p, " ")
		if !found || word == "" || len(word) > maxTagLength {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, word)
	}
	return out
}

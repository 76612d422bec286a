package registry

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"forumdb/pkg/logger"
)

// Row is one key/value pair rendered for humans.
type Row struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
}

// Renderer turns a raw namespace entry into a Row.
type Renderer interface {
	Render(key, value []byte) (Row, error)
}

type RendererFunc func(key, value []byte) (Row, error)

func (f RendererFunc) Render(key, value []byte) (Row, error) { return f(key, value) }

// Raw renders both sides as hex. It is used for namespaces nobody registered.
var Raw Renderer = RendererFunc(func(key, value []byte) (Row, error) {
	return Row{Key: hex.EncodeToString(key), Value: hex.EncodeToString(value)}, nil
})

// Registry maps namespace names to renderers.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

func New() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Register binds r to each name. Registering a name twice is a programming
// error and panics.
func (reg *Registry) Register(r Renderer, names ...string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, name := range names {
		if _, dup := reg.renderers[name]; dup {
			panic(fmt.Sprintf("registry: renderer for %q registered twice", name))
		}
		reg.renderers[name] = r
	}
}

func (reg *Registry) Lookup(name string) (Renderer, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.renderers[name]
	return r, ok
}

// Names lists registered namespaces, sorted.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.renderers))
	for name := range reg.renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render never fails: entries that the registered renderer rejects come back
// as raw hex with the error attached.
func (reg *Registry) Render(name string, key, value []byte) Row {
	r, ok := reg.Lookup(name)
	if !ok {
		r = Raw
	}
	row, err := r.Render(key, value)
	if err != nil {
		logger.Debug("render_row_failed", "namespace", name, "key", hex.EncodeToString(key), "error", err)
		row, _ = Raw.Render(key, value)
		row.Error = err.Error()
	}
	return row
}

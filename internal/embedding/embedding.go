// Package embedding holds sentence-embedding models and the vector math used to compare them.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrModelUnavailable reports that an embedding model could not be loaded or cannot serve requests.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Loader constructs an Embedder. It runs at most once per Lazy.
type Loader func(ctx context.Context) (Embedder, error)

// Lazy loads an Embedder on first use and shares it afterwards. A failed load is
// remembered: every later Get returns the same ErrModelUnavailable.
type Lazy struct {
	name string
	load Loader

	once  sync.Once
	model Embedder
	err   error
}

// NewLazy returns an unloaded model handle.
func NewLazy(name string, load Loader) *Lazy {
	return &Lazy{name: name, load: load}
}

// Name returns the registered model name.
func (l *Lazy) Name() string {
	return l.name
}

// Get returns the loaded model, loading it on the first call.
func (l *Lazy) Get(ctx context.Context) (Embedder, error) {
	l.once.Do(func() {
		if l.load == nil {
			l.err = fmt.Errorf("%w: %s: no loader configured", ErrModelUnavailable, l.name)
			return
		}

		model, err := l.load(ctx)
		switch {
		case err != nil:
			l.err = fmt.Errorf("%w: %s: %w", ErrModelUnavailable, l.name, err)
		case model == nil:
			l.err = fmt.Errorf("%w: %s: loader returned no model", ErrModelUnavailable, l.name)
		default:
			l.model = model
		}
	})

	return l.model, l.err
}

var registry = struct {
	mu     sync.Mutex
	models map[string]*Lazy
}{models: make(map[string]*Lazy)}

// Shared returns the process-wide handle for name, registering load on first sight.
// Later calls with the same name ignore their loader and return the existing handle.
func Shared(name string, load Loader) *Lazy {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if existing, ok := registry.models[name]; ok {
		return existing
	}

	lazy := NewLazy(name, load)
	registry.models[name] = lazy
	return lazy
}

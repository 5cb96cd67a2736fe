// Package grammar resolves language identifiers to tree-sitter grammars.
//
// Grammar construction is the most expensive fixed cost per language, so a
// Registry loads each grammar at most once and shares the handle between all
// callers. Handles are immutable after construction.
package grammar

import (
	"fmt"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"
)

var log = commonlog.GetLogger("uniast.grammar")

// Grammar is the resolved, reusable handle for one language.
type Grammar struct {
	// ID is the canonical language identifier that was resolved.
	ID string
	// Name is the engine grammar name; several identifiers may share one.
	Name string

	lang *sitter.Language
}

// Language returns the tree-sitter language the grammar wraps.
func (g *Grammar) Language() *sitter.Language {
	return g.lang
}

// Loader constructs the tree-sitter language for an engine grammar name.
type Loader func(name string) (*sitter.Language, error)

type Option func(*Registry)

// WithLoader replaces the grammar loader.
func WithLoader(load Loader) Option {
	return func(r *Registry) {
		r.load = load
	}
}

// Registry is a concurrency-safe cache of grammars keyed by engine grammar
// name. Concurrent misses for the same grammar share a single load.
type Registry struct {
	load  Loader
	group singleflight.Group

	mu    sync.RWMutex
	langs map[string]*sitter.Language
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		load:  ForestLoader,
		langs: make(map[string]*sitter.Language),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Resolve returns the grammar for a language identifier. Unknown
// identifiers fail with an error matching ErrUnsupportedLanguage before any
// grammar is loaded.
func (r *Registry) Resolve(id string) (*Grammar, error) {
	lang, ok := Lookup(id)
	if !ok {
		return nil, &UnsupportedLanguageError{Language: id}
	}

	tsLang, err := r.language(lang.Grammar)
	if err != nil {
		return nil, err
	}
	return &Grammar{ID: lang.ID, Name: lang.Grammar, lang: tsLang}, nil
}

// Resolve uses the default registry.
func Resolve(id string) (*Grammar, error) {
	return Default().Resolve(id)
}

// Loaded returns the number of grammars constructed so far.
func (r *Registry) Loaded() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.langs)
}

func (r *Registry) language(name string) (*sitter.Language, error) {
	r.mu.RLock()
	tsLang, ok := r.langs[name]
	r.mu.RUnlock()
	if ok {
		return tsLang, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.langs[name]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(name)
		if err != nil {
			return nil, fmt.Errorf("load grammar %s: %w", name, err)
		}
		if loaded == nil {
			return nil, fmt.Errorf("load grammar %s: loader returned no language", name)
		}

		r.mu.Lock()
		r.langs[name] = loaded
		r.mu.Unlock()
		log.Debugf("loaded grammar %s", name)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sitter.Language), nil
}

// ForestLoader loads grammars bundled with go-sitter-forest.
func ForestLoader(name string) (lang *sitter.Language, err error) {
	defer func() {
		if r := recover(); r != nil {
			lang, err = nil, fmt.Errorf("grammar %s not available: %v", name, r)
		}
	}()

	lang = forest.GetLanguage(name)
	if lang == nil {
		return nil, fmt.Errorf("grammar %s not available", name)
	}
	return lang, nil
}

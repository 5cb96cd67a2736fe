// Package parser is the entry point: it turns source code and a language
// identifier into a syntax.Program.
//
//	prog, err := parser.Parse(`console.log("hi");`, "javascript")
//
// Syntactically invalid source is not an error; it yields a Program with
// HasError set. Errors are reserved for unknown languages
// (grammar.ErrUnsupportedLanguage) and engine contract violations
// (syntax.ErrInvalidTree).
package parser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/uniast/engine/treesitter"
	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/syntax"
)

var log = commonlog.GetLogger("uniast.parser")

// Tree is a concrete syntax tree owned by the engine that produced it.
type Tree interface {
	Root() syntax.ConcreteNode
	Close()
}

// Engine builds concrete syntax trees. Implementations must be safe for
// concurrent use.
type Engine interface {
	Parse(ctx context.Context, code []byte, g *grammar.Grammar) (Tree, error)
}

type treeSitterEngine struct {
	e *treesitter.Engine
}

func (t treeSitterEngine) Parse(ctx context.Context, code []byte, g *grammar.Grammar) (Tree, error) {
	tree, err := t.e.Parse(ctx, code, g)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Resolver maps language identifiers to grammars.
type Resolver interface {
	Resolve(id string) (*grammar.Grammar, error)
}

type Option func(*Parser)

func WithResolver(r Resolver) Option {
	return func(p *Parser) {
		p.resolver = r
	}
}

func WithEngine(e Engine) Option {
	return func(p *Parser) {
		p.engine = e
	}
}

// Parser combines a grammar resolver with an engine. It holds no per-call
// state and is safe for concurrent use.
type Parser struct {
	resolver Resolver
	engine   Engine
}

// New returns a parser backed by the default grammar registry and a
// tree-sitter engine, unless overridden by options.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = grammar.Default()
	}
	if p.engine == nil {
		p.engine = treeSitterEngine{treesitter.New()}
	}
	return p
}

var (
	defaultOnce   sync.Once
	defaultParser *Parser
)

// Default returns the process-wide parser.
func Default() *Parser {
	defaultOnce.Do(func() {
		defaultParser = New()
	})
	return defaultParser
}

// Parse parses code with the default parser.
func Parse(code, languageID string) (*syntax.Program, error) {
	return Default().Parse(context.Background(), code, languageID)
}

// ParseContext parses code with the default parser.
func ParseContext(ctx context.Context, code, languageID string) (*syntax.Program, error) {
	return Default().Parse(ctx, code, languageID)
}

// Parse resolves languageID and normalizes the engine's tree for code.
func (p *Parser) Parse(ctx context.Context, code, languageID string) (*syntax.Program, error) {
	g, err := p.resolver.Resolve(languageID)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	tree, err := p.engine.Parse(ctx, []byte(code), g)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", g.ID, err)
	}
	defer tree.Close()

	prog, err := syntax.Normalize(code, tree.Root())
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", g.ID, err)
	}

	log.Debugf("parsed %d bytes of %s in %s (has_error=%t)", len(code), g.ID, time.Since(began), prog.HasError)
	return prog, nil
}

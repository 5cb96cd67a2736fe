// Package treesitter adapts tree-sitter syntax trees to syntax.ConcreteNode.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fortio.org/safecast"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/syntax"
)

var errNoRootNode = errors.New("tree-sitter: no root node")

// Engine parses source text with tree-sitter. Parsers are not safe for
// concurrent use, so every call takes its own parser from a pool kept per
// grammar and returns it afterwards.
type Engine struct {
	mu    sync.Mutex
	pools map[string]*sync.Pool
}

func New() *Engine {
	return &Engine{pools: make(map[string]*sync.Pool)}
}

func (e *Engine) pool(g *grammar.Grammar) *sync.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pools[g.Name]
	if !ok {
		lang := g.Language()
		p = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)
				return tsParser
			},
		}
		e.pools[g.Name] = p
	}
	return p
}

// Parse builds the concrete syntax tree of code. The caller must Close the
// returned tree once it has finished reading it.
func (e *Engine) Parse(ctx context.Context, code []byte, g *grammar.Grammar) (*Tree, error) {
	if g == nil || g.Language() == nil {
		return nil, fmt.Errorf("tree-sitter: grammar not loaded")
	}

	pool := e.pool(g)
	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("tree-sitter: pool returned unexpected type")
	}
	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: parse %s: %w", g.Name, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()
		return nil, errNoRootNode
	}
	return &Tree{tree: tree, root: root}, nil
}

// Tree owns a tree-sitter tree.
type Tree struct {
	tree *sitter.Tree
	root sitter.Node
}

func (t *Tree) Root() syntax.ConcreteNode {
	return node{t.root}
}

func (t *Tree) Close() {
	t.tree.Close()
}

// node exposes a tree-sitter node through syntax.ConcreteNode.
//
// Both ERROR nodes and MISSING nodes count as error nodes. A MISSING node is
// a zero-width token the parser inserted during error recovery; its kind is
// the token it expected, e.g. ";" or ")".
type node struct {
	n sitter.Node
}

func (x node) Kind() string {
	return x.n.Type()
}

func (x node) StartByte() int {
	return toOffset(x.n.StartByte())
}

func (x node) EndByte() int {
	return toOffset(x.n.EndByte())
}

func (x node) IsError() bool {
	return x.n.IsError() || x.n.IsMissing()
}

func (x node) ChildCount() int {
	count, err := safecast.Conv[int](x.n.ChildCount())
	if err != nil {
		return 0
	}
	return count
}

func (x node) Child(i int) syntax.ConcreteNode {
	idx, err := indexOf(x.n.ChildCount(), i)
	if err != nil {
		return nil
	}
	child := x.n.Child(idx)
	if child.IsNull() {
		return nil
	}
	return node{child}
}

// indexOf converts i to the engine's child index type, taken from count.
func indexOf[T safecast.Integer](_ T, i int) (T, error) {
	return safecast.Conv[T](i)
}

// toOffset converts an engine offset; values that do not fit an int are
// reported as -1, which the normalizer rejects.
func toOffset[T safecast.Integer](v T) int {
	offset, err := safecast.Conv[int](v)
	if err != nil {
		return -1
	}
	return offset
}

package syntax

// ConcreteNode is the view of a grammar engine's syntax node the normalizer
// needs. Implementations wrap the engine's native node; tests build them
// directly.
type ConcreteNode interface {
	// Kind is the grammar's type name, or the literal text of an
	// anonymous token.
	Kind() string
	StartByte() int
	EndByte() int
	// IsError reports whether the engine flagged this node itself as
	// malformed or synthesized by error recovery.
	IsError() bool
	ChildCount() int
	Child(i int) ConcreteNode
}

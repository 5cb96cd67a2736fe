// Package syntax holds the language-agnostic tree shape produced for every
// grammar, and the normalizer that builds it from a concrete syntax tree.
package syntax

import "strings"

// Program is the result of parsing one source text.
type Program struct {
	HasError bool      `json:"has_error" msgpack:"has_error"`
	Root     *TreeNode `json:"root" msgpack:"root"`
}

// TreeNode is one normalized syntax-tree node.
//
// Value is always the source slice [Start, End). Children is nil for a
// terminal node and never an empty slice.
type TreeNode struct {
	Kind     string      `json:"kind" msgpack:"kind"`
	Value    string      `json:"value" msgpack:"value"`
	Start    int         `json:"start" msgpack:"start"`
	End      int         `json:"end" msgpack:"end"`
	IsError  bool        `json:"is_error" msgpack:"is_error"`
	Children []*TreeNode `json:"children" msgpack:"children"`
}

// IsLeaf reports whether n is a terminal node.
func (n *TreeNode) IsLeaf() bool {
	return n.Children == nil
}

func (n *TreeNode) FirstChildOfKind(kind string) *TreeNode {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *TreeNode) ChildrenOfKind(kind string) []*TreeNode {
	var result []*TreeNode
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Kinds returns the kinds of n's direct children in order.
func (n *TreeNode) Kinds() []string {
	if n.Children == nil {
		return nil
	}
	kinds := make([]string, len(n.Children))
	for i, child := range n.Children {
		kinds[i] = child.Kind
	}
	return kinds
}

func (n *TreeNode) String() string {
	var b strings.Builder
	Walk(n, func(node *TreeNode, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(node.Kind)
		if node.IsError {
			b.WriteString(" ERROR")
		}
		if node.IsLeaf() {
			b.WriteString(" ")
			b.WriteString(quote(node.Value))
		}
		b.WriteString("\n")
		return true
	})
	return b.String()
}

// Count returns the number of nodes in the tree rooted at n.
func (n *TreeNode) Count() int {
	count := 0
	Walk(n, func(*TreeNode, int) bool {
		count++
		return true
	})
	return count
}

func quote(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\t", "\\t", "\r", "\\r", `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

package syntax

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is returned when a concrete tree cannot be interpreted,
// which means the engine and this package disagree about the tree contract.
// Malformed source never produces it.
var ErrInvalidTree = errors.New("invalid concrete tree")

type frame struct {
	node ConcreteNode
	slot  **TreeNode
	depth int
}

// Normalize converts the concrete tree rooted at root into a Program.
//
// The walk is pre-order and uses an explicit stack, so arbitrarily deep
// trees do not grow the goroutine stack.
func Normalize(code string, root ConcreteNode) (*Program, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrInvalidTree)
	}

	prog := &Program{}
	stack := []frame{{node: root, slot: &prog.Root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		start, end := f.node.StartByte(), f.node.EndByte()
		if start < 0 || start > end || end > len(code) {
			return nil, fmt.Errorf("%w: node %q at depth %d has range [%d, %d) outside source of length %d",
				ErrInvalidTree, f.node.Kind(), f.depth, start, end, len(code))
		}

		n := &TreeNode{
			Kind:    f.node.Kind(),
			Value:   code[start:end],
			Start:   start,
			End:     end,
			IsError: f.node.IsError(),
		}
		*f.slot = n
		if n.IsError {
			prog.HasError = true
		}

		count := f.node.ChildCount()
		if count <= 0 {
			continue
		}
		n.Children = make([]*TreeNode, count)
		for i := count - 1; i >= 0; i-- {
			child := f.node.Child(i)
			if child == nil {
				return nil, fmt.Errorf("%w: node %q at depth %d has nil child %d", ErrInvalidTree, n.Kind, f.depth, i)
			}
			stack = append(stack, frame{node: child, slot: &n.Children[i], depth: f.depth + 1})
		}
	}

	return prog, nil
}

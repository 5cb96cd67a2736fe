package syntax

import "fmt"

// Problem is one violation of the tree invariants found by Check.
type Problem struct {
	Node    *TreeNode
	Message string
}

func (p Problem) String() string {
	if p.Node == nil {
		return p.Message
	}
	return fmt.Sprintf("%s [%d-%d]: %s", p.Node.Kind, p.Node.Start, p.Node.End, p.Message)
}

// Check verifies that prog is a well-formed tree over code: every value is
// the source slice of its range, ranges are in bounds, children are non-empty
// when present, sibling ranges are ordered and disjoint, parents contain their
// children, and HasError is the OR of every IsError.
func Check(code string, prog *Program) []Problem {
	if prog == nil || prog.Root == nil {
		return []Problem{{Message: "program has no root"}}
	}

	var problems []Problem
	report := func(n *TreeNode, format string, args ...any) {
		problems = append(problems, Problem{Node: n, Message: fmt.Sprintf(format, args...)})
	}

	anyError := false
	Walk(prog.Root, func(n *TreeNode, _ int) bool {
		if n.IsError {
			anyError = true
		}
		if n.Start < 0 || n.Start > n.End || n.End > len(code) {
			report(n, "range out of bounds for source of length %d", len(code))
			return false
		}
		if n.Value != code[n.Start:n.End] {
			report(n, "value %q does not match source slice %q", n.Value, code[n.Start:n.End])
		}
		if n.Children != nil && len(n.Children) == 0 {
			report(n, "empty children slice, want nil")
		}
		prevEnd := n.Start
		for i, child := range n.Children {
			if child == nil {
				report(n, "child %d is nil", i)
				return false
			}
			if child.Start < prevEnd {
				report(child, "starts at %d before previous sibling or parent boundary %d", child.Start, prevEnd)
			}
			if child.End > n.End {
				report(child, "ends at %d past parent end %d", child.End, n.End)
			}
			if child.End > prevEnd {
				prevEnd = child.End
			}
		}
		return true
	})

	if anyError != prog.HasError {
		problems = append(problems, Problem{
			Message: fmt.Sprintf("has_error is %t but error nodes present is %t", prog.HasError, anyError),
		})
	}
	return problems
}

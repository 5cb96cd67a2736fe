package syntax

// Walk visits the tree rooted at n in pre-order. fn receives each node and
// its depth below n; returning false skips that node's children.
func Walk(n *TreeNode, fn func(node *TreeNode, depth int) bool) {
	if n == nil {
		return
	}
	type item struct {
		node  *TreeNode
		depth int
	}
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.node, it.depth) {
			continue
		}
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}
}

// ErrorNodes returns the outermost error nodes of the tree, in source order.
// Error nodes nested inside another error node are not reported separately.
func ErrorNodes(root *TreeNode) []*TreeNode {
	var result []*TreeNode
	Walk(root, func(n *TreeNode, _ int) bool {
		if n.IsError {
			result = append(result, n)
			return false
		}
		return true
	})
	return result
}

// NodeAt returns the chain of nodes from root down to the deepest node whose
// range contains offset. A node contains offset when start <= offset < end,
// or when it is empty and starts at offset. It returns nil if root does not
// contain offset.
func NodeAt(root *TreeNode, offset int) []*TreeNode {
	if root == nil || !contains(root, offset) {
		return nil
	}
	path := []*TreeNode{root}
	for cur := root; ; {
		var next *TreeNode
		for _, child := range cur.Children {
			if contains(child, offset) {
				next = child
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		cur = next
	}
}

func contains(n *TreeNode, offset int) bool {
	if n.Start == n.End {
		return offset == n.Start
	}
	return n.Start <= offset && offset < n.End
}

package syntax

import "strings"

const synopsisSnippetLen = 60

// Synopsis is a structural summary of a Program.
type Synopsis struct {
	Language   string         `json:"language" msgpack:"language"`
	HasError   bool           `json:"has_error" msgpack:"has_error"`
	NodeCount  int            `json:"node_count" msgpack:"node_count"`
	Depth      int            `json:"depth" msgpack:"depth"`
	ErrorCount int            `json:"error_count" msgpack:"error_count"`
	Errors     []SpanSummary  `json:"errors" msgpack:"errors"`
	Outline    []OutlineEntry `json:"outline" msgpack:"outline"`
}

type SpanSummary struct {
	Kind  string `json:"kind" msgpack:"kind"`
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
	Value string `json:"value" msgpack:"value"`
}

// OutlineEntry describes one top-level construct of the program.
type OutlineEntry struct {
	Kind  string `json:"kind" msgpack:"kind"`
	Name  string `json:"name" msgpack:"name"`
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
}

// Summarize computes the Synopsis of prog. Errors and Outline are empty
// slices rather than nil so that they encode as arrays.
func Summarize(language string, prog *Program) *Synopsis {
	s := &Synopsis{
		Language: language,
		HasError: prog.HasError,
		Errors:   []SpanSummary{},
		Outline:  []OutlineEntry{},
	}

	Walk(prog.Root, func(n *TreeNode, depth int) bool {
		s.NodeCount++
		if depth+1 > s.Depth {
			s.Depth = depth + 1
		}
		return true
	})

	for _, n := range ErrorNodes(prog.Root) {
		s.Errors = append(s.Errors, SpanSummary{Kind: n.Kind, Start: n.Start, End: n.End, Value: snippet(n.Value)})
	}
	s.ErrorCount = len(s.Errors)

	if prog.Root != nil {
		for _, child := range prog.Root.Children {
			if child.IsLeaf() {
				continue
			}
			s.Outline = append(s.Outline, OutlineEntry{
				Kind:  child.Kind,
				Name:  outlineName(child),
				Start: child.Start,
				End:   child.End,
			})
		}
	}
	return s
}

// outlineName picks the first identifier-like descendant, searching breadth
// first so that a declaration's own name wins over names in its body.
func outlineName(n *TreeNode) string {
	queue := append([]*TreeNode(nil), n.Children...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.IsLeaf() && isNameKind(cur.Kind) {
			return cur.Value
		}
		queue = append(queue, cur.Children...)
	}
	return snippet(n.Value)
}

func isNameKind(kind string) bool {
	return strings.HasSuffix(kind, "identifier") || kind == "name" || kind == "constant"
}

func snippet(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > synopsisSnippetLen {
		cut := synopsisSnippetLen
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "…"
	}
	return s
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

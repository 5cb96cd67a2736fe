package lsp

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/uniast/syntax"
	"github.com/dhamidi/uniast/workspace"
)

// Diagnostics reports one error per outermost error node of doc.
func Diagnostics(doc *workspace.Document) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if doc.Program == nil {
		return diagnostics
	}

	index := syntax.NewLineIndex(string(doc.Content))
	severity := protocol.DiagnosticSeverityError
	source := lsName
	for _, n := range syntax.ErrorNodes(doc.Program.Root) {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    toRange(index, n.Start, n.End),
			Severity: &severity,
			Source:   &source,
			Message:  errorMessage(n),
		})
	}
	return diagnostics
}

func errorMessage(n *syntax.TreeNode) string {
	if n.Kind == "ERROR" {
		return "syntax error"
	}
	return "missing " + n.Kind
}

// Hover describes the chain of node kinds under pos, innermost last.
func Hover(doc *workspace.Document, pos protocol.Position) *protocol.Hover {
	if doc.Program == nil {
		return nil
	}
	index := syntax.NewLineIndex(string(doc.Content))
	offset := index.Offset(syntax.Position{Line: int(pos.Line), Column: int(pos.Character)})

	path := syntax.NodeAt(doc.Program.Root, offset)
	if len(path) == 0 {
		return nil
	}
	kinds := make([]string, len(path))
	for i, n := range path {
		kinds[i] = n.Kind
	}
	inner := path[len(path)-1]

	value := fmt.Sprintf("`%s`", strings.Join(kinds, " > "))
	if inner.IsError {
		value += "\n\n" + errorMessage(inner)
	}
	r := toRange(index, inner.Start, inner.End)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
		Range: &r,
	}
}

func toRange(index *syntax.LineIndex, start, end int) protocol.Range {
	return protocol.Range{
		Start: toPosition(index.Position(start)),
		End:   toPosition(index.Position(end)),
	}
}

func toPosition(p syntax.Position) protocol.Position {
	line, err := safecast.Conv[protocol.UInteger](p.Line)
	if err != nil {
		line = 0
	}
	char, err := safecast.Conv[protocol.UInteger](p.Column)
	if err != nil {
		char = 0
	}
	return protocol.Position{Line: line, Character: char}
}

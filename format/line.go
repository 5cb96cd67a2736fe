package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/uniast/syntax"
)

// LineEncoder writes one tab separated record per node in pre-order:
//
//	depth	kind	start	end	error	value
//
// error is "error" or "-". value is Go-quoted and only present for leaves,
// so every record fits on one line and can be processed with cut or awk.
type LineEncoder struct {
	w    io.Writer
	prog *syntax.Program
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(prog *syntax.Program) error {
	e.prog = prog
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	if e.prog == nil || e.prog.Root == nil {
		return nil, fmt.Errorf("lines: program has no root")
	}

	var sb strings.Builder
	syntax.Walk(e.prog.Root, func(n *syntax.TreeNode, depth int) bool {
		fmt.Fprintf(&sb, "%d\t%s\t%d\t%d\t%s\t%s\n",
			depth,
			n.Kind,
			n.Start,
			n.End,
			errorField(n),
			valueField(n),
		)
		return true
	})
	return []byte(sb.String()), nil
}

func errorField(n *syntax.TreeNode) string {
	if n.IsError {
		return "error"
	}
	return "-"
}

func valueField(n *syntax.TreeNode) string {
	if !n.IsLeaf() {
		return ""
	}
	return strconv.Quote(n.Value)
}

package format

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/dhamidi/uniast/syntax"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	kindColor  = color.New(color.FgCyan)
	spanColor  = color.New(color.Faint)
	valueColor = color.New(color.FgGreen)
)

// TreeEncoder writes one line per node, indented by depth:
//
//	kind [start-end] "leaf value"
//
// Error nodes are marked with ERROR. Colors follow fatih/color's terminal
// detection.
type TreeEncoder struct {
	w    io.Writer
	prog *syntax.Program
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(prog *syntax.Program) error {
	e.prog = prog
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	if e.prog == nil || e.prog.Root == nil {
		return nil, fmt.Errorf("tree: program has no root")
	}

	var buf bytes.Buffer
	if e.prog.HasError {
		buf.WriteString(errorColor.Sprint("# has_error: true"))
	} else {
		buf.WriteString("# has_error: false")
	}
	buf.WriteByte('\n')

	syntax.Walk(e.prog.Root, func(n *syntax.TreeNode, depth int) bool {
		buf.WriteString(strings.Repeat("  ", depth))
		if n.IsError {
			buf.WriteString(errorColor.Sprint(n.Kind))
			buf.WriteString(" ")
			buf.WriteString(errorColor.Sprint("ERROR"))
		} else {
			buf.WriteString(kindColor.Sprint(n.Kind))
		}
		buf.WriteString(" ")
		buf.WriteString(spanColor.Sprintf("[%d-%d]", n.Start, n.End))
		if n.IsLeaf() {
			buf.WriteString(" ")
			buf.WriteString(valueColor.Sprint(strconv.Quote(n.Value)))
		}
		buf.WriteByte('\n')
		return true
	})
	return buf.Bytes(), nil
}

// Package format encodes syntax.Program values for output.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/uniast/syntax"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(prog *syntax.Program) error
}

// Names lists the formats accepted by New.
var Names = []string{"json", "tree", "lines", "msgpack"}

// New returns the encoder registered under name.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "json":
		return NewJSONEncoder(w), nil
	case "tree":
		return NewTreeEncoder(w), nil
	case "lines":
		return NewLineEncoder(w), nil
	case "msgpack":
		return NewMsgpackEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected one of json, tree, lines, msgpack)", name)
	}
}

package format

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/dhamidi/uniast/syntax"
)

// JSONEncoder writes the wire form of a Program: keys has_error, root, kind,
// value, start, end, is_error and children, with children null for leaves.
type JSONEncoder struct {
	w      io.Writer
	prog   *syntax.Program
	indent string
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

// SetIndent makes the encoder pretty-print with the given indent.
func (e *JSONEncoder) SetIndent(indent string) *JSONEncoder {
	e.indent = indent
	return e
}

func (e *JSONEncoder) Encode(prog *syntax.Program) error {
	e.prog = prog
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

// MarshalText encodes the last program passed to Encode, followed by a
// newline. HTML characters in source text are not escaped.
func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return MarshalJSON(e.prog, e.indent)
}

// MarshalJSON encodes v the same way JSONEncoder does.
func MarshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

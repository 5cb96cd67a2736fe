package format

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dhamidi/uniast/syntax"
)

// MsgpackEncoder writes a Program as MessagePack using the same keys as the
// JSON form. Leaf children encode as nil.
type MsgpackEncoder struct {
	w    io.Writer
	prog *syntax.Program
}

func NewMsgpackEncoder(w io.Writer) *MsgpackEncoder {
	return &MsgpackEncoder{w: w}
}

func (e *MsgpackEncoder) Encode(prog *syntax.Program) error {
	e.prog = prog
	data, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

func (e *MsgpackEncoder) MarshalText() ([]byte, error) {
	return MarshalMsgpack(e.prog)
}

func MarshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack reads a Program written by MsgpackEncoder.
func DecodeMsgpack(r io.Reader) (*syntax.Program, error) {
	var prog syntax.Program
	if err := msgpack.NewDecoder(r).Decode(&prog); err != nil {
		return nil, err
	}
	return &prog, nil
}

package syntax

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and column. Column counts UTF-16 code
// units, which is what editors speaking LSP expect.
type Position struct {
	Line   int
	Column int
}

// LineIndex maps byte offsets of one source text to positions and back.
type LineIndex struct {
	code  string
	lines []int // byte offset of the start of each line
}

func NewLineIndex(code string) *LineIndex {
	lines := []int{0}
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &LineIndex{code: code, lines: lines}
}

// Position converts a byte offset. Offsets past the end clamp to the end.
func (x *LineIndex) Position(offset int) Position {
	offset = max(0, min(offset, len(x.code)))
	line := sort.Search(len(x.lines), func(i int) bool { return x.lines[i] > offset }) - 1
	col := 0
	for _, r := range x.code[x.lines[line]:offset] {
		col += utf16.RuneLen(r)
	}
	return Position{Line: line, Column: col}
}

// Offset converts a position back to a byte offset. Columns past the end
// of the line clamp to the line end.
func (x *LineIndex) Offset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(x.lines) {
		return len(x.code)
	}
	start := x.lines[pos.Line]
	end := len(x.code)
	if pos.Line+1 < len(x.lines) {
		end = x.lines[pos.Line+1] - 1
	}
	offset, col := start, 0
	for offset < end && col < pos.Column {
		r, size := utf8.DecodeRuneInString(x.code[offset:])
		col += utf16.RuneLen(r)
		offset += size
	}
	return offset
}

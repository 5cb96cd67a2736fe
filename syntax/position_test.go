package syntax

import "testing"

func TestLineIndex(t *testing.T) {
	code := "ab\n€x\n\n😀y"
	x := NewLineIndex(code)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{2, Position{0, 2}},
		{3, Position{1, 0}},
		{6, Position{1, 1}}, // after the 3-byte euro sign
		{7, Position{1, 2}},
		{8, Position{2, 0}},
		{9, Position{3, 0}},
		{13, Position{3, 2}}, // the emoji is two UTF-16 units
		{14, Position{3, 3}},
		{99, Position{3, 3}},
	}
	for _, tt := range tests {
		if got := x.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
		if tt.offset <= len(code) {
			if back := x.Offset(tt.want); back != tt.offset {
				t.Errorf("Offset(%+v) = %d, want %d", tt.want, back, tt.offset)
			}
		}
	}

	if got := x.Offset(Position{Line: 0, Column: 50}); got != 2 {
		t.Errorf("Offset past line end = %d, want 2", got)
	}
	if got := x.Offset(Position{Line: 9}); got != len(code) {
		t.Errorf("Offset past last line = %d, want %d", got, len(code))
	}
}

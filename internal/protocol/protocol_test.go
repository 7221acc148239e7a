package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"filler/internal/game"
)

const sampleTurn = `Anfield 5 3:
    01234
000 .....
001 .@...
002 ....$
Piece 2 2:
OO
.O
`

func TestReadPlayer(t *testing.T) {
	tests := []struct {
		line string
		want game.Player
		err  error
	}{
		{"$$$ exec p1 : [robots/bender]", game.Player1, nil},
		{"$$$ exec p2 : [solution/filler]", game.Player2, nil},
		{"$$$ exec p9 : [x]", 0, game.ErrUnknownPlayer},
	}
	for _, tt := range tests {
		r := NewReader(strings.NewReader(tt.line + "\n"))
		got, err := r.ReadPlayer()
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ReadPlayer(%q) = %v, %v", tt.line, got, err)
		}
	}
}

func TestReadTurn(t *testing.T) {
	r := NewReader(strings.NewReader("$$$ exec p1 : [bot]\n" + sampleTurn + sampleTurn))
	if _, err := r.ReadPlayer(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		turn, err := r.ReadTurn()
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if turn.Grid.Width() != 5 || turn.Grid.Height() != 3 {
			t.Errorf("grid size %dx%d", turn.Grid.Width(), turn.Grid.Height())
		}
		if turn.Grid.At(1, 1) != game.CellP1 || turn.Grid.At(2, 4) != game.CellP2 {
			t.Error("grid cells parsed wrong")
		}
		if turn.Piece.Width() != 2 || turn.Piece.Height() != 2 || turn.Piece.Filled(1, 0) || !turn.Piece.Filled(1, 1) {
			t.Error("piece parsed wrong")
		}
	}
	if _, err := r.ReadTurn(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadTurnErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"truncated anfield", "Anfield 5 3:\n    01234\n000 .....\n", ErrTruncated},
		{"missing piece", "Anfield 1 1:\n    0\n000 @\n", ErrTruncated},
		{"bad header", "Anfield five 3:\n", ErrBadHeader},
		{"short row", "Anfield 5 1:\n    01234\n000 ..\n", ErrShortRow},
		{"short piece row", "Anfield 1 1:\n    0\n000 @\nPiece 3 1:\nO\n", ErrShortRow},
		{"unknown symbol", "Anfield 2 1:\n    01\n000 .x\nPiece 1 1:\nO\n", game.ErrUnknownSymbol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).ReadTurn()
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
		})
	}
}

func TestWriteMove(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMove(&buf, game.Placement{Row: 7, Col: 3}, true); err != nil {
		t.Fatal(err)
	}
	if err := WriteMove(&buf, game.Placement{Row: 7, Col: 3}, false); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "3 7\n0 0\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

package game

import (
	"errors"
	"strings"
)

// Cell is a single Anfield symbol.
type Cell byte

const (
	CellEmpty Cell = '.'
	CellP1    Cell = '@'
	CellP1New Cell = 'a'
	CellP2    Cell = '$'
	CellP2New Cell = 's'
)

const pieceEmpty = '.'

var (
	ErrEmptyGrid     = errors.New("grid has no cells")
	ErrEmptyPiece    = errors.New("piece has no cells")
	ErrRaggedRows    = errors.New("rows have different lengths")
	ErrUnknownSymbol = errors.New("unknown grid symbol")
	ErrUnknownPlayer = errors.New("unknown player")
)

type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

// SymbolPair holds the claimed and newly placed symbols of one side.
type SymbolPair [2]Cell

func (s SymbolPair) Contains(c Cell) bool {
	return c == s[0] || c == s[1]
}

// Symbols is the fixed per-player binding of own and opponent territory.
type Symbols struct {
	Own      SymbolPair
	Opponent SymbolPair
}

func (p Player) Symbols() Symbols {
	if p == Player2 {
		return Symbols{Own: SymbolPair{CellP2, CellP2New}, Opponent: SymbolPair{CellP1, CellP1New}}
	}
	return Symbols{Own: SymbolPair{CellP1, CellP1New}, Opponent: SymbolPair{CellP2, CellP2New}}
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "p1"
	case Player2:
		return "p2"
	}
	return "unknown"
}

// ParsePlayer accepts "p1" or "p2".
func ParsePlayer(s string) (Player, error) {
	switch strings.TrimSpace(s) {
	case "p1":
		return Player1, nil
	case "p2":
		return Player2, nil
	}
	return 0, ErrUnknownPlayer
}

// Placement is the top-left anchor of a piece on the grid.
type Placement struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is the Anfield. Every row has exactly Width cells.
type Grid struct {
	width  int
	height int
	cells  [][]Cell
}

// NewGrid builds a grid from one string per row.
func NewGrid(rows []string) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, ErrEmptyGrid
	}
	width := len(rows[0])
	cells := make([][]Cell, len(rows))
	for r, row := range rows {
		if len(row) != width {
			return Grid{}, ErrRaggedRows
		}
		cells[r] = make([]Cell, width)
		for c := 0; c < width; c++ {
			cell := Cell(row[c])
			switch cell {
			case CellEmpty, CellP1, CellP1New, CellP2, CellP2New:
			default:
				return Grid{}, ErrUnknownSymbol
			}
			cells[r][c] = cell
		}
	}
	return Grid{width: width, height: len(rows), cells: cells}, nil
}

func (g Grid) Width() int  { return g.width }
func (g Grid) Height() int { return g.height }

func (g Grid) At(row, col int) Cell {
	return g.cells[row][col]
}

// Piece is a rectangular mask of filled cells.
type Piece struct {
	width  int
	height int
	filled [][]bool
}

// NewPiece builds a piece from one string per row. '.' is empty, anything
// else is filled.
func NewPiece(rows []string) (Piece, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Piece{}, ErrEmptyPiece
	}
	width := len(rows[0])
	filled := make([][]bool, len(rows))
	for r, row := range rows {
		if len(row) != width {
			return Piece{}, ErrRaggedRows
		}
		filled[r] = make([]bool, width)
		for c := 0; c < width; c++ {
			filled[r][c] = row[c] != pieceEmpty
		}
	}
	return Piece{width: width, height: len(rows), filled: filled}, nil
}

func (p Piece) Width() int  { return p.width }
func (p Piece) Height() int { return p.height }

func (p Piece) Filled(row, col int) bool {
	return p.filled[row][col]
}

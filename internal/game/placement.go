package game

import "math"

// FindValidPlacements returns every anchor where the piece fits inside the
// grid, touches exactly one own cell and no opponent cell. Anchors are in
// row-major order.
func FindValidPlacements(g Grid, p Piece, sym Symbols) []Placement {
	var valid []Placement
	for row := 0; row+p.height <= g.height; row++ {
		for col := 0; col+p.width <= g.width; col++ {
			if legalAt(g, p, sym, row, col) {
				valid = append(valid, Placement{Row: row, Col: col})
			}
		}
	}
	return valid
}

func legalAt(g Grid, p Piece, sym Symbols, row, col int) bool {
	overlap := 0
	for dy := 0; dy < p.height; dy++ {
		for dx := 0; dx < p.width; dx++ {
			if !p.filled[dy][dx] {
				continue
			}
			cell := g.cells[row+dy][col+dx]
			if sym.Own.Contains(cell) {
				overlap++
			} else if sym.Opponent.Contains(cell) {
				return false
			}
		}
	}
	return overlap == 1
}

// OpponentCells lists every coordinate holding an opponent symbol.
func OpponentCells(g Grid, opponent SymbolPair) []Placement {
	var cells []Placement
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			if opponent.Contains(g.cells[row][col]) {
				cells = append(cells, Placement{Row: row, Col: col})
			}
		}
	}
	return cells
}

// Distance is the Manhattan distance between two coordinates.
func Distance(a, b Placement) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// SelectMove picks the candidate whose anchor is closest to any opponent
// cell. Ties keep the earliest candidate. With no opponent on the board all
// scores are equal and the first candidate wins.
func SelectMove(g Grid, opponent SymbolPair, candidates []Placement) (Placement, bool) {
	if len(candidates) == 0 {
		return Placement{}, false
	}
	targets := OpponentCells(g, opponent)
	best, bestScore := candidates[0], math.MaxInt
	for i, c := range candidates {
		score := nearest(c, targets)
		if i == 0 || score < bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}

func nearest(from Placement, targets []Placement) int {
	best := math.MaxInt
	for _, t := range targets {
		if d := Distance(from, t); d < best {
			best = d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

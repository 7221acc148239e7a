package game

import "time"

// Bot plays one side of a game. It looks one ply ahead only: every legal
// placement is scored by how close it lands to the opponent.
type Bot struct {
	Player  Player
	symbols Symbols
}

// Decision is the outcome of one turn.
type Decision struct {
	Placement  Placement
	Pass       bool
	Candidates int
	Elapsed    time.Duration
}

func NewBot(player Player) *Bot {
	return &Bot{Player: player, symbols: player.Symbols()}
}

func (b *Bot) ChooseMove(g Grid, p Piece) Decision {
	start := time.Now()
	candidates := FindValidPlacements(g, p, b.symbols)
	move, ok := SelectMove(g, b.symbols.Opponent, candidates)
	return Decision{
		Placement:  move,
		Pass:       !ok,
		Candidates: len(candidates),
		Elapsed:    time.Since(start),
	}
}

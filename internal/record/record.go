// Package record fans a session's turns and its end out to the archive and
// the analytics topic.
package record

import (
	"context"

	"filler/internal/analytics"
	"filler/internal/game"
	"filler/internal/storage"
)

type Recorder struct {
	Store     storage.Store
	Analytics *analytics.Producer
}

func (r *Recorder) Turn(ctx context.Context, s game.Session, d game.Decision) {
	elapsedMs := float64(d.Elapsed.Microseconds()) / 1000
	if r.Store != nil {
		_ = r.Store.SaveTurn(ctx, storage.TurnRecord{
			SessionID:  s.ID,
			Turn:       s.Turns,
			Row:        d.Placement.Row,
			Col:        d.Placement.Col,
			Pass:       d.Pass,
			Candidates: d.Candidates,
			ElapsedMs:  elapsedMs,
			PlayedAt:   s.LastMoveAt,
		})
	}
	r.Analytics.Publish(ctx, analytics.EventTurnPlayed, map[string]any{
		"sessionId":  s.ID,
		"player":     s.Player.String(),
		"turn":       s.Turns,
		"row":        d.Placement.Row,
		"col":        d.Placement.Col,
		"pass":       d.Pass,
		"candidates": d.Candidates,
		"elapsedMs":  elapsedMs,
	})
}

func (r *Recorder) Finish(ctx context.Context, s game.Session) {
	if r.Store != nil {
		_ = r.Store.SaveSession(ctx, storage.CompletedSession{
			ID:        s.ID,
			Player:    s.Player.String(),
			Turns:     s.Turns,
			Passes:    s.Passes,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
		})
	}
	r.Analytics.Publish(ctx, analytics.EventSessionFinished, map[string]any{
		"sessionId": s.ID,
		"player":    s.Player.String(),
		"turns":     s.Turns,
		"passes":    s.Passes,
		"duration":  s.EndedAt.Sub(s.StartedAt).Seconds(),
	})
}

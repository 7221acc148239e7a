package storage

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRecord is one decision the bot made.
type TurnRecord struct {
	SessionID  string
	Turn       int
	Row        int
	Col        int
	Pass       bool
	Candidates int
	ElapsedMs  float64
	PlayedAt   time.Time
}

type CompletedSession struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	Turns     int       `json:"turns"`
	Passes    int       `json:"passes"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

type Store interface {
	SaveTurn(ctx context.Context, turn TurnRecord) error
	SaveSession(ctx context.Context, session CompletedSession) error
	RecentSessions(ctx context.Context, limit int) ([]CompletedSession, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	player TEXT,
	turns INTEGER,
	passes INTEGER,
	started_at TIMESTAMP,
	ended_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL,
	turn INTEGER NOT NULL,
	row_idx INTEGER,
	col_idx INTEGER,
	pass BOOLEAN NOT NULL DEFAULT FALSE,
	candidates INTEGER,
	elapsed_ms DOUBLE PRECISION,
	played_at TIMESTAMP,
	PRIMARY KEY (session_id, turn)
);
CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);
`)
	return err
}

func (p *PostgresStore) SaveTurn(ctx context.Context, t TurnRecord) error {
	if p == nil || p.pool == nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO turns (session_id, turn, row_idx, col_idx, pass, candidates, elapsed_ms, played_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (session_id, turn) DO NOTHING`,
		t.SessionID, t.Turn, t.Row, t.Col, t.Pass, t.Candidates, t.ElapsedMs, t.PlayedAt)
	if err != nil {
		log.Printf("failed to save turn: %v", err)
	}
	return err
}

func (p *PostgresStore) SaveSession(ctx context.Context, s CompletedSession) error {
	if p == nil || p.pool == nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO sessions (id, player, turns, passes, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET turns = EXCLUDED.turns, passes = EXCLUDED.passes, ended_at = EXCLUDED.ended_at`,
		s.ID, s.Player, s.Turns, s.Passes, s.StartedAt, s.EndedAt)
	if err != nil {
		log.Printf("failed to save session: %v", err)
	}
	return err
}

func (p *PostgresStore) RecentSessions(ctx context.Context, limit int) ([]CompletedSession, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, player, turns, passes, started_at, ended_at
FROM sessions
ORDER BY ended_at DESC NULLS LAST
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CompletedSession
	for rows.Next() {
		var s CompletedSession
		if err := rows.Scan(&s.ID, &s.Player, &s.Turns, &s.Passes, &s.StartedAt, &s.EndedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// MemoryStore keeps everything in process. It is used when no database is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	turns    []TurnRecord
	sessions map[string]CompletedSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]CompletedSession)}
}

func (m *MemoryStore) SaveTurn(_ context.Context, t TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s CompletedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) RecentSessions(_ context.Context, limit int) ([]CompletedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]CompletedSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EndedAt.After(res[j].EndedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// Turns returns the turns recorded for one session in the order they were saved.
func (m *MemoryStore) Turns(sessionID string) []TurnRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []TurnRecord
	for _, t := range m.turns {
		if t.SessionID == sessionID {
			res = append(res, t)
		}
	}
	return res
}

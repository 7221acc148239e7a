package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives turns in a local file. It is meant for the bot running
// inside the game container where no database server is reachable.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.ensureTables(); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("turn archive initialized at", path)
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureTables() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		player TEXT,
		turns INTEGER,
		passes INTEGER,
		started_at DATETIME,
		ended_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS turns (
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		row_idx INTEGER,
		col_idx INTEGER,
		pass BOOLEAN NOT NULL DEFAULT 0,
		candidates INTEGER,
		elapsed_ms REAL,
		played_at DATETIME,
		PRIMARY KEY (session_id, turn)
	);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveTurn(ctx context.Context, t TurnRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO turns (session_id, turn, row_idx, col_idx, pass, candidates, elapsed_ms, played_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Turn, t.Row, t.Col, t.Pass, t.Candidates, t.ElapsedMs, t.PlayedAt)
	if err != nil {
		log.Printf("failed to save turn: %v", err)
	}
	return err
}

func (s *SQLiteStore) SaveSession(ctx context.Context, cs CompletedSession) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sessions (id, player, turns, passes, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		cs.ID, cs.Player, cs.Turns, cs.Passes, cs.StartedAt, cs.EndedAt)
	if err != nil {
		log.Printf("failed to save session: %v", err)
	}
	return err
}

func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]CompletedSession, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, player, turns, passes, started_at, ended_at
	FROM sessions
	ORDER BY ended_at DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CompletedSession
	for rows.Next() {
		var cs CompletedSession
		if err := rows.Scan(&cs.ID, &cs.Player, &cs.Turns, &cs.Passes, &cs.StartedAt, &cs.EndedAt); err != nil {
			return nil, err
		}
		res = append(res, cs)
	}
	return res, rows.Err()
}

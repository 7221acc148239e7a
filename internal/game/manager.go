package game

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session already finished")
)

// Session is one game seen from our side of the board.
type Session struct {
	ID         string
	Player     Player
	Status     string
	Turns      int
	Passes     int
	LastMove   Placement
	StartedAt  time.Time
	EndedAt    time.Time
	LastMoveAt time.Time
	bot        *Bot
}

type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	idleAfter time.Duration
	onFinish  func(Session)
}

func NewManager(idleAfter time.Duration, onFinish func(Session)) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		idleAfter: idleAfter,
		onFinish:  onFinish,
	}
}

func (m *Manager) Start(player Player) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		Player:     player,
		Status:     StatusActive,
		StartedAt:  now,
		LastMoveAt: now,
		bot:        NewBot(player),
	}
	m.sessions[s.ID] = s
	return *s
}

// Play runs the session's bot against one board snapshot.
func (m *Manager) Play(id string, g Grid, p Piece) (Decision, Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Decision{}, Session{}, ErrSessionNotFound
	}
	if s.Status == StatusFinished {
		return Decision{}, *s, ErrSessionFinished
	}
	d := s.bot.ChooseMove(g, p)
	s.Turns++
	if d.Pass {
		s.Passes++
	} else {
		s.LastMove = d.Placement
	}
	s.LastMoveAt = time.Now()
	return d, *s, nil
}

// Finish closes a session and runs the finish hook before returning.
func (m *Manager) Finish(id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}
	if s.Status == StatusFinished {
		m.mu.Unlock()
		return *s, ErrSessionFinished
	}
	s.Status = StatusFinished
	s.EndedAt = time.Now()
	snapshot := *s
	m.mu.Unlock()

	if m.onFinish != nil {
		m.onFinish(snapshot)
	}
	return snapshot, nil
}

func (m *Manager) Get(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// SweepIdle finishes sessions with no turn inside the idle window and
// forgets sessions that finished before it.
func (m *Manager) SweepIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, s := range m.sessions {
		if s.Status == StatusFinished {
			if now.Sub(s.EndedAt) > m.idleAfter {
				delete(m.sessions, id)
			}
			continue
		}
		if now.Sub(s.LastMoveAt) > m.idleAfter {
			s.Status = StatusFinished
			s.EndedAt = now
			if m.onFinish != nil {
				go m.onFinish(*s)
			}
			log.Printf("session %s closed after idle timeout (%d turns)", id, s.Turns)
		}
	}
}

package main

import (
	"log"
	"sync"
	"time"
)

type metrics struct {
	totalTurns      int
	passes          int
	candidates      int
	elapsedMs       float64
	sessions        int
	sessionTurns    int
	sessionDuration []float64
	sessionsPerDay  map[string]int
	playerSessions  map[string]int
	mu              sync.Mutex
}

func newMetrics() *metrics {
	return &metrics{
		sessionDuration: make([]float64, 0),
		sessionsPerDay:  make(map[string]int),
		playerSessions:  make(map[string]int),
	}
}

func (m *metrics) recordTurn(payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalTurns++
	if pass, ok := payload["pass"].(bool); ok && pass {
		m.passes++
	}
	if n, ok := payload["candidates"].(float64); ok {
		m.candidates += int(n)
	}
	if ms, ok := payload["elapsedMs"].(float64); ok {
		m.elapsedMs += ms
	}
}

func (m *metrics) recordSessionFinished(payload map[string]any, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions++
	if turns, ok := payload["turns"].(float64); ok {
		m.sessionTurns += int(turns)
	}
	if duration, ok := payload["duration"].(float64); ok {
		m.sessionDuration = append(m.sessionDuration, duration)
	}
	if player, ok := payload["player"].(string); ok && player != "" {
		m.playerSessions[player]++
	}
	m.sessionsPerDay[timestamp.Format("2006-01-02")]++
}

type summary struct {
	Turns          int
	PassRate       float64
	AvgCandidates  float64
	AvgDecisionMs  float64
	Sessions       int
	AvgTurns       float64
	AvgDurationSec float64
}

func (m *metrics) summary() summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := summary{Turns: m.totalTurns, Sessions: m.sessions}
	if m.totalTurns > 0 {
		s.PassRate = float64(m.passes) / float64(m.totalTurns)
		s.AvgCandidates = float64(m.candidates) / float64(m.totalTurns)
		s.AvgDecisionMs = m.elapsedMs / float64(m.totalTurns)
	}
	if m.sessions > 0 {
		s.AvgTurns = float64(m.sessionTurns) / float64(m.sessions)
	}
	if len(m.sessionDuration) > 0 {
		sum := 0.0
		for _, d := range m.sessionDuration {
			sum += d
		}
		s.AvgDurationSec = sum / float64(len(m.sessionDuration))
	}
	return s
}

func (m *metrics) printStats() {
	s := m.summary()
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Printf("=== FILLER SUMMARY ===")
	log.Printf("Turns: %d (pass rate %.2f)", s.Turns, s.PassRate)
	log.Printf("Average candidates per turn: %.2f", s.AvgCandidates)
	log.Printf("Average decision time: %.3f ms", s.AvgDecisionMs)
	log.Printf("Sessions: %d (avg %.1f turns, %.2f seconds)", s.Sessions, s.AvgTurns, s.AvgDurationSec)
	log.Printf("Sessions per player: %v", m.playerSessions)
	log.Printf("Sessions per day: %v", m.sessionsPerDay)
	log.Printf("======================")
}

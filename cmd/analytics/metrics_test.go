package main

import (
	"encoding/json"
	"testing"
	"time"

	"filler/internal/analytics"
)

func decode(t *testing.T, raw string) analytics.Event {
	t.Helper()
	var e analytics.Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestMetricsSummary(t *testing.T) {
	m := newMetrics()
	handle(m, decode(t, `{"event":"turn_played","payload":{"pass":false,"candidates":4,"elapsedMs":1.5},"timestamp":"2026-05-01T10:00:00Z"}`))
	handle(m, decode(t, `{"event":"turn_played","payload":{"pass":true,"candidates":0,"elapsedMs":0.5},"timestamp":"2026-05-01T10:00:01Z"}`))
	handle(m, decode(t, `{"event":"session_finished","payload":{"player":"p1","turns":2,"duration":3},"timestamp":"2026-05-01T10:00:02Z"}`))
	handle(m, decode(t, `{"event":"something_else","payload":{}}`))

	s := m.summary()
	if s.Turns != 2 || s.PassRate != 0.5 || s.AvgCandidates != 2 || s.AvgDecisionMs != 1 {
		t.Errorf("unexpected turn stats %+v", s)
	}
	if s.Sessions != 1 || s.AvgTurns != 2 || s.AvgDurationSec != 3 {
		t.Errorf("unexpected session stats %+v", s)
	}
	if m.playerSessions["p1"] != 1 || m.sessionsPerDay[time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")] != 1 {
		t.Errorf("unexpected breakdowns %v %v", m.playerSessions, m.sessionsPerDay)
	}
}

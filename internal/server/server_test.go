package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filler/internal/storage"

	"github.com/gorilla/websocket"
)

func newTestServer() (*Server, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return New(Config{IdleTimeout: time.Minute, Store: store}), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, h http.Handler, player string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]string{"player": player})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d body %s", rec.Code, rec.Body)
	}
	var res struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res.SessionID
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health: %d %s", rec.Code, rec.Body)
	}
}

func TestSessionFlow(t *testing.T) {
	s, store := newTestServer()
	h := s.Handler()
	id := startSession(t, h, "p1")

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+id+"/turns", turnRequest{
		Anfield: []string{".....", ".@...", "....$"},
		Piece:   []string{"OO", ".O"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("turn: status %d body %s", rec.Code, rec.Body)
	}
	var res turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Pass || res.Row != 1 || res.Col != 1 || res.Candidates != 3 || res.Turn != 1 {
		t.Errorf("unexpected move %+v", res)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/turns", turnRequest{
		Anfield: []string{"...", "..."},
		Piece:   []string{"O"},
	})
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Pass || res.Turn != 2 {
		t.Errorf("expected pass, got %+v", res)
	}
	if got := len(store.Turns(id)); got != 2 {
		t.Errorf("store has %d turns, want 2", got)
	}

	if rec := doJSON(t, h, http.MethodDelete, "/sessions/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("finish: %d %s", rec.Code, rec.Body)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/sessions/"+id, nil); rec.Code != http.StatusConflict {
		t.Errorf("second finish: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/recent?limit=5", nil)
	var recent []storage.CompletedSession
	if err := json.Unmarshal(rec.Body.Bytes(), &recent); err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != id || recent[0].Turns != 2 || recent[0].Passes != 1 {
		t.Errorf("unexpected recent sessions %+v", recent)
	}
}

func TestTurnErrors(t *testing.T) {
	s, _ := newTestServer()
	h := s.Handler()
	id := startSession(t, h, "p2")

	tests := []struct {
		name string
		path string
		body turnRequest
		code int
	}{
		{"ragged anfield", "/sessions/" + id + "/turns", turnRequest{Anfield: []string{"...", ".."}, Piece: []string{"O"}}, http.StatusBadRequest},
		{"empty piece", "/sessions/" + id + "/turns", turnRequest{Anfield: []string{"..."}, Piece: nil}, http.StatusBadRequest},
		{"unknown session", "/sessions/nope/turns", turnRequest{Anfield: []string{"$"}, Piece: []string{"O"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(t, h, http.MethodPost, tt.path, tt.body); rec.Code != tt.code {
				t.Errorf("status %d, want %d (%s)", rec.Code, tt.code, rec.Body)
			}
		})
	}

	if rec := doJSON(t, h, http.MethodPost, "/sessions", map[string]string{"player": "p3"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad player: status %d", rec.Code)
	}
}

func TestSpectatorStream(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	id := startSession(t, s.Handler(), "p1")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?sessionId=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for {
		s.watchMu.RLock()
		n := len(s.watchers[id])
		s.watchMu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("spectator never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	doJSON(t, s.Handler(), http.MethodPost, "/sessions/"+id+"/turns", turnRequest{
		Anfield: []string{"@.", ".."},
		Piece:   []string{"OO"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string       `json:"type"`
		Move turnResponse `json:"move"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "turn" || msg.Move.Row != 0 || msg.Move.Col != 0 || msg.Move.Pass {
		t.Errorf("unexpected event %+v", msg)
	}
}

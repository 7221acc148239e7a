package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"filler/internal/analytics"
	"filler/internal/game"
	"filler/internal/record"
	"filler/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Server struct {
	router      *gin.Engine
	manager     *game.Manager
	store       storage.Store
	recorder    *record.Recorder
	watchers    map[string]map[*wsClient]struct{}
	watchMu     sync.RWMutex
	idleTimeout time.Duration
}

type Config struct {
	IdleTimeout time.Duration
	Store       storage.Store
	Analytics   *analytics.Producer
}

type startRequest struct {
	Player string `json:"player"`
}

type turnRequest struct {
	Anfield []string `json:"anfield"`
	Piece   []string `json:"piece"`
}

type turnResponse struct {
	Row        int  `json:"row"`
	Col        int  `json:"col"`
	Pass       bool `json:"pass"`
	Candidates int  `json:"candidates"`
	Turn       int  `json:"turn"`
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	s := &Server{
		router:      router,
		store:       store,
		recorder:    &record.Recorder{Store: store, Analytics: cfg.Analytics},
		watchers:    make(map[string]map[*wsClient]struct{}),
		idleTimeout: cfg.IdleTimeout,
	}
	s.manager = game.NewManager(cfg.IdleTimeout, s.onFinish)

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/sessions", s.handleStart)
	router.GET("/sessions/recent", s.handleRecent)
	router.POST("/sessions/:id/turns", s.handleTurn)
	router.DELETE("/sessions/:id", s.handleFinish)
	router.GET("/ws", s.handleWS)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	go s.sweeper()
	return s.router.Run(addr)
}

func (s *Server) sweeper() {
	interval := s.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	for range ticker.C {
		s.manager.SweepIdle()
	}
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	player, err := game.ParsePlayer(req.Player)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := s.manager.Start(player)
	log.Printf("session %s started as %s", sess.ID, player)
	c.JSON(http.StatusCreated, gin.H{"sessionId": sess.ID, "player": player.String()})
}

func (s *Server) handleTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	grid, err := game.NewGrid(req.Anfield)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anfield: " + err.Error()})
		return
	}
	piece, err := game.NewPiece(req.Piece)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "piece: " + err.Error()})
		return
	}

	d, sess, err := s.manager.Play(c.Param("id"), grid, piece)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.recorder.Turn(c.Request.Context(), sess, d)

	res := turnResponse{
		Row:        d.Placement.Row,
		Col:        d.Placement.Col,
		Pass:       d.Pass,
		Candidates: d.Candidates,
		Turn:       sess.Turns,
	}
	s.broadcast(sess.ID, map[string]any{"type": "turn", "sessionId": sess.ID, "move": res})
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleFinish(c *gin.Context) {
	sess, err := s.manager.Finish(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID, "turns": sess.Turns, "passes": sess.Passes})
}

func (s *Server) handleRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	rows, err := s.store.RecentSessions(c.Request.Context(), limit)
	if err != nil {
		log.Printf("recent sessions db error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	if rows == nil {
		rows = []storage.CompletedSession{}
	}
	c.JSON(http.StatusOK, rows)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSessionFinished):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	server    *Server
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId required"})
		return
	}
	if _, ok := s.manager.Get(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": game.ErrSessionNotFound.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 8),
		server:    s,
	}
	s.register(client)

	go client.writePump()
	go client.readPump()
}

func (s *Server) register(c *wsClient) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watchers[c.sessionID] == nil {
		s.watchers[c.sessionID] = make(map[*wsClient]struct{})
	}
	s.watchers[c.sessionID][c] = struct{}{}
}

func (s *Server) unregister(c *wsClient) {
	s.watchMu.Lock()
	if set, ok := s.watchers[c.sessionID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(s.watchers, c.sessionID)
		}
	}
	s.watchMu.Unlock()
	c.conn.Close()
}

func (c *wsClient) writePump() {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// readPump only watches for the spectator going away.
func (c *wsClient) readPump() {
	defer c.server.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(sessionID string, payload map[string]any) {
	data, _ := json.Marshal(payload)
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for client := range s.watchers[sessionID] {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (s *Server) onFinish(sess game.Session) {
	s.recorder.Finish(context.Background(), sess)
	s.broadcast(sess.ID, map[string]any{
		"type":      "finished",
		"sessionId": sess.ID,
		"turns":     sess.Turns,
		"passes":    sess.Passes,
	})
	log.Printf("session %s finished after %d turns (%d passes)", sess.ID, sess.Turns, sess.Passes)
}

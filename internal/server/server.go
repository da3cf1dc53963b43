package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lox/pokerrooms/internal/game"
)

// Server is the WebSocket and HTTP front end for a GameManager. It
// subscribes to the manager and relays every snapshot to the connections
// bound to the room.
type Server struct {
	manager      *GameManager
	upgrader     websocket.Upgrader
	connections  map[*Connection]bool
	lastStage    map[string]game.Stage
	logger       *log.Logger
	clock        quartz.Clock
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	engine       *gin.Engine
	messageRate  rate.Limit
	messageBurst int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMessageRate limits each connection to r messages per second with the
// given burst.
func WithMessageRate(r float64, burst int) ServerOption {
	return func(s *Server) {
		s.messageRate = rate.Limit(r)
		s.messageBurst = burst
	}
}

// WithServerClock sets the clock used for message timestamps.
func WithServerClock(c quartz.Clock) ServerOption {
	return func(s *Server) { s.clock = c }
}

// NewServer creates the server and subscribes it to the manager.
func NewServer(manager *GameManager, logger *log.Logger, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		manager: manager,
		upgrader: websocket.Upgrader{
			// Rooms are joined by code; there is no cookie auth to protect.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections:  make(map[*Connection]bool),
		lastStage:    make(map[string]game.Stage),
		logger:       logger.WithPrefix("server"),
		clock:        quartz.NewReal(),
		ctx:          ctx,
		cancel:       cancel,
		messageRate:  20,
		messageBurst: 40,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	manager.Subscribe(s)
	return s
}

// Handler returns the HTTP handler serving the API and the websocket.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop()
		return srv.Shutdown(shutdownCtx)
	}
}

// Stop closes every connection.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

// unregister forgets a closed connection. Its player keeps the seat and can
// reconnect.
func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()

	room, player := conn.Binding()
	s.logger.Info("Client disconnected", "room", room, "player", player, "total", total)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s)
	s.register(client)
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister(client)
	}()
}

// roomConnections returns the connections bound to a room.
func (s *Server) roomConnections(code string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Connection
	for conn := range s.connections {
		if room, _ := conn.Binding(); room == code {
			out = append(out, conn)
		}
	}
	return out
}

// broadcast sends a message to every connection in a room.
func (s *Server) broadcast(code string, typ MessageType, data interface{}) {
	msg, err := NewMessage(typ, data, s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to create message", "type", typ, "error", err)
		return
	}

	count := 0
	for _, conn := range s.roomConnections(code) {
		if err := conn.SendMessage(msg); err == nil {
			count++
		}
	}
	s.logger.Debug("Broadcasted message to room", "room", code, "type", typ, "recipients", count)
}

// Publish implements Publisher. Entering the ended stage is announced with
// an extra gameEnd message.
func (s *Server) Publish(code string, state *game.GameState) {
	s.mu.Lock()
	prev := s.lastStage[code]
	s.lastStage[code] = state.Stage
	s.mu.Unlock()

	s.broadcast(code, MessageTypeGameState, state)
	if state.Stage == game.StageEnded && prev != game.StageEnded {
		s.broadcast(code, MessageTypeGameEnd, state)
	}
}

// RoomRemoved forgets the stage tracked for a deleted room.
func (s *Server) RoomRemoved(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastStage, code)
}

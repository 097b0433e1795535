package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

// Server accepts websocket clients and tracks their connections. Game state
// lives in the GameService; the server only owns sockets.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	logger      *log.Logger
	gameService *GameService
	sessions    *SessionManager

	mu          sync.RWMutex
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection

	ctx        context.Context
	cancel     context.CancelFunc
	httpServer *http.Server
}

// NewServer wires a websocket server to the given game service and session
// manager.
func NewServer(addr string, logger *log.Logger, gameService *GameService, sessions *SessionManager) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:   addr,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checking is left to a fronting proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		gameService: gameService,
		sessions:    sessions,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start listens on the configured address and blocks until Stop is called
// or the listener fails.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "OK")
	})

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: handlers.LoggingHandler(os.Stdout, mux),
	}

	s.logger.Info("listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop closes every connection and shuts the listener down.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// run owns the connection set. Register and unregister arrive on channels so
// socket lifecycle never races the HTTP handlers.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.track(conn)
		case conn := <-s.unregister:
			s.drop(conn)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) track(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)
}

// drop removes a connection and unhooks it from game broadcasts. The game
// keeps running; a dead socket must never stall a room.
func (s *Server) drop(conn *Connection) {
	s.mu.Lock()
	_, tracked := s.connections[conn]
	if tracked {
		delete(s.connections, conn)
	}
	total := len(s.connections)
	s.mu.Unlock()

	if !tracked {
		return
	}

	if playerID, gameID := conn.PlayerID(), conn.GameID(); playerID != "" && gameID != "" {
		s.logger.Info("dropping disconnected player", "player", playerID, "game", gameID)
		s.sessions.Unregister(gameID, playerID)
	}
	_ = conn.Close()
	s.logger.Info("client disconnected", "total", total)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.gameService, s.sessions)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// ConnectedPlayers lists the authenticated players currently connected.
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if id := conn.PlayerID(); id != "" {
			players = append(players, id)
		}
	}
	return players
}

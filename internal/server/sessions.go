package server

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Session is a broadcast target. Connections implement it; tests substitute
// their own.
type Session interface {
	SendMessage(msg *Message) error
}

// SnapshotFactory builds the per-connection message for one broadcast: the
// public state plus that player's private view.
type SnapshotFactory func(playerID string) (*Message, error)

// SessionManager maps each game to its set of connected player sessions and
// is the only component touching the network boundary on the way out.
// Registration and broadcast race freely: broadcasts iterate a consistent
// copy of the session set taken under the lock, and dispatch outside it so
// a slow or failing connection never blocks the others.
type SessionManager struct {
	mu     sync.RWMutex
	games  map[string]map[string]Session // gameID -> playerID -> session
	logger *log.Logger
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(logger *log.Logger) *SessionManager {
	return &SessionManager{
		games:  make(map[string]map[string]Session),
		logger: logger.WithPrefix("sessions"),
	}
}

// Register associates a player's session with a game, replacing any
// previous session for the same player (reconnect).
func (sm *SessionManager) Register(gameID, playerID string, s Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.games[gameID] == nil {
		sm.games[gameID] = make(map[string]Session)
	}
	sm.games[gameID][playerID] = s
	sm.logger.Debug("session registered", "game", gameID, "player", playerID)
}

// Unregister removes a player's session from a game. Safe to call while a
// broadcast is in flight; the broadcast works from its own snapshot.
func (sm *SessionManager) Unregister(gameID, playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if conns, ok := sm.games[gameID]; ok {
		delete(conns, playerID)
		if len(conns) == 0 {
			delete(sm.games, gameID)
		}
	}
	sm.logger.Debug("session unregistered", "game", gameID, "player", playerID)
}

// Sessions returns the player IDs currently registered for a game.
func (sm *SessionManager) Sessions(gameID string) []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.games[gameID]))
	for id := range sm.games[gameID] {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast builds one snapshot per registered session and delivers them
// independently. A failure on one connection is logged and skipped, never
// fatal to the game or to delivery on the other connections.
func (sm *SessionManager) Broadcast(gameID string, factory SnapshotFactory) {
	type target struct {
		playerID string
		session  Session
	}

	sm.mu.RLock()
	targets := make([]target, 0, len(sm.games[gameID]))
	for id, s := range sm.games[gameID] {
		targets = append(targets, target{playerID: id, session: s})
	}
	sm.mu.RUnlock()

	for _, tg := range targets {
		msg, err := factory(tg.playerID)
		if err != nil {
			sm.logger.Error("snapshot build failed", "game", gameID, "player", tg.playerID, "error", err)
			continue
		}
		if err := tg.session.SendMessage(msg); err != nil {
			// Connection gone; the unregister path cleans it up.
			sm.logger.Debug("broadcast target unreachable", "game", gameID, "player", tg.playerID, "error", err)
		}
	}
}

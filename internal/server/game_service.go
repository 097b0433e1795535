package server

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	uuid "github.com/satori/go.uuid"

	"github.com/chainmerge/tycoon/internal/bot"
	"github.com/chainmerge/tycoon/internal/game"
)

// Room is one hosted match: its seats, its game once started, and the bot
// agents driving automated seats. The room mutex serializes every state
// mutation, client and bot actions alike, so the game has exactly one
// writer even though the server is multi-connection.
type Room struct {
	ID   string
	Name string

	mu     sync.Mutex
	seats  []game.Seat
	game   *game.Game
	agents map[string]game.Agent
	status string // "waiting", "active", "finished"
	logger *log.Logger
}

// GameService manages rooms and routes actions into them. Bot turns are
// scheduled on the injected clock so tests drive them deterministically.
type GameService struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	sessions *SessionManager
	logger   *log.Logger
	clock    quartz.Clock
	rng      *rand.Rand
	cfg      game.Config
	botDelay time.Duration
}

// NewGameService creates a game service backed by the given session manager.
func NewGameService(sessions *SessionManager, logger *log.Logger, clock quartz.Clock, rng *rand.Rand, cfg game.Config, botDelay time.Duration) *GameService {
	return &GameService{
		rooms:    make(map[string]*Room),
		sessions: sessions,
		logger:   logger.WithPrefix("game-service"),
		clock:    clock,
		rng:      rng,
		cfg:      cfg,
		botDelay: botDelay,
	}
}

// CreateGame opens a new waiting room.
func (gs *GameService) CreateGame(name string) *Room {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	id := uuid.NewV4().String()
	if name == "" {
		name = "game-" + id[:8]
	}
	room := &Room{
		ID:     id,
		Name:   name,
		agents: make(map[string]game.Agent),
		status: "waiting",
		logger: gs.logger.WithPrefix("room").With("id", id),
	}
	gs.rooms[id] = room
	gs.logger.Info("game created", "id", id, "name", name)
	return room
}

// Room looks up a room by ID.
func (gs *GameService) Room(gameID string) (*Room, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	room, ok := gs.rooms[gameID]
	return room, ok
}

// ListGames returns a snapshot of all rooms.
func (gs *GameService) ListGames() []GameInfo {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	games := make([]GameInfo, 0, len(gs.rooms))
	for _, room := range gs.rooms {
		room.mu.Lock()
		games = append(games, GameInfo{
			ID:          room.ID,
			Name:        room.Name,
			PlayerCount: len(room.seats),
			MaxPlayers:  gs.cfg.MaxPlayers,
			Status:      room.status,
		})
		room.mu.Unlock()
	}
	return games
}

// Join seats a player in a waiting room.
func (gs *GameService) Join(gameID, playerID string) ([]string, error) {
	room, ok := gs.Room(gameID)
	if !ok {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.status != "waiting" {
		return nil, fmt.Errorf("game already started")
	}
	if len(room.seats) >= gs.cfg.MaxPlayers {
		return nil, fmt.Errorf("game is full")
	}
	for _, s := range room.seats {
		if s.ID == playerID {
			return nil, fmt.Errorf("player already seated")
		}
	}

	room.seats = append(room.seats, game.Seat{ID: playerID, Name: playerID})
	room.logger.Info("player joined", "player", playerID, "seats", len(room.seats))

	names := make([]string, 0, len(room.seats))
	for _, s := range room.seats {
		names = append(names, s.Name)
	}
	return names, nil
}

// SeatNames returns the display names of everyone seated, in turn order.
func (r *Room) SeatNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		names = append(names, s.Name)
	}
	return names
}

// AddBots seats count automated players in a waiting room.
func (gs *GameService) AddBots(gameID string, count int) ([]string, error) {
	room, ok := gs.Room(gameID)
	if !ok {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}
	if count < 1 {
		count = 1
	}

	// Seeds come off the service RNG before the room lock; gs.mu is never
	// taken while holding room.mu.
	gs.mu.Lock()
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = gs.rng.Int63()
	}
	gs.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.status != "waiting" {
		return nil, fmt.Errorf("game already started")
	}
	if len(room.seats)+count > gs.cfg.MaxPlayers {
		return nil, fmt.Errorf("game is full")
	}

	var names []string
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("bot-%d", len(room.seats)+1)
		room.seats = append(room.seats, game.Seat{ID: name, Name: name, Bot: true})
		room.agents[name] = bot.New(room.logger, rand.New(rand.NewSource(seeds[i])))
		names = append(names, name)
	}

	room.logger.Info("bots added", "count", count, "seats", len(room.seats))
	return names, nil
}

// Start begins the match for a waiting room with enough players.
func (gs *GameService) Start(gameID string) error {
	room, ok := gs.Room(gameID)
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	gs.mu.Lock()
	rng := rand.New(rand.NewSource(gs.rng.Int63()))
	gs.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.status != "waiting" {
		return fmt.Errorf("game already started")
	}

	g, err := game.NewGame(gs.cfg, room.logger, rng, room.seats)
	if err != nil {
		return err
	}
	room.game = g
	room.status = "active"
	g.Events().Subscribe(&stateBroadcaster{gs: gs, room: room})
	room.logger.Info("game started", "players", len(room.seats))

	// The opening deal precedes any applied action, so the first snapshot
	// goes out by hand.
	gs.broadcastViews(room)
	gs.scheduleBot(room)
	return nil
}

// stateBroadcaster relays game events to the session layer. OnEvent runs
// inside Apply, with the room lock already held.
type stateBroadcaster struct {
	gs   *GameService
	room *Room
}

func (b *stateBroadcaster) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.StateChangedEvent:
		b.gs.broadcastViews(b.room)
	case game.GameOverEvent:
		b.room.status = "finished"
		b.gs.broadcastGameOver(b.room, e.Standings)
	}
}

// HandleAction applies one client action. Rule violations leave the game
// untouched and are returned to the caller; only successful actions are
// broadcast.
func (gs *GameService) HandleAction(gameID, playerID string, act game.Action) error {
	room, ok := gs.Room(gameID)
	if !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.game == nil {
		return fmt.Errorf("game not started")
	}
	if err := room.game.Apply(playerID, act); err != nil {
		return err
	}

	// The event bus has already broadcast the new state.
	gs.scheduleBot(room)
	return nil
}

// broadcastViews sends each registered connection its own view of the
// room's game. Called with the room lock held; the snapshots are plain
// data, so delivery happens without touching live game state.
func (gs *GameService) broadcastViews(room *Room) {
	g := room.game
	gs.sessions.Broadcast(room.ID, func(playerID string) (*Message, error) {
		view, ok := g.PlayerView(playerID)
		if !ok {
			// Spectators get the public state and no hand.
			view = game.PlayerView{Public: g.PublicState(), PlayerID: playerID}
		}
		return NewMessage(MessageTypeGameState, GameStateData{GameID: room.ID, View: view})
	})
}

func (gs *GameService) broadcastGameOver(room *Room, standings []game.Standing) {
	gs.sessions.Broadcast(room.ID, func(string) (*Message, error) {
		return NewMessage(MessageTypeGameOver, GameOverData{GameID: room.ID, Standings: standings})
	})
}

// scheduleBot arranges the next bot move on the service clock. Called with
// the room lock held.
func (gs *GameService) scheduleBot(room *Room) {
	if room.status != "active" {
		return
	}
	pending := room.game.PendingActor()
	agent, isBot := room.agents[pending]
	if !isBot {
		return
	}

	gs.clock.AfterFunc(gs.botDelay, func() {
		gs.runBotMove(room, pending, agent)
	})
}

// runBotMove applies one bot proposal under the room lock. The bot filters
// every choice through the rules it is handed in the view, so a rejected
// proposal is an internal defect: it is logged loudly and the bot is not
// rescheduled, rather than being retried into an infinite loop.
func (gs *GameService) runBotMove(room *Room, playerID string, agent game.Agent) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.status != "active" || room.game.PendingActor() != playerID {
		return // superseded while the timer was pending
	}

	view, ok := room.game.PlayerView(playerID)
	if !ok {
		return
	}
	act := agent.Propose(view)
	if err := room.game.Apply(playerID, act); err != nil {
		if errors.Is(err, game.ErrGameOver) {
			return
		}
		room.logger.Error("bot proposed illegal action", "bot", playerID, "action", act.Type, "error", err)
		return
	}

	gs.scheduleBot(room)
}

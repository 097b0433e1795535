package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/chainmerge/tycoon/internal/game"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent before the read side
	// gives up. Pings go out at pingPeriod, which must beat pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8192

	sendBufferSize = 256
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection is one client socket: a read pump that dispatches inbound
// messages and a write pump fed by a buffered channel.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	logger      *log.Logger
	gameService *GameService
	sessions    *SessionManager

	mu       sync.RWMutex
	playerID string
	gameID   string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService, sessions *SessionManager) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, sendBufferSize),
		logger:      logger.WithPrefix("conn"),
		gameService: gameService,
		sessions:    sessions,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the socket down exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. It never blocks on the
// socket: a full send buffer closes the connection instead of stalling the
// broadcaster.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Send channel already closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection", "player", c.PlayerID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer records the authenticated player identity.
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetGame records the game this connection is attached to.
func (c *Connection) SetGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

func (c *Connection) GameID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("read failed", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// decode unmarshals a payload, reporting a malformed one to the client.
func decode[T any](c *Connection, raw json.RawMessage, what string) (T, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.sendError("invalid_message", "malformed "+what+" payload")
		return v, false
	}
	return v, true
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case MessageTypeAuth:
		if data, ok := decode[AuthData](c, msg.Data, "auth"); ok {
			c.handleAuth(data)
		}
	case MessageTypeCreateGame:
		if data, ok := decode[CreateGameData](c, msg.Data, "create_game"); ok {
			c.handleCreateGame(data)
		}
	case MessageTypeJoinGame:
		if data, ok := decode[JoinGameData](c, msg.Data, "join_game"); ok {
			c.handleJoinGame(data)
		}
	case MessageTypeListGames:
		c.handleListGames()
	case MessageTypeAddBot:
		if data, ok := decode[AddBotData](c, msg.Data, "add_bot"); ok {
			c.handleAddBot(data)
		}
	case MessageTypeStartGame:
		if data, ok := decode[StartGameData](c, msg.Data, "start_game"); ok {
			c.handleStartGame(data)
		}
	case MessageTypeGameAction:
		if data, ok := decode[GameActionData](c, msg.Data, "game_action"); ok {
			c.handleGameAction(data)
		}
	default:
		c.sendError("unknown_message_type", "unknown message type: "+msg.Type.String())
	}
}

// sendError reports a rejection to this connection only. Other connections
// never hear about rejected actions.
func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("building error message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// authenticated guards handlers that need a player identity.
func (c *Connection) authenticated() bool {
	if c.PlayerID() == "" {
		c.sendError("not_authenticated", "must authenticate first")
		return false
	}
	return true
}

func (c *Connection) handleAuth(data AuthData) {
	if data.PlayerName == "" {
		c.sendError("invalid_auth", "player name required")
		return
	}

	c.SetPlayer(data.PlayerName)
	c.logger.Info("player authenticated", "player", data.PlayerName)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerName,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleCreateGame(data CreateGameData) {
	if !c.authenticated() {
		return
	}

	room := c.gameService.CreateGame(data.Name)
	response, _ := NewMessage(MessageTypeGameCreated, GameCreatedData{GameID: room.ID, Name: room.Name})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinGame(data JoinGameData) {
	if !c.authenticated() {
		return
	}
	playerID := c.PlayerID()

	var players []string
	if data.Spectate {
		room, ok := c.gameService.Room(data.GameID)
		if !ok {
			c.sendError("join_failed", "game not found: "+data.GameID)
			return
		}
		players = room.SeatNames()
	} else {
		var err error
		players, err = c.gameService.Join(data.GameID, playerID)
		if err != nil {
			c.sendError("join_failed", err.Error())
			return
		}
	}

	c.SetGame(data.GameID)
	c.sessions.Register(data.GameID, playerID, c)

	response, _ := NewMessage(MessageTypeGameJoined, GameJoinedData{GameID: data.GameID, Players: players})
	_ = c.SendMessage(response)
}

func (c *Connection) handleListGames() {
	response, _ := NewMessage(MessageTypeGameList, GameListData{Games: c.gameService.ListGames()})
	_ = c.SendMessage(response)
}

func (c *Connection) handleAddBot(data AddBotData) {
	if !c.authenticated() {
		return
	}

	names, err := c.gameService.AddBots(data.GameID, data.Count)
	if err != nil {
		c.sendError("add_bot_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeBotAdded, BotAddedData{GameID: data.GameID, BotNames: names})
	_ = c.SendMessage(response)
}

func (c *Connection) handleStartGame(data StartGameData) {
	if !c.authenticated() {
		return
	}

	if err := c.gameService.Start(data.GameID); err != nil {
		c.sendError("start_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeGameStarted, GameStartedData{GameID: data.GameID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleGameAction(data GameActionData) {
	if !c.authenticated() {
		return
	}

	act, err := data.ToAction()
	if err != nil {
		c.sendError("invalid_action", err.Error())
		return
	}

	if err := c.gameService.HandleAction(data.GameID, c.PlayerID(), act); err != nil {
		c.sendError(rejectionCode(err), err.Error())
		return
	}
	// No direct response: the room broadcasts the new state.
}

// rejectionCode maps rule violations onto stable wire codes.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, game.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, game.ErrIllegalPlacement):
		return "illegal_placement"
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, game.ErrBagExhausted):
		return "bag_exhausted"
	case errors.Is(err, game.ErrGameOver):
		return "game_over"
	default:
		return "action_failed"
	}
}

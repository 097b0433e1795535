package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainmerge/tycoon/internal/game"
)

// Message is the wire envelope. Data carries the type-specific payload.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps a payload in a timestamped envelope.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// Client to server payloads.

type AuthData struct {
	PlayerName string `json:"playerName"`
	Token      string `json:"token,omitempty"`
}

type CreateGameData struct {
	Name string `json:"name,omitempty"`
}

type JoinGameData struct {
	GameID string `json:"gameId"`
	// Spectate registers for state broadcasts without taking a seat.
	Spectate bool `json:"spectate,omitempty"`
}

type AddBotData struct {
	GameID string `json:"gameId"`
	Count  int    `json:"count,omitempty"` // Number of bots to add, default 1
}

type StartGameData struct {
	GameID string `json:"gameId"`
}

// GameActionData carries one game action in the shared vocabulary. Tile and
// chain fields are consulted per action type.
type GameActionData struct {
	GameID string `json:"gameId"`
	Action string `json:"action"`
	Tile   string `json:"tile,omitempty"`
	Chain  string `json:"chain,omitempty"`
	Sell   int    `json:"sell,omitempty"`
	Trade  int    `json:"trade,omitempty"`
	Hold   int    `json:"hold,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// ToAction converts the wire form into a game.Action.
func (d GameActionData) ToAction() (game.Action, error) {
	act := game.Action{
		Type:  game.ActionType(d.Action),
		Chain: game.ChainName(d.Chain),
		Sell:  d.Sell,
		Trade: d.Trade,
		Hold:  d.Hold,
		Count: d.Count,
	}
	if d.Tile != "" {
		tile, err := game.ParseCoord(d.Tile)
		if err != nil {
			return game.Action{}, fmt.Errorf("invalid tile: %w", err)
		}
		act.Tile = tile
	}
	return act, nil
}

// Server to client payloads.

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      string `json:"status"`
}

type GameListData struct {
	Games []GameInfo `json:"games"`
}

type GameCreatedData struct {
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

type GameJoinedData struct {
	GameID  string   `json:"gameId"`
	Players []string `json:"players"`
}

type BotAddedData struct {
	GameID   string   `json:"gameId"`
	BotNames []string `json:"botNames"`
}

type GameStartedData struct {
	GameID string `json:"gameId"`
}

// GameStateData is the per-connection snapshot: public state plus that
// connection's private view.
type GameStateData struct {
	GameID string          `json:"gameId"`
	View   game.PlayerView `json:"view"`
}

type GameOverData struct {
	GameID    string          `json:"gameId"`
	Standings []game.Standing `json:"standings"`
}

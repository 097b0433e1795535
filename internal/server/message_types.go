package server

// MessageType names a wire message kind.
type MessageType string

const (
	// Client to server messages
	MessageTypeAuth       MessageType = "auth"
	MessageTypeCreateGame MessageType = "create_game"
	MessageTypeJoinGame   MessageType = "join_game"
	MessageTypeListGames  MessageType = "list_games"
	MessageTypeAddBot     MessageType = "add_bot"
	MessageTypeStartGame  MessageType = "start_game"
	MessageTypeGameAction MessageType = "game_action"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeGameCreated  MessageType = "game_created"
	MessageTypeGameJoined   MessageType = "game_joined"
	MessageTypeGameList     MessageType = "game_list"
	MessageTypeBotAdded     MessageType = "bot_added"
	MessageTypeGameStarted  MessageType = "game_started"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeGameOver     MessageType = "game_over"
	MessageTypeError        MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

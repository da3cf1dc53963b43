package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeCreateRoom      MessageType = "createRoom"
	MessageTypeJoinGame        MessageType = "joinGame"
	MessageTypeLeaveGame       MessageType = "leaveGame"
	MessageTypePlayerAction    MessageType = "playerAction"
	MessageTypeStartGame       MessageType = "startGame"
	MessageTypeConfirmWinner   MessageType = "confirmWinner"
	MessageTypeUpdateSettings  MessageType = "updateSettings"
	MessageTypeIncreaseBlind   MessageType = "increaseBlind"
	MessageTypeStartNextHand   MessageType = "startNextHand"
	MessageTypeResetToSettings MessageType = "resetToSettings"
	MessageTypeSendMessage     MessageType = "sendMessage"
	MessageTypeReconnect       MessageType = "reconnect"
	MessageTypePing            MessageType = "ping"

	// Server to client messages
	MessageTypeRoomCreated  MessageType = "roomCreated"
	MessageTypeGameState    MessageType = "gameState"
	MessageTypePlayerJoined MessageType = "playerJoined"
	MessageTypePlayerLeft   MessageType = "playerLeft"
	MessageTypeGameEnd      MessageType = "gameEnd"
	MessageTypeChatMessage  MessageType = "chatMessage"
	MessageTypeError        MessageType = "error"
	MessageTypePong         MessageType = "pong"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

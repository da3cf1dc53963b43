package server

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lox/pokerrooms/internal/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType         `json:"type"`
	Data      jsoniter.RawMessage `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
	RequestID string              `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the given timestamp
func NewMessage(messageType MessageType, data interface{}, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// Client → Server Messages

// RoomRef identifies the room and player a request applies to. Once a
// connection has joined a room both fields may be omitted.
type RoomRef struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type CreateRoomData struct {
	RoomCode string `json:"roomCode,omitempty"`
	RoomOptions
}

type JoinGameData struct {
	RoomRef
	PlayerName string `json:"playerName"`
}

type PlayerActionData struct {
	RoomRef
	Action game.Action `json:"action"`
}

type UpdateSettingsData struct {
	RoomRef
	Settings game.Settings `json:"settings"`
}

type IncreaseBlindData struct {
	RoomRef
	NewBigBlind *int `json:"newBigBlind,omitempty"`
}

type SendMessageData struct {
	RoomRef
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomCreatedData struct {
	RoomCode string          `json:"roomCode"`
	State    *game.GameState `json:"gameState"`
}

type PlayerJoinedData struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type PlayerLeftData struct {
	PlayerID string `json:"playerId"`
}

type ChatMessageData struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

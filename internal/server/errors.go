package server

import (
	"errors"

	"github.com/lox/pokerrooms/internal/game"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrInvalidRoom      = errors.New("invalid room options")
	ErrForbidden        = errors.New("connection is bound to another player")
	ErrNotJoined        = errors.New("join a room first")
	ErrConnectionClosed = errors.New("connection closed")
)

// errorCodes maps failures onto the stable codes sent to clients. Order
// matters: the first match wins.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomExists, "room_exists"},
	{ErrInvalidRoom, "invalid_room"},
	{ErrForbidden, "forbidden"},
	{ErrNotJoined, "not_joined"},
	{game.ErrNotYourTurn, "not_your_turn"},
	{game.ErrPlayerNotFound, "player_not_found"},
	{game.ErrRoomFull, "room_full"},
	{game.ErrDuplicatePlayer, "duplicate_player"},
	{game.ErrNotHost, "not_host"},
	{game.ErrHandNotInProgress, "hand_not_in_progress"},
	{game.ErrGameInProgress, "game_in_progress"},
	{game.ErrNotEnoughPlayers, "not_enough_players"},
	{game.ErrSettingsLocked, "settings_locked"},
	{game.ErrInvalidAction, "invalid_action"},
	{game.ErrNotEnded, "not_ended"},
	{game.ErrInvalidSettings, "invalid_settings"},
}

func errorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal_error"
}

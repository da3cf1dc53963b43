package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRoomFull          = errors.New("game is full")
	ErrDuplicatePlayer   = errors.New("player already in game")
	ErrNotHost           = errors.New("only the host can do that")
	ErrHandNotInProgress = errors.New("game not in progress")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrNotEnoughPlayers  = errors.New("need at least 2 players with chips")
	ErrSettingsLocked    = errors.New("settings can only be changed before the game starts")
	ErrInvalidAction     = errors.New("invalid action")
	ErrNotEnded          = errors.New("hand has not ended")
	ErrInvalidSettings   = errors.New("invalid game settings")

	// ErrIgnored marks an illegal check, bet or raise. State is untouched and
	// callers are expected to drop the request without replying.
	ErrIgnored = errors.New("action ignored")
)

// ConservationError reports that an operation created or destroyed chips.
type ConservationError struct {
	Room   string
	Op     string
	Before int
	After  int
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("chip conservation violated in room %s during %s: %d before, %d after", e.Room, e.Op, e.Before, e.After)
}

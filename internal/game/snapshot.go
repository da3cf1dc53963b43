package game

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeState serializes a state in the persisted wire form.
func EncodeState(s *GameState) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses the output of EncodeState.
func DecodeState(data []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode room state: %w", err)
	}
	if s.Players == nil {
		s.Players = []*Player{}
	}
	return &s, nil
}

// Serialize returns the full room state, including hand-transient data.
func (r *Room) Serialize() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return EncodeState(r.state)
}

// Restore rebuilds a room from Serialize output.
func Restore(data []byte, opts ...RoomOption) (*Room, error) {
	s, err := DecodeState(data)
	if err != nil {
		return nil, err
	}
	return RestoreState(s, opts...), nil
}

// RestoreState rebuilds a room from a state snapshot and re-arms whichever
// timer the room was waiting on. Timers restart with their full delay.
func RestoreState(state *GameState, opts ...RoomOption) *Room {
	cfg := defaultRoomConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	r := newRoom(cfg, state.RoomCode)
	r.state = state.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	switch {
	case s.DramaticReveal && s.Stage.Betting() && s.Ledger != nil:
		r.schedule(revealTimer, r.timings.RevealStreetDelay, r.revealNext)
	case s.AwaitingConfirmation:
		r.schedule(confirmTimer, r.timings.ConfirmTimeout, r.confirmTimeout)
	}
	r.logger.Info("Room restored", "stage", s.Stage, "players", len(s.Players), "hand", s.HandNumber)
	return r
}

package game

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/poker"
)

const (
	DefaultMaxPlayers    = 6
	DefaultSmallBlind    = 10
	DefaultBigBlind      = 20
	DefaultStartingChips = 1000
)

// Timings controls the room's scheduled transitions.
type Timings struct {
	ConfirmTimeout    time.Duration
	RevealHoleDelay   time.Duration
	RevealStreetDelay time.Duration
}

// DefaultTimings returns the standard pacing.
func DefaultTimings() Timings {
	return Timings{
		ConfirmTimeout:    15 * time.Second,
		RevealHoleDelay:   3 * time.Second,
		RevealStreetDelay: 2500 * time.Millisecond,
	}
}

// Observer receives a deep-copied snapshot after every committed mutation.
// It is called with the room locked and must not block or call back into
// the room.
type Observer interface {
	RoomChanged(state *GameState)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(*GameState)

func (f ObserverFunc) RoomChanged(s *GameState) { f(s) }

// RoomOption configures a Room during creation.
type RoomOption func(*roomConfig)

type roomConfig struct {
	clock       quartz.Clock
	logger      *log.Logger
	observer    Observer
	rng         *rand.Rand
	newDeck     func() *poker.Deck
	timings     Timings
	onViolation func(error)
	maxPlayers  int
	settings    Settings
}

func defaultRoomConfig() *roomConfig {
	return &roomConfig{
		clock:      quartz.NewReal(),
		logger:     log.Default(),
		timings:    DefaultTimings(),
		maxPlayers: DefaultMaxPlayers,
		settings: Settings{
			StartingChips: DefaultStartingChips,
			SmallBlind:    DefaultSmallBlind,
			BigBlind:      DefaultBigBlind,
		},
	}
}

// WithClock sets the clock used for timers and activity stamps.
func WithClock(clock quartz.Clock) RoomOption {
	return func(c *roomConfig) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) RoomOption {
	return func(c *roomConfig) {
		c.logger = logger
	}
}

// WithObserver registers the state-change observer.
func WithObserver(o Observer) RoomOption {
	return func(c *roomConfig) {
		c.observer = o
	}
}

// WithRand sets the RNG used to shuffle decks.
func WithRand(rng *rand.Rand) RoomOption {
	return func(c *roomConfig) {
		c.rng = rng
	}
}

// WithDeckFactory overrides deck creation, e.g. with a stacked deck.
// This takes precedence over WithRand.
func WithDeckFactory(f func() *poker.Deck) RoomOption {
	return func(c *roomConfig) {
		c.newDeck = f
	}
}

// WithTimings overrides the confirmation and reveal delays.
func WithTimings(t Timings) RoomOption {
	return func(c *roomConfig) {
		c.timings = t
	}
}

// WithViolationHandler receives invariant violations such as
// *ConservationError. The default handler logs at error level.
func WithViolationHandler(f func(error)) RoomOption {
	return func(c *roomConfig) {
		c.onViolation = f
	}
}

// WithMaxPlayers sets the seat limit.
func WithMaxPlayers(n int) RoomOption {
	return func(c *roomConfig) {
		c.maxPlayers = n
	}
}

// WithBlinds sets the initial blinds.
func WithBlinds(small, big int) RoomOption {
	return func(c *roomConfig) {
		c.settings.SmallBlind = small
		c.settings.BigBlind = big
	}
}

// WithStartingChips sets the stack each player receives.
func WithStartingChips(chips int) RoomOption {
	return func(c *roomConfig) {
		c.settings.StartingChips = chips
	}
}

package game

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/poker"
)

type timerKind int

const (
	confirmTimer timerKind = iota
	revealTimer
)

func (k timerKind) String() string {
	if k == confirmTimer {
		return "confirm"
	}
	return "reveal"
}

// scheduled is a cancellable task owned by the room. Callbacks compare their
// sequence number against the current one so a stopped timer that already
// fired is a no-op.
type scheduled struct {
	timer *quartz.Timer
	seq   uint64
}

// Room is the authoritative state machine for one table. All methods are
// safe for concurrent use; operations on one room are strictly ordered.
type Room struct {
	mu       sync.Mutex
	state    *GameState
	clock    quartz.Clock
	logger   *log.Logger
	observer Observer
	newDeck  func() *poker.Deck
	timings  Timings

	onViolation func(error)

	timers   map[timerKind]scheduled
	timerSeq uint64
	// reseeds counts operations that legitimately reset stacks; the
	// conservation guard skips operations that bumped it.
	reseeds  uint64
	closed   bool
}

// NewRoom creates a room in the settings stage.
func NewRoom(code string, opts ...RoomOption) *Room {
	cfg := defaultRoomConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	r := newRoom(cfg, code)
	r.state = &GameState{
		RoomCode:     code,
		Players:      []*Player{},
		Stage:        StageSettings,
		MaxPlayers:   cfg.maxPlayers,
		Settings:     cfg.settings,
		SmallBlind:   cfg.settings.SmallBlind,
		BigBlind:     cfg.settings.BigBlind,
		MinRaise:     cfg.settings.BigBlind,
		LastActivity: r.clock.Now(),
	}
	return r
}

func newRoom(cfg *roomConfig, code string) *Room {
	r := &Room{
		clock:       cfg.clock,
		logger:      cfg.logger.WithPrefix("room").With("room", code),
		observer:    cfg.observer,
		newDeck:     cfg.newDeck,
		timings:     cfg.timings,
		onViolation: cfg.onViolation,
		timers:      make(map[timerKind]scheduled),
	}
	if r.newDeck == nil {
		rng := cfg.rng
		r.newDeck = func() *poker.Deck { return poker.NewDeck(rng) }
	}
	if r.onViolation == nil {
		r.onViolation = func(err error) {
			r.logger.Error("Invariant violated", "error", err)
		}
	}
	return r
}

// Code returns the room code.
func (r *Room) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.RoomCode
}

// Snapshot returns a deep copy of the current state without mutating it.
func (r *Room) Snapshot() *GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// LastActivity returns when the room last changed.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.LastActivity
}

// Close cancels all pending timers. A closed room ignores timer callbacks.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelAllTimers()
}

// commit stamps activity and hands a snapshot to the observer.
func (r *Room) commit() {
	r.state.LastActivity = r.clock.Now()
	if r.observer != nil {
		r.observer.RoomChanged(r.state.Clone())
	}
}

// conserve captures chips in play and returns a check to run once the
// operation has finished.
func (r *Room) conserve(op string) func() {
	before := r.state.ChipsInPlay()
	reseeds := r.reseeds
	return func() {
		if r.reseeds != reseeds {
			return
		}
		if after := r.state.ChipsInPlay(); after != before {
			r.onViolation(&ConservationError{Room: r.state.RoomCode, Op: op, Before: before, After: after})
		}
	}
}

// schedule replaces any pending timer of the same kind. fn runs with the
// room locked.
func (r *Room) schedule(kind timerKind, d time.Duration, fn func()) {
	r.cancelTimer(kind)
	r.timerSeq++
	seq := r.timerSeq
	t := r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur, ok := r.timers[kind]
		if r.closed || !ok || cur.seq != seq {
			return
		}
		delete(r.timers, kind)
		fn()
	}, "room", kind.String())
	r.timers[kind] = scheduled{timer: t, seq: seq}
}

func (r *Room) cancelTimer(kind timerKind) {
	if s, ok := r.timers[kind]; ok {
		s.timer.Stop()
		delete(r.timers, kind)
	}
}

func (r *Room) cancelAllTimers() {
	for kind := range r.timers {
		r.cancelTimer(kind)
	}
}

func (r *Room) timerPending(kind timerKind) bool {
	_, ok := r.timers[kind]
	return ok
}

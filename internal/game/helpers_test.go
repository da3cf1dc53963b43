package game

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/poker"
)

type recorder struct {
	mu     sync.Mutex
	states []*GameState
}

func (r *recorder) RoomChanged(s *GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recorder) last() *GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return nil
	}
	return r.states[len(r.states)-1]
}

// testRoom bundles a room with its mock clock and snapshot recorder.
type testRoom struct {
	*Room
	t     *testing.T
	clock *quartz.Mock
	rec   *recorder
}

// newTestRoom creates a room on a mock clock that fails the test on any
// chip conservation violation. Players are seated in order and their ids
// double as names.
func newTestRoom(t *testing.T, players []string, opts ...RoomOption) *testRoom {
	t.Helper()
	clock := quartz.NewMock(t)
	rec := &recorder{}
	base := []RoomOption{
		WithClock(clock),
		WithLogger(log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})),
		WithRand(rand.New(rand.NewSource(42))),
		WithObserver(rec),
		WithViolationHandler(func(err error) { t.Errorf("violation: %v", err) }),
	}
	r := NewRoom("TEST", append(base, opts...)...)
	for _, id := range players {
		if err := r.AddPlayer(id, id); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	return &testRoom{Room: r, t: t, clock: clock, rec: rec}
}

// stacked returns a deck factory that deals holes[i] to the i'th seat and
// then board as the community cards.
func stacked(holes []string, board string) RoomOption {
	parsed := make([][]poker.Card, len(holes))
	for i, h := range holes {
		parsed[i] = poker.MustParseCards(h)
	}
	var top []poker.Card
	for round := range 2 {
		for _, cards := range parsed {
			top = append(top, cards[round])
		}
	}
	top = append(top, poker.MustParseCards(board)...)
	return WithDeckFactory(func() *poker.Deck { return poker.NewStackedDeck(top) })
}

// setChips overrides stacks before a hand is dealt.
func (tr *testRoom) setChips(chips ...int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for i, c := range chips {
		tr.state.Players[i].Chips = c
	}
}

func (tr *testRoom) start() {
	tr.t.Helper()
	if err := tr.StartGame(); err != nil {
		tr.t.Fatalf("StartGame: %v", err)
	}
}

func (tr *testRoom) act(id string, typ ActionType, amount int) {
	tr.t.Helper()
	if err := tr.HandleAction(id, Action{Type: typ, Amount: amount}); err != nil {
		tr.t.Fatalf("%s %s %d: %v", id, typ, amount, err)
	}
}

func (tr *testRoom) current() string {
	s := tr.Snapshot()
	if p := s.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}

func (tr *testRoom) chips(id string) int {
	tr.t.Helper()
	p := tr.Snapshot().Player(id)
	if p == nil {
		tr.t.Fatalf("no player %s", id)
	}
	return p.Chips
}

// checkDown checks every remaining street until the hand leaves betting.
func (tr *testRoom) checkDown() {
	tr.t.Helper()
	for i := 0; i < 20; i++ {
		s := tr.Snapshot()
		if !s.Stage.Betting() || s.DramaticReveal {
			return
		}
		tr.act(tr.current(), ActionCheck, 0)
	}
	tr.t.Fatal("hand did not finish")
}

func (tr *testRoom) advance(d time.Duration) {
	tr.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tr.clock.Advance(d).MustWait(ctx)
}

// runReveal plays out an all-in reveal from the given stage to the end.
func (tr *testRoom) runReveal(from Stage) {
	tr.t.Helper()
	timings := DefaultTimings()
	tr.advance(timings.RevealHoleDelay)
	for stage := from.next(); stage != StageShowdown; stage = stage.next() {
		tr.advance(timings.RevealStreetDelay)
	}
}

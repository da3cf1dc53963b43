package server

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerrooms/internal/game"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// recordingPublisher keeps every published snapshot per room.
type recordingPublisher struct {
	mu     sync.Mutex
	states map[string][]*game.GameState
}

func (p *recordingPublisher) Publish(code string, state *game.GameState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.states == nil {
		p.states = make(map[string][]*game.GameState)
	}
	p.states[code] = append(p.states[code], state)
}

func (p *recordingPublisher) all(code string) []*game.GameState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*game.GameState(nil), p.states[code]...)
}

func (p *recordingPublisher) last(code string) *game.GameState {
	states := p.all(code)
	if len(states) == 0 {
		return nil
	}
	return states[len(states)-1]
}

// newTestManager returns a manager on a mock clock that fails the test on
// any chip conservation violation.
func newTestManager(t *testing.T, opts ...ManagerOption) (*GameManager, *quartz.Mock, *recordingPublisher) {
	t.Helper()
	clock := quartz.NewMock(t)
	pub := &recordingPublisher{}
	base := []ManagerOption{
		WithManagerClock(clock),
		WithPublisher(pub),
		WithRoomOptions(game.WithViolationHandler(func(err error) {
			t.Errorf("violation: %v", err)
		})),
	}
	gm := NewGameManager(quietLogger(), append(base, opts...)...)
	t.Cleanup(gm.Close)
	return gm, clock, pub
}

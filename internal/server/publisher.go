package server

import (
	"sync"

	"github.com/lox/pokerrooms/internal/game"
)

// Publisher receives every committed room snapshot, in commit order per
// room. The state is shared between publishers and must not be modified.
type Publisher interface {
	Publish(code string, state *game.GameState)
}

// RoomRemover is implemented by publishers that keep per-room state. It is
// called once a deleted room's last snapshot has been published.
type RoomRemover interface {
	RoomRemoved(code string)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(code string, state *game.GameState)

func (f PublisherFunc) Publish(code string, state *game.GameState) { f(code, state) }

// fanout publishes to a changing set of subscribers.
type fanout struct {
	mu   sync.RWMutex
	subs []Publisher
}

func (f *fanout) add(p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, p)
}

func (f *fanout) Publish(code string, state *game.GameState) {
	f.mu.RLock()
	subs := f.subs
	f.mu.RUnlock()
	for _, p := range subs {
		p.Publish(code, state)
	}
}

func (f *fanout) RoomRemoved(code string) {
	f.mu.RLock()
	subs := f.subs
	f.mu.RUnlock()
	for _, p := range subs {
		if rr, ok := p.(RoomRemover); ok {
			rr.RoomRemoved(code)
		}
	}
}

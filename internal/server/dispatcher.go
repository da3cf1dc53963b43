package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/store"
)

// dispatcher receives committed snapshots from one room and, on its own
// goroutine, persists them and hands them to the publishers in commit order.
// The room never waits on storage or broadcast.
type dispatcher struct {
	code      string
	store     store.Store
	publisher Publisher
	logger    *log.Logger

	mu      sync.Mutex
	queue   []*game.GameState
	stopped bool

	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func newDispatcher(code string, st store.Store, pub Publisher, logger *log.Logger) *dispatcher {
	d := &dispatcher{
		code:      code,
		store:     st,
		publisher: pub,
		logger:    logger.With("room", code),
		signal:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// RoomChanged implements game.Observer.
func (d *dispatcher) RoomChanged(state *game.GameState) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, state)
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.signal:
			d.drain()
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain publishes every queued snapshot and persists only the newest one.
func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		latest := batch[len(batch)-1]
		if err := d.persist(latest); err != nil {
			d.logger.Error("Failed to persist room", "error", err, "hand", latest.HandNumber)
		}
		for _, state := range batch {
			d.publisher.Publish(d.code, state)
		}
	}
}

func (d *dispatcher) persist(state *game.GameState) error {
	data, err := game.EncodeState(state)
	if err != nil {
		return err
	}
	return d.store.Save(context.Background(), d.code, data)
}

// close flushes pending snapshots and stops the goroutine. Snapshots
// arriving afterwards are dropped.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.stopped = true
	d.mu.Unlock()
	close(d.stop)
	<-d.done
}

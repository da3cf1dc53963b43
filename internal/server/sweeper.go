package server

import (
	"context"
	"time"
)

// emptyRoomGrace is how long a room with no players may wait for its first
// join before the sweeper removes it.
const emptyRoomGrace = time.Minute

// SweepIdle deletes rooms that nobody can play in any more: rooms idle for
// longer than ttl, and rooms without a player holding chips once the grace
// period has passed. It returns the deleted codes.
func (gm *GameManager) SweepIdle(ctx context.Context, ttl time.Duration) []string {
	now := gm.clock.Now()

	gm.mu.RLock()
	var candidates []string
	for code, mr := range gm.rooms {
		s := mr.room.Snapshot()
		idle := now.Sub(s.LastActivity)
		if idle > ttl || (len(s.PlayersWithChips()) == 0 && idle > emptyRoomGrace) {
			candidates = append(candidates, code)
		}
	}
	gm.mu.RUnlock()

	var deleted []string
	for _, code := range candidates {
		if err := gm.DeleteRoom(ctx, code); err != nil {
			gm.logger.Warn("Failed to sweep room", "room", code, "error", err)
			continue
		}
		deleted = append(deleted, code)
	}
	if len(deleted) > 0 {
		gm.logger.Info("Swept idle rooms", "rooms", deleted)
	}
	return deleted
}

// RunSweeper calls SweepIdle every interval until ctx is cancelled.
func (gm *GameManager) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	ticker := gm.clock.NewTicker(interval, "sweeper")
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gm.SweepIdle(ctx, ttl)
		}
	}
}

// Package game implements the authoritative Texas Hold'em room state machine.
//
// A Room owns one GameState and applies every operation to it under a single
// mutex, so requests against the same room are strictly ordered while
// different rooms never contend. Timers (winner confirmation and the paced
// all-in reveal) re-enter the same lock and are cancelled by any transition
// that supersedes them.
//
// # Basic Usage
//
//	r := game.NewRoom("ABCD", game.WithBlinds(10, 20))
//	_ = r.AddPlayer("p1", "Alice")
//	_ = r.AddPlayer("p2", "Bob")
//	_ = r.StartGame()
//	err := r.HandleAction("p1", game.Action{Type: game.ActionCall})
//
// Every committed mutation hands a deep-copied snapshot to the Observer
// registered with WithObserver. Persisting and broadcasting those snapshots
// is the caller's job.
//
// # Deterministic Testing
//
// Inject a quartz mock clock with WithClock and a fixed deck with
// WithDeckFactory (see poker.NewStackedDeck) or a seeded RNG with WithRand.
//
// # Chip Conservation
//
// Stacks plus pot plus side pots must not change across an operation unless
// stacks were deliberately reset. Violations are passed to the handler set by
// WithViolationHandler as a *ConservationError.
package game

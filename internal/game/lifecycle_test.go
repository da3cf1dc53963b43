package game

import (
	"errors"
	"testing"
)

func TestAddPlayer(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob"}, WithMaxPlayers(3))

	if err := r.AddPlayer("alice", "Alice again"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Errorf("duplicate: %v", err)
	}
	if err := r.AddPlayer("carol", "carol"); err != nil {
		t.Fatal(err)
	}
	if err := r.AddPlayer("dave", "dave"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("full room: %v", err)
	}

	s := r.Snapshot()
	if s.HostPlayerID != "alice" {
		t.Errorf("host %s, want the first player", s.HostPlayerID)
	}
	for i, p := range s.Players {
		if p.Position != i || p.Chips != DefaultStartingChips || !p.IsActive {
			t.Errorf("player %d: %+v", i, p)
		}
	}
	if s.Stage != StageSettings {
		t.Errorf("stage %s, want settings", s.Stage)
	}
}

func TestLateJoinerSitsOutTheHand(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})
	r.start()
	if err := r.AddPlayer("dave", "dave"); err != nil {
		t.Fatal(err)
	}
	p := r.Snapshot().Player("dave")
	if !p.HasFolded || len(p.Cards) != 0 {
		t.Errorf("late joiner should sit out: %+v", p)
	}
	foldOut(r)
	if r.current() == "dave" {
		t.Error("late joiner was given the turn")
	}
}

func TestStartGameRequirements(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice"})
	if err := r.StartGame(); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("one player: %v", err)
	}
	if err := r.AddPlayer("bob", "bob"); err != nil {
		t.Fatal(err)
	}
	r.start()
	if err := r.StartGame(); !errors.Is(err, ErrGameInProgress) {
		t.Errorf("mid-hand: %v", err)
	}

	s := r.Snapshot()
	if s.HandID == "" || s.HandNumber != 1 || !s.IsActive {
		t.Errorf("hand bookkeeping: id=%q number=%d active=%v", s.HandID, s.HandNumber, s.IsActive)
	}
	for _, p := range s.Players {
		if len(p.Cards) != 2 {
			t.Errorf("%s has %d hole cards", p.ID, len(p.Cards))
		}
	}
	if len(s.Ledger.Board) != 5 {
		t.Errorf("board pre-dealt with %d cards", len(s.Ledger.Board))
	}
}

func TestRemovePlayer(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})

	if err := r.RemovePlayer("dave"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player: %v", err)
	}
	if err := r.RemovePlayer("alice"); err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()
	if s.HostPlayerID != "bob" {
		t.Errorf("host %s, want bob", s.HostPlayerID)
	}
	for i, p := range s.Players {
		if p.Position != i {
			t.Errorf("%s at position %d, want %d", p.ID, p.Position, i)
		}
	}
}

func TestRemovingCurrentPlayerPassesTheTurn(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol", "dave"})
	r.start()
	// dealer alice, blinds bob/carol, dave first
	if r.current() != "dave" {
		t.Fatalf("current %s", r.current())
	}
	if err := r.RemovePlayer("dave"); err != nil {
		t.Fatal(err)
	}
	if r.current() != "alice" {
		t.Errorf("current %s, want alice", r.current())
	}
}

func TestRemovalMidHandEndsHeadsUpGame(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob"})
	r.start()
	r.act("alice", ActionCall, 0)

	if err := r.RemovePlayer("bob"); err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()
	if s.Stage != StageEnded || s.IsActive {
		t.Fatalf("stage %s active %v, want ended", s.Stage, s.IsActive)
	}
	if s.Players[0].Chips != 1020 || s.Pot != 0 {
		t.Errorf("alice has %d, pot %d", s.Players[0].Chips, s.Pot)
	}
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob"})
	settings := Settings{StartingChips: 500, SmallBlind: 5, BigBlind: 10}

	if err := r.UpdateSettings("bob", settings); !errors.Is(err, ErrNotHost) {
		t.Errorf("non-host: %v", err)
	}
	if err := r.UpdateSettings("alice", Settings{StartingChips: 500, SmallBlind: 20, BigBlind: 10}); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("small above big: %v", err)
	}
	if err := r.UpdateSettings("alice", settings); err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()
	if s.SmallBlind != 5 || s.BigBlind != 10 || s.MinRaise != 10 || s.Settings != settings {
		t.Errorf("settings not applied: %+v", s.Settings)
	}
	for _, p := range s.Players {
		if p.Chips != 500 {
			t.Errorf("%s has %d chips", p.ID, p.Chips)
		}
	}

	r.start()
	if err := r.UpdateSettings("alice", settings); !errors.Is(err, ErrSettingsLocked) {
		t.Errorf("mid-game: %v", err)
	}
}

func TestResetToSettings(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})
	r.start()
	foldOut(r)

	if err := r.ResetToSettings("bob"); !errors.Is(err, ErrNotHost) {
		t.Errorf("non-host: %v", err)
	}
	if err := r.IncreaseBlind("alice", 0); err != nil {
		t.Fatal(err)
	}
	if err := r.ResetToSettings("alice"); err != nil {
		t.Fatal(err)
	}

	s := r.Snapshot()
	if s.Stage != StageSettings || s.BlindIncrease != nil || s.Ledger != nil || s.AwaitingConfirmation {
		t.Fatalf("not reset: %+v", s)
	}
	for _, p := range s.Players {
		if p.Chips != DefaultStartingChips || len(p.Cards) != 0 {
			t.Errorf("%s not reset: %+v", p.ID, p)
		}
	}

	r.advance(DefaultTimings().ConfirmTimeout)
	if got := r.Snapshot().Stage; got != StageSettings {
		t.Errorf("stale timer moved the room to %s", got)
	}
}

func TestIncreaseBlind(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})

	if err := r.IncreaseBlind("bob", 40); !errors.Is(err, ErrNotHost) {
		t.Errorf("non-host: %v", err)
	}
	if err := r.IncreaseBlind("alice", 0); err != nil {
		t.Fatal(err)
	}
	if bi := r.Snapshot().BlindIncrease; bi == nil || !bi.Pending {
		t.Fatalf("prompt not pending: %+v", bi)
	}

	r.start()
	if err := r.IncreaseBlind("alice", 40); !errors.Is(err, ErrGameInProgress) {
		t.Errorf("mid-hand: %v", err)
	}
	foldOut(r)

	if err := r.IncreaseBlind("alice", 40); err != nil {
		t.Fatal(err)
	}
	s := r.Snapshot()
	if s.BigBlind != 40 || s.SmallBlind != 20 || s.MinRaise != 40 {
		t.Errorf("blinds %d/%d min raise %d", s.SmallBlind, s.BigBlind, s.MinRaise)
	}
	if s.Stage != StagePreflop || s.HandNumber != 2 || s.BlindIncrease != nil {
		t.Errorf("stage %s hand %d prompt %+v", s.Stage, s.HandNumber, s.BlindIncrease)
	}
	if s.DealerPosition != 1 {
		t.Errorf("dealer %d, want 1", s.DealerPosition)
	}

	// The confirmation timer from the previous hand is gone.
	r.advance(DefaultTimings().ConfirmTimeout)
	if got := r.Snapshot().HandNumber; got != 2 {
		t.Errorf("stale timer dealt hand %d", got)
	}

	foldOut(r)
	if err := r.IncreaseBlind("alice", 30); err != nil {
		t.Fatal(err)
	}
	if s := r.Snapshot(); s.BigBlind != 40 || s.HandNumber != 3 {
		t.Errorf("decline changed blinds to %d or did not deal (hand %d)", s.BigBlind, s.HandNumber)
	}
}

func TestEliminationDoublesBlinds(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"},
		stacked([]string{"As Ah", "Ks Kh", "7c 2d"}, "Qc Jd 9h 4s 3c"))
	r.setChips(1000, 1000, 20)
	r.start()

	// carol is all-in from the big blind
	r.act("alice", ActionCall, 0)
	r.act("bob", ActionCall, 0)
	r.checkDown()
	if r.chips("carol") != 0 {
		t.Fatalf("carol has %d", r.chips("carol"))
	}

	if err := r.StartNextHand("bob"); !errors.Is(err, ErrNotHost) {
		t.Errorf("non-host: %v", err)
	}
	if err := r.StartNextHand("alice"); err != nil {
		t.Fatal(err)
	}

	s := r.Snapshot()
	if s.BigBlind != 40 || s.SmallBlind != 20 {
		t.Errorf("blinds %d/%d, want 20/40", s.SmallBlind, s.BigBlind)
	}
	carol := s.Player("carol")
	if carol.IsActive || !carol.HasFolded || len(carol.Cards) != 0 {
		t.Errorf("eliminated player still in the hand: %+v", carol)
	}
	if s.DealerPosition != 1 || s.SmallBlindPosition != 1 || s.BigBlindPosition != 0 {
		t.Errorf("dealer %d sb %d bb %d", s.DealerPosition, s.SmallBlindPosition, s.BigBlindPosition)
	}
	if s.Player("bob").CurrentBet != 20 || s.Player("alice").CurrentBet != 40 {
		t.Errorf("blinds posted bob=%d alice=%d", s.Player("bob").CurrentBet, s.Player("alice").CurrentBet)
	}

	r.advance(DefaultTimings().ConfirmTimeout)
	if got := r.Snapshot().HandNumber; got != 2 {
		t.Errorf("stale timer dealt hand %d", got)
	}
}

// bustCarol plays a hand in which carol loses her whole stack from the big
// blind, leaving the room awaiting confirmation.
func bustCarol(t *testing.T) *testRoom {
	t.Helper()
	r := newTestRoom(t, []string{"alice", "bob", "carol"},
		stacked([]string{"As Ah", "Ks Kh", "7c 2d"}, "Qc Jd 9h 4s 3c"))
	r.setChips(1000, 1000, 20)
	r.start()
	r.act("alice", ActionCall, 0)
	r.act("bob", ActionCall, 0)
	r.checkDown()
	if s := r.Snapshot(); s.Stage != StageEnded || !s.AwaitingConfirmation || r.chips("carol") != 0 {
		t.Fatalf("stage %s awaiting %v carol %d", s.Stage, s.AwaitingConfirmation, r.chips("carol"))
	}
	return r
}

func TestIncreaseBlindCountsEliminations(t *testing.T) {
	t.Parallel()

	t.Run("decline keeps the doubled blinds", func(t *testing.T) {
		t.Parallel()
		r := bustCarol(t)
		if err := r.IncreaseBlind("alice", 30); err != nil {
			t.Fatal(err)
		}
		s := r.Snapshot()
		if s.SmallBlind != 20 || s.BigBlind != 40 {
			t.Errorf("blinds %d/%d, want 20/40", s.SmallBlind, s.BigBlind)
		}
		if carol := s.Player("carol"); carol.IsActive || len(carol.Cards) != 0 {
			t.Errorf("carol still in play: %+v", carol)
		}
		if s.HandNumber != 2 || s.Stage != StagePreflop {
			t.Errorf("hand %d stage %s", s.HandNumber, s.Stage)
		}
	})

	t.Run("a larger amount applies on top", func(t *testing.T) {
		t.Parallel()
		r := bustCarol(t)
		if err := r.IncreaseBlind("alice", 100); err != nil {
			t.Fatal(err)
		}
		if s := r.Snapshot(); s.SmallBlind != 50 || s.BigBlind != 100 {
			t.Errorf("blinds %d/%d, want 50/100", s.SmallBlind, s.BigBlind)
		}
	})
}

func TestStartGameAfterHandCountsEliminations(t *testing.T) {
	t.Parallel()
	r := bustCarol(t)
	r.start()

	s := r.Snapshot()
	if s.BigBlind != 40 || s.SmallBlind != 20 {
		t.Errorf("blinds %d/%d, want 20/40", s.SmallBlind, s.BigBlind)
	}
	if s.Player("carol").IsActive {
		t.Error("carol should be eliminated")
	}

	// The next hand boundary must not count carol a second time.
	foldOut(r)
	if err := r.StartNextHand("alice"); err != nil {
		t.Fatal(err)
	}
	if got := r.Snapshot().BigBlind; got != 40 {
		t.Errorf("big blind %d after a hand with no busts, want 40", got)
	}
}

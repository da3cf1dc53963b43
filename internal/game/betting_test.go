package game

import (
	"errors"
	"testing"
)

func TestFoldOutWin(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})
	r.start()

	s := r.Snapshot()
	if s.SmallBlindPosition != 1 || s.BigBlindPosition != 2 {
		t.Fatalf("blinds at %d/%d, want 1/2", s.SmallBlindPosition, s.BigBlindPosition)
	}
	if s.Pot != 30 || s.CurrentBet != 20 {
		t.Fatalf("pot %d current bet %d after blinds", s.Pot, s.CurrentBet)
	}
	if r.current() != "alice" {
		t.Fatalf("first to act is %s, want alice", r.current())
	}

	r.act("alice", ActionRaise, 40)
	r.act("bob", ActionFold, 0)
	r.act("carol", ActionFold, 0)

	s = r.Snapshot()
	if s.Stage != StageEnded {
		t.Fatalf("stage %s, want ended", s.Stage)
	}
	if s.LastAction == nil || s.LastAction.Action != "win by fold" || s.LastAction.PlayerID != "alice" {
		t.Fatalf("last action %+v", s.LastAction)
	}
	if s.LastAction.Amount != 90 {
		t.Errorf("won %d, want 90", s.LastAction.Amount)
	}
	if s.Pot != 0 {
		t.Errorf("pot %d after fold win", s.Pot)
	}
	want := map[string]int{"alice": 1030, "bob": 990, "carol": 980}
	for id, chips := range want {
		if got := r.chips(id); got != chips {
			t.Errorf("%s has %d chips, want %d", id, got, chips)
		}
	}
	if !s.AwaitingConfirmation {
		t.Error("confirmation window should be open")
	}
}

func TestRejectedActionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})

	if err := r.HandleAction("alice", Action{Type: ActionCheck}); !errors.Is(err, ErrHandNotInProgress) {
		t.Fatalf("action before start: %v", err)
	}
	r.start()
	before, _ := r.Serialize()

	tests := []struct {
		name   string
		player string
		action Action
		want   error
	}{
		{"check facing a bet", "alice", Action{Type: ActionCheck}, ErrIgnored},
		{"bet when a bet exists", "alice", Action{Type: ActionBet, Amount: 100}, ErrIgnored},
		{"raise below minimum", "alice", Action{Type: ActionRaise, Amount: 5}, ErrIgnored},
		{"raise beyond stack", "alice", Action{Type: ActionRaise, Amount: 5000}, ErrIgnored},
		{"out of turn", "bob", Action{Type: ActionCall}, ErrNotYourTurn},
		{"unknown player", "dave", Action{Type: ActionCall}, ErrPlayerNotFound},
		{"unknown action", "alice", Action{Type: "dance"}, ErrInvalidAction},
	}
	for _, tt := range tests {
		if err := r.HandleAction(tt.player, tt.action); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}

	after, _ := r.Serialize()
	if string(before) != string(after) {
		t.Error("rejected actions mutated the room")
	}
}

func TestHeadsUpStreetProgression(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob"})
	r.start()

	s := r.Snapshot()
	if s.SmallBlindPosition != 0 || s.BigBlindPosition != 1 {
		t.Fatalf("heads-up dealer should post the small blind, got sb=%d bb=%d", s.SmallBlindPosition, s.BigBlindPosition)
	}
	if r.current() != "alice" {
		t.Fatalf("dealer acts first preflop heads-up, got %s", r.current())
	}
	if len(s.CommunityCards) != 0 {
		t.Fatalf("board visible preflop: %v", s.CommunityCards)
	}

	r.act("alice", ActionCall, 0)
	if r.current() != "bob" {
		t.Fatalf("big blind should get the option, got %s", r.current())
	}
	r.act("bob", ActionCheck, 0)

	s = r.Snapshot()
	if s.Stage != StageFlop || len(s.CommunityCards) != 3 {
		t.Fatalf("stage %s with %d cards, want flop with 3", s.Stage, len(s.CommunityCards))
	}
	if s.CurrentBet != 0 || s.MinRaise != 20 {
		t.Errorf("round not reset: current bet %d min raise %d", s.CurrentBet, s.MinRaise)
	}
	if r.current() != "bob" {
		t.Errorf("non-dealer acts first after the flop, got %s", r.current())
	}

	r.act("bob", ActionBet, 40)
	if err := r.HandleAction("alice", Action{Type: ActionRaise, Amount: 20}); !errors.Is(err, ErrIgnored) {
		t.Errorf("raise below the last bet should be ignored: %v", err)
	}
	r.act("alice", ActionRaise, 40)
	s = r.Snapshot()
	if s.CurrentBet != 80 || s.MinRaise != 40 {
		t.Errorf("after raise: current bet %d min raise %d", s.CurrentBet, s.MinRaise)
	}
	if !s.Players[0].HasActed || s.Players[1].HasActed {
		t.Error("raise should reopen action for bob only")
	}
	r.act("bob", ActionCall, 0)

	s = r.Snapshot()
	if s.Stage != StageTurn || len(s.CommunityCards) != 4 {
		t.Fatalf("stage %s with %d cards, want turn with 4", s.Stage, len(s.CommunityCards))
	}
	if s.Pot != 200 {
		t.Errorf("pot %d, want 200", s.Pot)
	}
	if len(s.Ledger.Streets) != 2 || s.Ledger.Streets[1].Bets["alice"] != 80 {
		t.Errorf("ledger %+v", s.Ledger.Streets)
	}
}

func TestAllInPlayerNeverGetsTurn(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})
	r.setChips(50, 1000, 1000)
	r.start()

	r.act("alice", ActionAllIn, 0)
	for _, step := range []struct {
		id     string
		typ    ActionType
		amount int
	}{
		{"bob", ActionCall, 0},
		{"carol", ActionCall, 0},
		{"bob", ActionCheck, 0},
		{"carol", ActionBet, 20},
		{"bob", ActionCall, 0},
		{"bob", ActionFold, 0},
	} {
		if r.current() == "alice" {
			t.Fatalf("all-in player selected to act on %s", r.Snapshot().Stage)
		}
		r.act(step.id, step.typ, step.amount)
	}

	// Only carol can act on the turn and river; she still gets both turns.
	for _, stage := range []Stage{StageTurn, StageRiver} {
		s := r.Snapshot()
		if s.Stage != stage || r.current() != "carol" || s.DramaticReveal {
			t.Fatalf("stage %s current %s reveal %v", s.Stage, r.current(), s.DramaticReveal)
		}
		r.act("carol", ActionCheck, 0)
	}
	if s := r.Snapshot(); s.Stage != StageEnded || s.DramaticReveal {
		t.Fatalf("stage %s reveal %v, want a plain showdown", s.Stage, s.DramaticReveal)
	}
}

func TestLoneStackActsAgainstCoveredAllIn(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"},
		stacked([]string{"As Ah", "Ks Kh", "7c 2d"}, "Qc Jd 9h 4s 3c"))
	r.setChips(50, 1000, 1000)
	r.start()

	r.act("alice", ActionAllIn, 0)
	r.act("bob", ActionCall, 0)
	r.act("carol", ActionFold, 0)

	s := r.Snapshot()
	if s.Stage != StageFlop || r.current() != "bob" {
		t.Fatalf("stage %s current %s, want bob on the flop", s.Stage, r.current())
	}
	if s.DramaticReveal || s.ShowAllHoleCards {
		t.Fatal("reveal started while bob can still act")
	}

	r.act("bob", ActionCheck, 0)
	if s := r.Snapshot(); s.Stage != StageTurn || r.current() != "bob" {
		t.Fatalf("stage %s current %s, want bob on the turn", s.Stage, r.current())
	}
	r.act("bob", ActionCheck, 0)
	r.act("bob", ActionCheck, 0)

	s = r.Snapshot()
	if s.Stage != StageEnded || s.DramaticReveal {
		t.Fatalf("stage %s reveal %v", s.Stage, s.DramaticReveal)
	}
	// alice wins the 50 from each caller plus carol's big blind.
	if got := r.chips("alice"); got != 120 {
		t.Errorf("alice has %d, want 120", got)
	}
}

func TestShortAllInDoesNotReopenAction(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob", "carol"})
	r.start()

	r.act("alice", ActionRaise, 80) // to 100
	r.setChips(900, 30, 980)
	r.act("bob", ActionAllIn, 0) // 10 + 30, short of 100

	s := r.Snapshot()
	if s.CurrentBet != 100 {
		t.Fatalf("current bet %d, want 100", s.CurrentBet)
	}
	if !s.Players[0].HasActed {
		t.Error("short all-in must not reopen action for the raiser")
	}
	if r.current() != "carol" {
		t.Errorf("current %s, want carol", r.current())
	}
}

func TestBlindsCanPutPlayersAllIn(t *testing.T) {
	t.Parallel()
	r := newTestRoom(t, []string{"alice", "bob"},
		stacked([]string{"As Ah", "7c 2d"}, "Kc Kd 9h 4s 3c"))
	r.setChips(1000, 15)
	r.start()

	s := r.Snapshot()
	if !s.Players[1].IsAllIn || s.Players[1].CurrentBet != 15 {
		t.Fatalf("bob should be all-in for 15 from the big blind: %+v", s.Players[1])
	}
	if s.CurrentBet != 15 {
		t.Errorf("current bet %d, want 15", s.CurrentBet)
	}
	// alice posted 10 and owes 5 more
	r.act("alice", ActionCall, 0)
	if s := r.Snapshot(); s.Stage != StageFlop || r.current() != "alice" {
		t.Fatalf("stage %s current %s, want alice on the flop", s.Stage, r.current())
	}
	r.checkDown()
	if r.chips("bob") != 0 || r.chips("alice") != 1015 {
		t.Errorf("chips alice=%d bob=%d", r.chips("alice"), r.chips("bob"))
	}
}

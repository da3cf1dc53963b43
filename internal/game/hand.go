package game

import (
	"github.com/google/uuid"

	"github.com/lox/pokerrooms/poker"
)

// startNewHand deals a fresh hand. Players without chips sit the hand out.
func (r *Room) startNewHand() error {
	s := r.state
	if len(s.PlayersWithChips()) < 2 {
		return ErrNotEnoughPlayers
	}

	deck := r.newDeck()
	s.Ledger = newHandLedger(s.Players)
	s.HandID = uuid.NewString()
	s.HandNumber++
	s.Stage = StagePreflop
	s.Pot = 0
	s.SidePots = nil
	s.CurrentBet = 0
	s.MinRaise = s.BigBlind
	s.LastAction = nil
	s.ShowdownHands = nil
	s.WinnerConfirmations = nil
	s.AwaitingConfirmation = false
	s.DramaticReveal = false
	s.ShowAllHoleCards = false
	s.IsActive = true

	for _, p := range s.Players {
		p.resetForHand()
		if p.Chips <= 0 {
			p.HasFolded = true
			p.IsActive = false
		} else {
			p.IsActive = true
		}
	}

	r.setBlindPositions()
	r.postBlinds()
	r.dealHoleCards(deck)
	s.Ledger.Board = deck.Deal(5)
	s.revealBoard()
	s.CurrentPlayerIndex = r.firstToAct()

	r.logger.Info("Hand started",
		"hand", s.HandNumber,
		"dealer", s.DealerPosition,
		"blinds", []int{s.SmallBlind, s.BigBlind},
		"players", len(s.PlayersWithChips()))

	// Blinds alone can put every player all-in.
	if r.actionClosed() {
		r.advanceStage()
	}
	return nil
}

// setBlindPositions places the dealer button and both blinds on seats that
// still have chips.
func (r *Room) setBlindPositions() {
	s := r.state
	n := len(s.Players)

	if w := s.LastGameWinner; w != nil {
		if i := s.playerIndex(w.PlayerID); i >= 0 && s.Players[i].Chips > 0 {
			s.DealerPosition = i
		}
		s.LastGameWinner = nil
	}
	if s.DealerPosition < 0 || s.DealerPosition >= n {
		s.DealerPosition = 0
	}
	if s.Players[s.DealerPosition].Chips <= 0 {
		s.DealerPosition = r.nextWithChips(s.DealerPosition)
	}

	if len(s.PlayersWithChips()) == 2 {
		// Heads-up the dealer posts the small blind.
		s.SmallBlindPosition = s.DealerPosition
		s.BigBlindPosition = r.nextWithChips(s.DealerPosition)
		return
	}
	s.SmallBlindPosition = r.nextWithChips(s.DealerPosition)
	s.BigBlindPosition = r.nextWithChips(s.SmallBlindPosition)
}

// nextWithChips returns the first seat after from that has chips, or from.
func (r *Room) nextWithChips(from int) int {
	n := len(r.state.Players)
	for i := 1; i <= n; i++ {
		j := (from + i) % n
		if r.state.Players[j].Chips > 0 {
			return j
		}
	}
	return from
}

// postBlinds posts both blinds, capped by stack size.
func (r *Room) postBlinds() {
	s := r.state
	sb := s.Players[s.SmallBlindPosition]
	bb := s.Players[s.BigBlindPosition]

	sbAmount := sb.commit(s.SmallBlind)
	bbAmount := bb.commit(s.BigBlind)
	s.Pot += sbAmount + bbAmount
	s.CurrentBet = max(sbAmount, bbAmount)
	if sb.IsAllIn || bb.IsAllIn {
		s.Ledger.AnyAllIn = true
	}
}

// dealHoleCards deals two cards to every seated player, one at a time.
func (r *Room) dealHoleCards(deck *poker.Deck) {
	for range 2 {
		for _, p := range r.state.Players {
			if !p.inHand() {
				continue
			}
			if c, ok := deck.DealOne(); ok {
				p.Cards = append(p.Cards, c)
			}
		}
	}
}

// firstToAct returns the seat left of the big blind preflop or left of the
// dealer afterwards, skipping players who cannot act.
func (r *Room) firstToAct() int {
	s := r.state
	n := len(s.Players)
	if n == 0 {
		return 0
	}
	start := (s.DealerPosition + 1) % n
	if s.Stage == StagePreflop {
		start = (s.BigBlindPosition + 1) % n
	}
	for i := range n {
		j := (start + i) % n
		if s.Players[j].canAct() {
			return j
		}
	}
	return start
}

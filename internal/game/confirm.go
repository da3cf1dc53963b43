package game

import "slices"

// startConfirmation opens the window in which players acknowledge the result.
func (r *Room) startConfirmation() {
	s := r.state
	s.WinnerConfirmations = []string{}
	s.AwaitingConfirmation = true
	r.schedule(confirmTimer, r.timings.ConfirmTimeout, r.confirmTimeout)
}

func (r *Room) confirmTimeout() {
	defer r.conserve("confirm timeout")()
	r.logger.Debug("Confirmation window elapsed", "confirmed", len(r.state.WinnerConfirmations))
	r.settleConfirmation()
	r.commit()
}

// ConfirmWinner acknowledges the hand result. Repeat confirmations and
// confirmations from players without chips have no effect. Once everyone
// with chips has confirmed the room moves on without waiting for the timer.
func (r *Room) ConfirmWinner(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	p := s.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !s.AwaitingConfirmation {
		return ErrNotEnded
	}
	if p.Chips <= 0 || slices.Contains(s.WinnerConfirmations, playerID) {
		return nil
	}

	defer r.conserve("confirm")()
	s.WinnerConfirmations = append(s.WinnerConfirmations, playerID)
	r.maybeSettle()
	r.commit()
	return nil
}

// maybeSettle moves on once every player with chips has confirmed.
func (r *Room) maybeSettle() {
	s := r.state
	for _, p := range s.PlayersWithChips() {
		if !slices.Contains(s.WinnerConfirmations, p.ID) {
			return
		}
	}
	r.settleConfirmation()
}

// settleConfirmation closes the window: a sole survivor wins the game,
// otherwise the next hand is dealt.
func (r *Room) settleConfirmation() {
	s := r.state
	r.cancelTimer(confirmTimer)
	s.AwaitingConfirmation = false
	s.WinnerConfirmations = nil

	withChips := s.PlayersWithChips()
	if len(withChips) == 1 {
		winner := withChips[0]
		s.LastGameWinner = &GameWinner{PlayerID: winner.ID, PlayerName: winner.Name}
		r.logger.Info("Game won", "winner", winner.Name)
		r.resetToSettings(winner.ID)
		return
	}
	r.endHand()
}

package game

// HandleAction applies a betting action for the player whose turn it is.
// Illegal checks, bets and raises return ErrIgnored and change nothing.
func (r *Room) HandleAction(playerID string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	idx := s.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if !s.Stage.Betting() || s.DramaticReveal {
		return ErrHandNotInProgress
	}
	if idx != s.CurrentPlayerIndex || !s.Players[idx].canAct() {
		return ErrNotYourTurn
	}

	defer r.conserve("action")()

	p := s.Players[idx]
	amount, err := r.applyAction(p, action)
	if err != nil {
		r.logger.Debug("Action rejected", "player", p.Name, "action", action.Type, "amount", action.Amount, "error", err)
		return err
	}

	p.HasActed = true
	p.LastAction = &Action{Type: action.Type, Amount: amount}
	s.LastAction = &LastAction{PlayerID: p.ID, PlayerName: p.Name, Action: string(action.Type), Amount: amount}
	if p.IsAllIn {
		s.Ledger.AnyAllIn = true
	}
	r.logger.Debug("Action", "player", p.Name, "action", action.Type, "amount", amount, "pot", s.Pot)

	r.advanceGame()
	r.commit()
	return nil
}

// applyAction moves chips for a validated action and returns the amount the
// player put in.
func (r *Room) applyAction(p *Player, action Action) (int, error) {
	s := r.state
	toCall := s.CurrentBet - p.CurrentBet

	switch action.Type {
	case ActionFold:
		p.HasFolded = true
		return 0, nil

	case ActionCheck:
		if toCall > 0 {
			return 0, ErrIgnored
		}
		return 0, nil

	case ActionCall:
		paid := p.commit(toCall)
		s.Pot += paid
		return paid, nil

	case ActionBet:
		if s.CurrentBet > 0 || action.Amount < s.MinRaise || action.Amount > p.Chips {
			return 0, ErrIgnored
		}
		paid := p.commit(action.Amount)
		s.Pot += paid
		s.CurrentBet = p.CurrentBet
		s.MinRaise = action.Amount
		r.reopen(p)
		return paid, nil

	case ActionRaise:
		if action.Amount <= 0 || action.Amount < s.MinRaise || p.Chips < toCall+action.Amount {
			return 0, ErrIgnored
		}
		paid := p.commit(toCall + action.Amount)
		s.Pot += paid
		s.CurrentBet = p.CurrentBet
		s.MinRaise = action.Amount
		r.reopen(p)
		return paid, nil

	case ActionAllIn:
		paid := p.commit(p.Chips)
		s.Pot += paid
		if p.CurrentBet > s.CurrentBet {
			if raise := p.CurrentBet - s.CurrentBet; raise >= s.MinRaise {
				s.MinRaise = raise
			}
			s.CurrentBet = p.CurrentBet
			r.reopen(p)
		}
		return paid, nil

	default:
		return 0, ErrInvalidAction
	}
}

// reopen gives every other contender another decision after a bet or raise.
func (r *Room) reopen(aggressor *Player) {
	for _, p := range r.state.Players {
		if p != aggressor && !p.HasFolded {
			p.HasActed = false
		}
	}
}

// advanceGame resolves a fold-out, closes the betting round or passes the
// turn to the next player who can act.
func (r *Room) advanceGame() {
	s := r.state
	if remaining := s.remaining(); len(remaining) == 1 {
		r.awardFoldWin(remaining[0])
		return
	}
	if r.roundComplete() {
		r.advanceStage()
		return
	}

	n := len(s.Players)
	for i := 1; i <= n; i++ {
		j := (s.CurrentPlayerIndex + i) % n
		if s.Players[j].canAct() {
			s.CurrentPlayerIndex = j
			return
		}
	}
	r.advanceStage()
}

// roundComplete reports whether the current betting round is finished.
func (r *Room) roundComplete() bool {
	s := r.state
	actors := s.actors()
	switch {
	case len(actors) == 0:
		return true
	case len(s.remaining()) == 1:
		return true
	case len(actors) == 1:
		return actors[0].HasActed
	}
	for _, p := range actors {
		if !p.HasActed || p.CurrentBet != s.CurrentBet {
			return false
		}
	}
	return true
}

// actionClosed reports whether nobody left in the hand can act. A single
// player with chips still acts on every street against all-in opponents.
func (r *Room) actionClosed() bool {
	return len(r.state.actors()) == 0
}

// advanceStage closes the betting round and moves to the next street,
// the all-in reveal or showdown.
func (r *Room) advanceStage() {
	s := r.state
	s.Ledger.recordStreet(s.Stage, s.Players)
	for _, p := range s.Players {
		p.HasActed = false
		p.CurrentBet = 0
		p.LastAction = nil
	}
	s.CurrentBet = 0
	s.MinRaise = s.BigBlind
	r.splitSidePots()

	if remaining := s.remaining(); len(remaining) == 1 {
		r.awardFoldWin(remaining[0])
		return
	}
	if r.actionClosed() {
		if s.Stage == StageRiver {
			r.showdown()
			return
		}
		r.startReveal()
		return
	}

	s.Stage = s.Stage.next()
	if s.Stage == StageShowdown {
		r.showdown()
		return
	}
	s.revealBoard()
	s.CurrentPlayerIndex = r.firstToAct()
	r.logger.Debug("Street", "stage", s.Stage, "board", s.CommunityCards)
}

package game

import (
	"slices"
)

// AddPlayer seats a new player with the configured starting stack. The first
// player to join becomes the host. Players joining mid-hand sit it out.
func (r *Room) AddPlayer(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if s.playerIndex(id) >= 0 {
		return ErrDuplicatePlayer
	}
	if len(s.Players) >= s.MaxPlayers {
		return ErrRoomFull
	}

	p := &Player{
		ID:       id,
		Name:     name,
		Chips:    s.Settings.StartingChips,
		IsActive: true,
		Position: len(s.Players),
	}
	if s.Stage.Betting() || s.Stage == StageShowdown {
		p.HasFolded = true
	}
	if len(s.Players) == 0 {
		s.HostPlayerID = id
	}
	s.Players = append(s.Players, p)

	r.logger.Info("Player joined", "player", name, "id", id, "seats", len(s.Players))
	r.commit()
	return nil
}

// RemovePlayer unseats a player. Chips they already bet stay in the pot.
// A hand left with a single player is awarded to them and the game ends.
func (r *Room) RemovePlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	idx := s.playerIndex(id)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	removed := s.Players[idx]
	wasCurrent := s.Stage.Betting() && !s.DramaticReveal && idx == s.CurrentPlayerIndex

	if s.Ledger != nil && s.Stage.Betting() && removed.CurrentBet > 0 {
		s.Ledger.Streets = append(s.Ledger.Streets, StreetBets{Stage: s.Stage, Bets: map[string]int{id: removed.CurrentBet}})
	}

	s.Players = slices.Delete(s.Players, idx, idx+1)
	n := len(s.Players)
	for i, p := range s.Players {
		p.Position = i
	}

	// Seats at or after the removed one shift down. A marker that sat on the
	// removed seat moves to the seat before it so the next rotation lands on
	// the player who followed.
	shift := func(pos int) int {
		switch {
		case n == 0:
			return 0
		case pos > idx:
			return pos - 1
		case pos == idx:
			return (idx - 1 + n) % n
		}
		return pos
	}
	s.DealerPosition = shift(s.DealerPosition)
	s.SmallBlindPosition = shift(s.SmallBlindPosition)
	s.BigBlindPosition = shift(s.BigBlindPosition)
	s.CurrentPlayerIndex = shift(s.CurrentPlayerIndex)

	if s.HostPlayerID == id {
		s.HostPlayerID = ""
		for i := range n {
			if p := s.Players[(idx+i)%n]; p.Chips > 0 {
				s.HostPlayerID = p.ID
				break
			}
		}
		if s.HostPlayerID == "" && n > 0 {
			s.HostPlayerID = s.Players[idx%n].ID
		}
	}
	s.WinnerConfirmations = slices.DeleteFunc(s.WinnerConfirmations, func(c string) bool { return c == id })

	r.logger.Info("Player left", "player", removed.Name, "id", id, "seats", n)

	switch {
	case s.Stage.Betting() && n < 2:
		if n == 1 {
			s.Players[0].Chips += s.Pot
			for _, sp := range s.SidePots {
				s.Players[0].Chips += sp.Amount
			}
		}
		s.Pot = 0
		s.SidePots = nil
		r.endGame()
	case s.Stage.Betting():
		if remaining := s.remaining(); len(remaining) == 1 {
			r.awardFoldWin(remaining[0])
		} else if wasCurrent {
			r.advanceGame()
		}
	case s.AwaitingConfirmation:
		r.maybeSettle()
	}

	r.commit()
	return nil
}

// StartGame deals the first hand. It is allowed before the game, between
// hands and after a game has ended.
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if len(s.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	switch s.Stage {
	case StageSettings, StageWaiting, StageEnded:
	default:
		return ErrGameInProgress
	}
	if len(s.PlayersWithChips()) < 2 {
		return ErrNotEnoughPlayers
	}

	defer r.conserve("start game")()
	if s.Stage == StageEnded {
		r.settleEliminations()
	}
	r.resetHandState()
	if err := r.startNewHand(); err != nil {
		return err
	}
	r.commit()
	return nil
}

// StartNextHand lets the host skip the confirmation window.
func (r *Room) StartNextHand(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(playerID); err != nil {
		return err
	}
	s := r.state
	if s.Stage != StageEnded && s.Stage != StageShowdown {
		return ErrNotEnded
	}
	if len(s.PlayersWithChips()) < 2 {
		return ErrNotEnoughPlayers
	}

	defer r.conserve("start next hand")()
	r.cancelTimer(confirmTimer)
	s.AwaitingConfirmation = false
	s.WinnerConfirmations = nil
	r.endHand()
	r.commit()
	return nil
}

// UpdateSettings changes stacks and blinds before the game starts. Every
// seated player's stack is reset to the new starting chips.
func (r *Room) UpdateSettings(playerID string, settings Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(playerID); err != nil {
		return err
	}
	s := r.state
	if s.Stage != StageSettings {
		return ErrSettingsLocked
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	r.reseeds++
	s.Settings = settings
	s.SmallBlind = settings.SmallBlind
	s.BigBlind = settings.BigBlind
	s.MinRaise = settings.BigBlind
	for _, p := range s.Players {
		p.Chips = settings.StartingChips
	}

	r.logger.Info("Settings updated", "chips", settings.StartingChips, "small", settings.SmallBlind, "big", settings.BigBlind)
	r.commit()
	return nil
}

// IncreaseBlind is the host's blind escalation. A non-positive amount only
// raises the pending prompt. Otherwise a larger big blind is applied and the
// next hand is dealt; a smaller or equal amount declines and deals at the
// current blinds. The button moves on in both cases.
func (r *Room) IncreaseBlind(playerID string, newBigBlind int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(playerID); err != nil {
		return err
	}
	s := r.state
	if newBigBlind <= 0 {
		s.BlindIncrease = &BlindIncrease{Pending: true}
		r.commit()
		return nil
	}
	if s.Stage != StageEnded && s.Stage != StageWaiting {
		return ErrGameInProgress
	}
	if len(s.PlayersWithChips()) < 2 {
		return ErrNotEnoughPlayers
	}

	defer r.conserve("increase blind")()
	r.settleEliminations()
	if newBigBlind > s.BigBlind {
		s.BigBlind = newBigBlind
		s.SmallBlind = newBigBlind / 2
		s.MinRaise = newBigBlind
		r.logger.Info("Blinds increased", "small", s.SmallBlind, "big", s.BigBlind)
	}
	s.DealerPosition = r.nextWithChips(s.DealerPosition)
	s.BlindIncrease = nil
	r.resetHandState()
	if err := r.startNewHand(); err != nil {
		return err
	}
	r.commit()
	return nil
}

// ResetToSettings returns the room to the settings stage with fresh stacks
// and the configured blinds.
func (r *Room) ResetToSettings(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(playerID); err != nil {
		return err
	}
	r.resetToSettings(playerID)
	r.state.LastGameWinner = nil
	r.commit()
	return nil
}

// endHand settles eliminations between hands and deals the next one.
func (r *Room) endHand() {
	s := r.state
	r.settleEliminations()
	if len(s.PlayersWithChips()) < 2 {
		r.endGame()
		return
	}
	s.DealerPosition = (s.DealerPosition + 1) % len(s.Players)
	r.resetHandState()
	if err := r.startNewHand(); err != nil {
		r.logger.Warn("Could not deal next hand", "error", err)
	}
}

// settleEliminations counts the players who busted in the finished hand,
// moves the host off a broke seat and doubles the blinds once per bust.
// Every path out of a finished hand goes through here.
func (r *Room) settleEliminations() {
	s := r.state
	eliminated := r.markEliminated()
	if host := s.Player(s.HostPlayerID); host == nil || host.Chips <= 0 {
		r.transferHost(true)
	}
	if eliminated > 0 && len(s.PlayersWithChips()) >= 2 {
		s.BigBlind <<= eliminated
		s.SmallBlind = s.BigBlind / 2
		s.MinRaise = s.BigBlind
		r.logger.Info("Blinds increased after elimination", "eliminated", eliminated, "small", s.SmallBlind, "big", s.BigBlind)
	}
}

// markEliminated flags players who busted this hand and returns how many.
// A hand is only counted once.
func (r *Room) markEliminated() int {
	s := r.state
	if s.Ledger == nil || s.Ledger.Settled {
		return 0
	}
	s.Ledger.Settled = true
	n := 0
	for _, p := range s.Players {
		if s.Ledger.StartChips[p.ID] > 0 && p.Chips == 0 {
			p.IsActive = false
			n++
			r.logger.Info("Player eliminated", "player", p.Name)
		}
	}
	if d := s.DealerPosition; d >= 0 && d < len(s.Players) && s.Players[d].Chips == 0 {
		s.DealerPosition = r.nextWithChips(d)
	}
	return n
}

// endGame stops play because fewer than two players can continue.
func (r *Room) endGame() {
	s := r.state
	r.cancelAllTimers()
	s.Stage = StageEnded
	s.IsActive = false
	s.DramaticReveal = false
	s.AwaitingConfirmation = false
	s.WinnerConfirmations = nil
	if host := s.Player(s.HostPlayerID); host == nil || host.Chips <= 0 {
		r.transferHost(true)
	}
	r.logger.Info("Game over", "players", len(s.Players))
}

// resetHandState clears everything scoped to a hand and waits for the next.
func (r *Room) resetHandState() {
	s := r.state
	r.cancelAllTimers()
	s.Stage = StageWaiting
	s.CommunityCards = nil
	s.Pot = 0
	s.SidePots = nil
	s.CurrentBet = 0
	s.MinRaise = s.BigBlind
	s.CurrentPlayerIndex = 0
	s.ShowdownHands = nil
	s.WinnerConfirmations = nil
	s.AwaitingConfirmation = false
	s.DramaticReveal = false
	s.ShowAllHoleCards = false
	s.Ledger = nil
	s.HandID = ""
	for _, p := range s.Players {
		p.resetForHand()
		p.IsActive = p.Chips > 0
	}
}

// resetToSettings wipes the game back to the settings stage with hostID as
// host, restoring starting stacks and the configured blinds.
func (r *Room) resetToSettings(hostID string) {
	s := r.state
	r.cancelAllTimers()
	r.reseeds++

	s.Stage = StageSettings
	s.IsActive = false
	s.HostPlayerID = hostID
	s.SmallBlind = s.Settings.SmallBlind
	s.BigBlind = s.Settings.BigBlind
	s.MinRaise = s.BigBlind
	s.CommunityCards = nil
	s.Pot = 0
	s.SidePots = nil
	s.CurrentBet = 0
	s.CurrentPlayerIndex = 0
	s.DealerPosition = 0
	s.SmallBlindPosition = 0
	s.BigBlindPosition = 0
	s.BlindIncrease = nil
	s.LastAction = nil
	s.ShowdownHands = nil
	s.WinnerConfirmations = nil
	s.AwaitingConfirmation = false
	s.DramaticReveal = false
	s.ShowAllHoleCards = false
	s.Ledger = nil
	s.HandID = ""
	for _, p := range s.Players {
		p.resetForHand()
		p.IsActive = true
		p.Chips = s.Settings.StartingChips
	}
	r.logger.Info("Room reset to settings", "host", hostID)
}

package game

// transferHost passes host rights to the next player in seat order who still
// has chips. When announce is set the change is also shown in LastAction.
func (r *Room) transferHost(announce bool) {
	s := r.state
	n := len(s.Players)

	var next *Player
	if idx := s.playerIndex(s.HostPlayerID); idx >= 0 {
		for i := 1; i < n; i++ {
			if p := s.Players[(idx+i)%n]; p.Chips > 0 {
				next = p
				break
			}
		}
	}
	if next == nil {
		for _, p := range s.Players {
			if p.Chips > 0 {
				next = p
				break
			}
		}
	}
	if next == nil || next.ID == s.HostPlayerID {
		return
	}

	r.logger.Info("Host transferred", "from", s.HostPlayerID, "to", next.ID)
	s.HostPlayerID = next.ID
	if announce {
		s.LastAction = &LastAction{PlayerID: "system", PlayerName: "System", Action: next.Name + " is now the host"}
	}
}

func (r *Room) requireHost(playerID string) error {
	if r.state.Player(playerID) == nil {
		return ErrPlayerNotFound
	}
	if r.state.HostPlayerID != playerID {
		return ErrNotHost
	}
	return nil
}

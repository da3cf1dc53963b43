package game

import (
	"strings"

	"github.com/lox/pokerrooms/poker"
)

// awardFoldWin gives everything in the middle to the last player standing.
func (r *Room) awardFoldWin(winner *Player) {
	r.awardUncontested(winner, "win by fold")
}

func (r *Room) awardUncontested(winner *Player, action string) {
	s := r.state
	total := s.Pot
	for _, sp := range s.SidePots {
		total += sp.Amount
	}
	winner.Chips += total
	s.Pot = 0
	s.SidePots = nil
	s.LastAction = &LastAction{PlayerID: winner.ID, PlayerName: winner.Name, Action: action, Amount: total}
	r.logger.Info("Hand won uncontested", "winner", winner.Name, "amount", total)
	r.finishHand()
}

// showdown evaluates every contender and pays out each pot tier.
func (r *Room) showdown() {
	s := r.state
	s.Stage = StageShowdown
	s.revealBoard()

	remaining := s.remaining()
	if len(remaining) == 1 {
		r.awardUncontested(remaining[0], "wins by fold")
		return
	}

	hands := make(map[string]poker.HandRank, len(remaining))
	s.ShowdownHands = make([]ShowdownHand, 0, len(remaining))
	for _, p := range remaining {
		cards := append(cloneCards(p.Cards), s.Ledger.Board...)
		hr := poker.Evaluate(cards)
		hands[p.ID] = hr
		s.ShowdownHands = append(s.ShowdownHands, ShowdownHand{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			HoleCards:  cloneCards(p.Cards),
			Hand:       hr,
		})
	}

	winnings := make(map[string]int)
	for _, pot := range r.showdownPots(remaining) {
		eligible := make(map[string]bool, len(pot.EligiblePlayers))
		for _, id := range pot.EligiblePlayers {
			eligible[id] = true
		}
		var contenders []*Player
		for _, p := range remaining {
			if eligible[p.ID] {
				contenders = append(contenders, p)
			}
		}
		if len(contenders) == 0 {
			contenders = remaining
		}
		for id, amount := range splitPot(pot.Amount, bestOf(contenders, hands)) {
			winnings[id] += amount
		}
	}

	for i := range s.ShowdownHands {
		h := &s.ShowdownHands[i]
		h.Winnings = winnings[h.PlayerID]
		h.IsWinner = h.Winnings > 0
	}

	top := bestOf(remaining, hands)
	best := cloneHandRank(hands[top[0].ID])
	names := make([]string, len(top))
	amount := 0
	for i, p := range top {
		names[i] = p.Name
		amount += winnings[p.ID]
	}
	action := "wins with " + best.Description
	if len(top) > 1 {
		action = "split pot with " + best.Description
	}
	s.LastAction = &LastAction{
		PlayerID:    top[0].ID,
		PlayerName:  strings.Join(names, ", "),
		Action:      action,
		Amount:      amount,
		WinningHand: &best,
	}
	s.Pot = 0
	s.SidePots = nil

	r.logger.Info("Showdown", "winners", names, "hand", best.Description, "amount", amount)
	r.finishHand()
}

// showdownPots returns the pot tiers to pay out. Without an all-in there is
// a single pot shared by every contender.
func (r *Room) showdownPots(remaining []*Player) []SidePot {
	s := r.state
	if !s.Ledger.AnyAllIn {
		total := s.Pot
		for _, sp := range s.SidePots {
			total += sp.Amount
		}
		ids := make([]string, len(remaining))
		for i, p := range remaining {
			ids[i] = p.ID
		}
		return []SidePot{{Amount: total, EligiblePlayers: ids}}
	}
	return r.potTiers()
}

// potTiers builds the pot tiers from everything contributed so far this hand.
func (r *Room) potTiers() []SidePot {
	s := r.state
	total := s.Pot
	for _, sp := range s.SidePots {
		total += sp.Amount
	}

	var contributions []Contribution
	seen := make(map[string]bool)
	for _, p := range s.Players {
		seen[p.ID] = true
		contributions = append(contributions, Contribution{
			PlayerID: p.ID,
			Amount:   s.Ledger.contributed(p.ID) + p.CurrentBet,
			Folded:   !p.inHand(),
		})
	}
	// players who left mid-hand keep their chips in the pot
	for _, id := range s.Ledger.contributors() {
		if !seen[id] {
			contributions = append(contributions, Contribution{PlayerID: id, Amount: s.Ledger.contributed(id), Folded: true})
		}
	}

	return BuildPots(contributions, total)
}

// splitSidePots moves the capped all-in tiers out of Pot into SidePots at a
// street boundary. Pot keeps the top tier, the one still open to betting.
func (r *Room) splitSidePots() {
	s := r.state
	if s.Ledger == nil || !s.Ledger.AnyAllIn {
		return
	}
	pots := r.potTiers()
	if len(pots) < 2 {
		return
	}
	s.SidePots = pots[:len(pots)-1]
	s.Pot = pots[len(pots)-1].Amount
}

// bestOf returns the players holding the strongest hand, in seat order.
func bestOf(players []*Player, hands map[string]poker.HandRank) []*Player {
	var winners []*Player
	for _, p := range players {
		if len(winners) == 0 {
			winners = []*Player{p}
			continue
		}
		switch c := poker.Compare(hands[p.ID], hands[winners[0].ID]); {
		case c > 0:
			winners = []*Player{p}
		case c == 0:
			winners = append(winners, p)
		}
	}
	return winners
}

// finishHand ends the hand and opens the winner confirmation window.
func (r *Room) finishHand() {
	s := r.state
	r.cancelTimer(revealTimer)
	s.Stage = StageEnded
	s.DramaticReveal = false
	if host := s.Player(s.HostPlayerID); host != nil && host.Chips <= 0 {
		// keep the winner display intact
		r.transferHost(false)
	}
	r.startConfirmation()
}

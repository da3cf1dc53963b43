package game

import (
	"sort"
)

// Contribution is what one player put into the pot over the whole hand.
type Contribution struct {
	PlayerID string
	Amount   int
	Folded   bool
}

// BuildPots splits total into tiers by distinct contribution level, smallest
// first. Folded players' chips count towards the size of every tier they
// reached but they are never eligible to win. Chips the tiers do not account
// for are added to the first pot.
func BuildPots(contributions []Contribution, total int) []SidePot {
	var all []Contribution
	for _, c := range contributions {
		if c.Amount > 0 {
			all = append(all, c)
		}
	}
	if len(all) == 0 {
		if total > 0 {
			return []SidePot{{Amount: total}}
		}
		return nil
	}

	var live []string
	for _, c := range all {
		if !c.Folded {
			live = append(live, c.PlayerID)
		}
	}
	if len(live) <= 1 {
		return []SidePot{{Amount: total, EligiblePlayers: live}}
	}

	levels := make([]int, 0, len(all))
	seen := make(map[int]bool)
	for _, c := range all {
		if !seen[c.Amount] {
			seen[c.Amount] = true
			levels = append(levels, c.Amount)
		}
	}
	sort.Ints(levels)

	var pots []SidePot
	allocated := 0
	prev := 0
	for _, level := range levels {
		contributors := 0
		var eligible []string
		for _, c := range all {
			if c.Amount >= level {
				contributors++
				if !c.Folded {
					eligible = append(eligible, c.PlayerID)
				}
			}
		}
		amount := (level - prev) * contributors
		prev = level
		allocated += amount

		// A tier nobody live reached goes to the previous tier.
		if len(eligible) == 0 && len(pots) > 0 {
			pots[len(pots)-1].Amount += amount
			continue
		}
		pots = append(pots, SidePot{Amount: amount, EligiblePlayers: eligible})
	}

	if rest := total - allocated; rest != 0 && len(pots) > 0 {
		pots[0].Amount += rest
	}
	return pots
}

// splitPot divides amount evenly among winners. The odd chips go to the
// first winner.
func splitPot(amount int, winners []*Player) map[string]int {
	won := make(map[string]int, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return won
	}
	share := amount / len(winners)
	remainder := amount % len(winners)
	for _, w := range winners {
		w.Chips += share
		won[w.ID] += share
	}
	if remainder > 0 {
		winners[0].Chips += remainder
		won[winners[0].ID] += remainder
	}
	return won
}

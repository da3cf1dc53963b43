package poker

import (
	"fmt"
	"sort"
)

// Category is the class of a five-card hand, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the human readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRank is the evaluated strength of the best five cards.
//
// Cards holds those five cards ordered by significance: the made part first
// (quads, trips, pairs by rank) followed by kickers. A wheel straight is
// ordered 5-4-3-2-A. Kickers repeats the ranks of the unpaired tail.
type HandRank struct {
	Category    Category `json:"rank"`
	Description string   `json:"description"`
	Cards       []Card   `json:"cards"`
	Kickers     []Rank   `json:"kickers"`
}

// Evaluate returns the best five-card hand that can be made from cards.
// It requires between five and seven cards and panics otherwise.
func Evaluate(cards []Card) HandRank {
	n := len(cards)
	if n < 5 || n > 7 {
		panic(fmt.Sprintf("poker: cannot evaluate %d cards", n))
	}

	var best HandRank
	found := false
	var five [5]Card
	var idx [5]int
	for i := range idx {
		idx[i] = i
	}
	for {
		for i, j := range idx {
			five[i] = cards[j]
		}
		hr := evaluate5(five)
		if !found || Compare(hr, best) > 0 {
			best = hr
			found = true
		}

		// next combination in lexicographic order
		i := 4
		for i >= 0 && idx[i] == n-5+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < 5; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return best
}

// Compare orders two hands: positive when a beats b, negative when b beats a,
// zero for an exact tie.
func Compare(a, b HandRank) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	if c := compareRanks(a.Cards, b.Cards); c != 0 {
		return c
	}
	return compareKickers(a.Kickers, b.Kickers)
}

func compareRanks(a, b []Card) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Rank != b[i].Rank {
			if a[i].Rank > b[i].Rank {
				return 1
			}
			return -1
		}
	}
	return 0
}

func compareKickers(a, b []Rank) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

type rankGroup struct {
	rank  Rank
	cards []Card
}

func evaluate5(five [5]Card) HandRank {
	cards := five[:]
	sorted := make([]Card, 5)
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank > sorted[j].Rank })

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	straight, ordered := straightOrder(sorted)
	if straight && flush {
		if ordered[0].Rank == Ace {
			return newHandRank(RoyalFlush, ordered, 0)
		}
		return newHandRank(StraightFlush, ordered, 0)
	}

	groups := groupByRank(sorted)
	ordered = ordered[:0]
	for _, g := range groups {
		ordered = append(ordered, g.cards...)
	}

	switch {
	case len(groups[0].cards) == 4:
		return newHandRank(FourOfAKind, ordered, 1)
	case len(groups[0].cards) == 3 && len(groups[1].cards) == 2:
		return newHandRank(FullHouse, ordered, 0)
	case flush:
		return newHandRank(Flush, sorted, 0)
	case straight:
		_, ordered = straightOrder(sorted)
		return newHandRank(Straight, ordered, 0)
	case len(groups[0].cards) == 3:
		return newHandRank(ThreeOfAKind, ordered, 2)
	case len(groups[0].cards) == 2 && len(groups[1].cards) == 2:
		return newHandRank(TwoPair, ordered, 1)
	case len(groups[0].cards) == 2:
		return newHandRank(OnePair, ordered, 3)
	default:
		return newHandRank(HighCard, sorted, 4)
	}
}

// straightOrder reports whether rank-sorted cards form a straight and returns
// them high to low, moving the ace to the end for a wheel.
func straightOrder(sorted []Card) (bool, []Card) {
	ordered := make([]Card, 5)
	copy(ordered, sorted)
	for i := 1; i < 5; i++ {
		if sorted[i].Rank == sorted[i-1].Rank {
			return false, ordered
		}
	}
	if sorted[0].Rank-sorted[4].Rank == 4 {
		return true, ordered
	}
	if sorted[0].Rank == Ace && sorted[1].Rank == Five {
		copy(ordered, sorted[1:])
		ordered[4] = sorted[0]
		return true, ordered
	}
	return false, ordered
}

// groupByRank groups cards by rank, largest group first and higher rank first
// within equal sizes.
func groupByRank(sorted []Card) []rankGroup {
	var groups []rankGroup
	for _, c := range sorted {
		if n := len(groups); n > 0 && groups[n-1].rank == c.Rank {
			groups[n-1].cards = append(groups[n-1].cards, c)
			continue
		}
		groups = append(groups, rankGroup{rank: c.Rank, cards: []Card{c}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

func newHandRank(cat Category, ordered []Card, kickers int) HandRank {
	hr := HandRank{
		Category:    cat,
		Description: cat.String(),
		Cards:       append([]Card(nil), ordered...),
	}
	for _, c := range ordered[5-kickers:] {
		hr.Kickers = append(hr.Kickers, c.Rank)
	}
	return hr
}

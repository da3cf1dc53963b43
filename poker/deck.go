package poker

import (
	"math/rand"
)

// Deck is a standard 52-card deck dealt from the top.
type Deck struct {
	cards []Card
	next  int
	rng   *rand.Rand
}

// OrderedCards returns the 52 cards in canonical order (suit major, Two to Ace).
func OrderedCards() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// NewDeck creates a new deck shuffled with the given RNG.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: OrderedCards(), rng: rng}
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck that deals top in order, followed by the
// remaining cards in canonical order. Duplicates in top are dropped.
func NewStackedDeck(top []Card) *Deck {
	seen := make(map[Card]bool, 52)
	cards := make([]Card, 0, 52)
	for _, c := range top {
		if seen[c] {
			continue
		}
		seen[c] = true
		cards = append(cards, c)
	}
	for _, c := range OrderedCards() {
		if !seen[c] {
			cards = append(cards, c)
		}
	}
	return &Deck{cards: cards}
}

// Shuffle shuffles the whole deck using Fisher-Yates and resets the deal position.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the deck, or nil if fewer than n remain.
func (d *Deck) Deal(n int) []Card {
	if n < 0 || d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// DealOne deals a single card. ok is false when the deck is exhausted.
func (d *Deck) DealOne() (Card, bool) {
	if d.next >= len(d.cards) {
		return Card{}, false
	}
	card := d.cards[d.next]
	d.next++
	return card, true
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}

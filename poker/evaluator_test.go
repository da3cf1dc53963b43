package poker

import (
	"math/rand"
	"testing"

	oracle "github.com/chehsunliu/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranksOf(cards []Card) []Rank {
	out := make([]Rank, len(cards))
	for i, c := range cards {
		out[i] = c.Rank
	}
	return out
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  Category
		best  []Rank
	}{
		{"royal flush", "As Ks Qs Js 10s 2d 3c", RoyalFlush, []Rank{Ace, King, Queen, Jack, Ten}},
		{"straight flush", "9h 8h 7h 6h 5h Ad Ac", StraightFlush, []Rank{Nine, Eight, Seven, Six, Five}},
		{"four of a kind", "7c 7d 7h 7s Kd 2c 3c", FourOfAKind, []Rank{Seven, Seven, Seven, Seven, King}},
		{"full house", "Qc Qd Qh 4s 4d 2c 3c", FullHouse, []Rank{Queen, Queen, Queen, Four, Four}},
		{"full house from two trips", "Qc Qd Qh 4s 4d 4c 3c", FullHouse, []Rank{Queen, Queen, Queen, Four, Four}},
		{"flush", "Ad 9d 7d 4d 2d Ks Qs", Flush, []Rank{Ace, Nine, Seven, Four, Two}},
		{"straight", "9c 8d 7h 6s 5c 2d 2c", Straight, []Rank{Nine, Eight, Seven, Six, Five}},
		{"three of a kind", "8c 8d 8h As Kc 4d 2c", ThreeOfAKind, []Rank{Eight, Eight, Eight, Ace, King}},
		{"two pair", "Jc Jd 5h 5s Ac 4d 2c", TwoPair, []Rank{Jack, Jack, Five, Five, Ace}},
		{"one pair", "10c 10d Ah 8s 6c 4d 2c", OnePair, []Rank{Ten, Ten, Ace, Eight, Six}},
		{"high card", "Ac Jd 9h 7s 5c 3d 2c", HighCard, []Rank{Ace, Jack, Nine, Seven, Five}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hr := Evaluate(MustParseCards(tt.cards))
			assert.Equal(t, tt.want, hr.Category)
			assert.Equal(t, tt.want.String(), hr.Description)
			assert.Equal(t, tt.best, ranksOf(hr.Cards))
		})
	}
}

func TestEvaluateWheel(t *testing.T) {
	t.Parallel()

	straight := Evaluate(MustParseCards("Ah 2c 3d 4s 5h"))
	require.Equal(t, Straight, straight.Category)
	assert.Equal(t, []Rank{Five, Four, Three, Two, Ace}, ranksOf(straight.Cards))

	flush := Evaluate(MustParseCards("Ah 2h 3h 4h 5h"))
	require.Equal(t, StraightFlush, flush.Category, "a suited wheel is not a royal flush")
	assert.Equal(t, []Rank{Five, Four, Three, Two, Ace}, ranksOf(flush.Cards))

	six := Evaluate(MustParseCards("6c 2c 3d 4s 5h"))
	assert.Positive(t, Compare(six, straight), "six-high straight beats the wheel")
}

func TestEvaluateKickers(t *testing.T) {
	t.Parallel()

	a := Evaluate(MustParseCards("Ac Ad Kh 9s 4c 3d 2c"))
	b := Evaluate(MustParseCards("Ac Ad Qh 9s 4c 3d 2c"))
	require.Equal(t, OnePair, a.Category)
	assert.Equal(t, []Rank{King, Nine, Four}, a.Kickers)
	assert.Positive(t, Compare(a, b))
	assert.Negative(t, Compare(b, a))

	board := MustParseCards("5c 6d 7h 8s 9c")
	p1 := Evaluate(append(MustParseCards("2h 3d"), board...))
	p2 := Evaluate(append(MustParseCards("2s 3c"), board...))
	assert.Zero(t, Compare(p1, p2), "both players play the board")
}

func TestHandRankJSON(t *testing.T) {
	t.Parallel()

	hand := Evaluate(MustParseCards("As Kd 9h 7c 3s 2d 4h"))
	data, err := json.Marshal(hand)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rank": 1,
		"description": "High Card",
		"cards": [
			{"suit":"spades","rank":"A"},
			{"suit":"diamonds","rank":"K"},
			{"suit":"hearts","rank":"9"},
			{"suit":"clubs","rank":"7"},
			{"suit":"hearts","rank":"4"}
		],
		"kickers": [13, 9, 7, 4]
	}`, string(data))

	var decoded HandRank
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, hand, decoded)
}

func TestEvaluateRequiresFiveCards(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { Evaluate(MustParseCards("Ac Kd")) })
}

func TestCompareOrdering(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))

	hands := make([]HandRank, 60)
	for i := range hands {
		hands[i] = Evaluate(NewDeck(rng).Deal(7))
	}
	for _, a := range hands {
		assert.Zero(t, Compare(a, a))
		for _, b := range hands {
			assert.Equal(t, Compare(a, b), -Compare(b, a))
			for _, c := range hands {
				if Compare(a, b) >= 0 && Compare(b, c) >= 0 {
					assert.GreaterOrEqual(t, Compare(a, c), 0)
				}
			}
		}
	}
}

func toOracle(t *testing.T, cards []Card) []oracle.Card {
	t.Helper()
	out := make([]oracle.Card, len(cards))
	for i, c := range cards {
		rank := c.Rank.String()
		if c.Rank == Ten {
			rank = "T"
		}
		out[i] = oracle.NewCard(rank + string(c.Suit.short()))
	}
	return out
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Cross-check head to head results against an independent evaluator.
func TestCompareMatchesReferenceEvaluator(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		deck := NewDeck(rng)
		board := deck.Deal(5)
		a := append(deck.Deal(2), board...)
		b := append(deck.Deal(2), board...)

		got := sign(Compare(Evaluate(a), Evaluate(b)))
		ra := oracle.Evaluate(toOracle(t, a))
		rb := oracle.Evaluate(toOracle(t, b))
		// the reference ranks lower values as stronger
		want := sign(int(rb) - int(ra))

		require.Equal(t, want, got, "a=%v b=%v", a, b)
	}
}

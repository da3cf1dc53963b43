package game

import (
	"sort"
	"time"

	"github.com/lox/pokerrooms/poker"
)

// Stage is the lifecycle stage of a room.
type Stage string

const (
	StageSettings Stage = "settings"
	StageWaiting  Stage = "waiting"
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
	StageEnded    Stage = "ended"
)

// Betting reports whether players act in this stage.
func (s Stage) Betting() bool {
	switch s {
	case StagePreflop, StageFlop, StageTurn, StageRiver:
		return true
	}
	return false
}

// next returns the street that follows s, or StageShowdown after the river.
func (s Stage) next() Stage {
	switch s {
	case StagePreflop:
		return StageFlop
	case StageFlop:
		return StageTurn
	case StageTurn:
		return StageRiver
	default:
		return StageShowdown
	}
}

// boardCards is how many community cards are visible in s.
func (s Stage) boardCards() int {
	switch s {
	case StageFlop:
		return 3
	case StageTurn:
		return 4
	case StageRiver, StageShowdown:
		return 5
	}
	return 0
}

// ActionType is a betting action.
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allIn"
)

// Action is a betting action with an optional amount. For a raise the
// amount is the raise on top of the call.
type Action struct {
	Type   ActionType `json:"type"`
	Amount int        `json:"amount,omitempty"`
}

// Player is a seated participant.
type Player struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Chips      int          `json:"chips"`
	Cards      []poker.Card `json:"cards"`
	CurrentBet int          `json:"currentBet"`
	HasActed   bool         `json:"hasActed"`
	HasFolded  bool         `json:"hasFolded"`
	IsAllIn    bool         `json:"isAllIn"`
	IsActive   bool         `json:"isActive"`
	Position   int          `json:"position"`
	LastAction *Action      `json:"lastAction,omitempty"`
}

// canAct reports whether the player can still make a betting decision.
func (p *Player) canAct() bool {
	return p.IsActive && !p.HasFolded && !p.IsAllIn && p.Chips > 0
}

// inHand reports whether the player still contends for the pot.
func (p *Player) inHand() bool {
	return p.IsActive && !p.HasFolded
}

func (p *Player) resetForHand() {
	p.Cards = nil
	p.CurrentBet = 0
	p.HasActed = false
	p.HasFolded = false
	p.IsAllIn = false
	p.LastAction = nil
}

// commit moves up to amount chips into the player's current bet and returns
// the amount actually moved. Emptying the stack marks the player all-in.
func (p *Player) commit(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	if amount < 0 {
		amount = 0
	}
	p.Chips -= amount
	p.CurrentBet += amount
	if p.Chips == 0 {
		p.IsAllIn = true
	}
	return amount
}

// SidePot is a pot tier with the players allowed to win it.
type SidePot struct {
	Amount          int      `json:"amount"`
	EligiblePlayers []string `json:"eligiblePlayers"`
}

// Settings are the host-configurable game parameters.
type Settings struct {
	StartingChips int `json:"startingChips"`
	SmallBlind    int `json:"smallBlind"`
	BigBlind      int `json:"bigBlind"`
}

// Validate checks that the settings describe a playable game.
func (s Settings) Validate() error {
	if s.StartingChips <= 0 || s.SmallBlind <= 0 || s.BigBlind <= 0 {
		return ErrInvalidSettings
	}
	if s.SmallBlind > s.BigBlind {
		return ErrInvalidSettings
	}
	return nil
}

// BlindIncrease is set while the host is being prompted to raise blinds.
type BlindIncrease struct {
	Pending bool `json:"pending"`
}

// LastAction describes the most recent noteworthy event in the room.
type LastAction struct {
	PlayerID    string          `json:"playerId"`
	PlayerName  string          `json:"playerName,omitempty"`
	Action      string          `json:"action"`
	Amount      int             `json:"amount,omitempty"`
	WinningHand *poker.HandRank `json:"winningHand,omitempty"`
}

// ShowdownHand is the display record for one contender at showdown.
type ShowdownHand struct {
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	HoleCards  []poker.Card   `json:"holeCards"`
	Hand       poker.HandRank `json:"hand"`
	IsWinner   bool           `json:"isWinner"`
	Winnings   int            `json:"winnings"`
}

// GameWinner records who won the previous game.
type GameWinner struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// StreetBets is the per-player contribution in one betting round.
type StreetBets struct {
	Stage Stage          `json:"stage"`
	Bets  map[string]int `json:"bets"`
}

// HandLedger is hand-transient bookkeeping. A fresh ledger is created for
// every hand and discarded when the room returns to waiting or settings.
type HandLedger struct {
	Board      []poker.Card   `json:"board"`
	Streets    []StreetBets   `json:"streets"`
	StartChips map[string]int `json:"startChips"`
	AnyAllIn   bool           `json:"anyAllIn"`
	// Settled is set once eliminations for the hand have been counted.
	Settled bool `json:"settled,omitempty"`
}

func newHandLedger(players []*Player) *HandLedger {
	l := &HandLedger{StartChips: make(map[string]int, len(players))}
	for _, p := range players {
		l.StartChips[p.ID] = p.Chips
	}
	return l
}

// recordStreet saves the round's bets before they are reset.
func (l *HandLedger) recordStreet(stage Stage, players []*Player) {
	bets := make(map[string]int, len(players))
	for _, p := range players {
		if p.CurrentBet > 0 {
			bets[p.ID] = p.CurrentBet
		}
	}
	l.Streets = append(l.Streets, StreetBets{Stage: stage, Bets: bets})
}

// contributed returns the chips id put in during completed rounds.
func (l *HandLedger) contributed(id string) int {
	total := 0
	for _, s := range l.Streets {
		total += s.Bets[id]
	}
	return total
}

// contributors lists every id with a recorded bet in first-seen order.
func (l *HandLedger) contributors() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range l.Streets {
		for _, id := range sortedKeys(s.Bets) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// GameState is the authoritative aggregate for a room. Snapshots handed out
// by a Room are deep copies and safe to retain.
type GameState struct {
	RoomCode           string       `json:"roomCode"`
	Players            []*Player    `json:"players"`
	CommunityCards     []poker.Card `json:"communityCards"`
	Pot                int          `json:"pot"`
	SidePots           []SidePot    `json:"sidePots"`
	CurrentBet         int          `json:"currentBet"`
	MinRaise           int          `json:"minRaise"`
	Stage              Stage        `json:"stage"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	DealerPosition     int          `json:"dealerPosition"`
	SmallBlindPosition int          `json:"smallBlindPosition"`
	BigBlindPosition   int          `json:"bigBlindPosition"`
	SmallBlind         int          `json:"smallBlind"`
	BigBlind           int          `json:"bigBlind"`
	HostPlayerID       string       `json:"hostPlayerId"`
	MaxPlayers         int          `json:"maxPlayers"`
	IsActive           bool         `json:"isActive"`
	Settings           Settings     `json:"gameSettings"`

	BlindIncrease        *BlindIncrease `json:"blindIncrease,omitempty"`
	LastAction           *LastAction    `json:"lastAction,omitempty"`
	ShowdownHands        []ShowdownHand `json:"showdownHands,omitempty"`
	WinnerConfirmations  []string       `json:"winnerConfirmations"`
	AwaitingConfirmation bool           `json:"awaitingConfirmation"`
	LastGameWinner       *GameWinner    `json:"lastGameWinner,omitempty"`

	HandID           string      `json:"handId,omitempty"`
	HandNumber       int         `json:"handNumber"`
	DramaticReveal   bool        `json:"dramaticReveal"`
	ShowAllHoleCards bool        `json:"showAllHoleCards"`
	LastActivity     time.Time   `json:"lastActivity"`
	Ledger           *HandLedger `json:"ledger,omitempty"`
}

// ChipsInPlay is the conserved total: stacks, pot and side pots.
func (s *GameState) ChipsInPlay() int {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Chips
	}
	for _, sp := range s.SidePots {
		total += sp.Amount
	}
	return total
}

// PlayersWithChips returns the players that still have a stack.
func (s *GameState) PlayersWithChips() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Chips > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Player returns the player with id, or nil.
func (s *GameState) Player(id string) *Player {
	if i := s.playerIndex(id); i >= 0 {
		return s.Players[i]
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is during a betting stage.
func (s *GameState) CurrentPlayer() *Player {
	if !s.Stage.Betting() || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

func (s *GameState) playerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *GameState) remaining() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.inHand() {
			out = append(out, p)
		}
	}
	return out
}

func (s *GameState) actors() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.canAct() {
			out = append(out, p)
		}
	}
	return out
}

// revealBoard exposes the community cards visible in the current stage.
func (s *GameState) revealBoard() {
	if s.Ledger == nil {
		s.CommunityCards = nil
		return
	}
	n := s.Stage.boardCards()
	if n > len(s.Ledger.Board) {
		n = len(s.Ledger.Board)
	}
	s.CommunityCards = append([]poker.Card(nil), s.Ledger.Board[:n]...)
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Cards = cloneCards(p.Cards)
		if p.LastAction != nil {
			a := *p.LastAction
			cp.LastAction = &a
		}
		c.Players[i] = &cp
	}
	c.CommunityCards = cloneCards(s.CommunityCards)
	if s.SidePots != nil {
		c.SidePots = make([]SidePot, len(s.SidePots))
		for i, sp := range s.SidePots {
			c.SidePots[i] = SidePot{Amount: sp.Amount, EligiblePlayers: append([]string(nil), sp.EligiblePlayers...)}
		}
	}
	if s.BlindIncrease != nil {
		b := *s.BlindIncrease
		c.BlindIncrease = &b
	}
	if s.LastAction != nil {
		a := *s.LastAction
		if a.WinningHand != nil {
			h := cloneHandRank(*a.WinningHand)
			a.WinningHand = &h
		}
		c.LastAction = &a
	}
	if s.ShowdownHands != nil {
		c.ShowdownHands = make([]ShowdownHand, len(s.ShowdownHands))
		for i, h := range s.ShowdownHands {
			h.HoleCards = cloneCards(h.HoleCards)
			h.Hand = cloneHandRank(h.Hand)
			c.ShowdownHands[i] = h
		}
	}
	if s.WinnerConfirmations != nil {
		c.WinnerConfirmations = append([]string{}, s.WinnerConfirmations...)
	}
	if s.LastGameWinner != nil {
		w := *s.LastGameWinner
		c.LastGameWinner = &w
	}
	if s.Ledger != nil {
		l := HandLedger{
			Board:      cloneCards(s.Ledger.Board),
			StartChips: make(map[string]int, len(s.Ledger.StartChips)),
			AnyAllIn:   s.Ledger.AnyAllIn,
			Settled:    s.Ledger.Settled,
		}
		for k, v := range s.Ledger.StartChips {
			l.StartChips[k] = v
		}
		for _, st := range s.Ledger.Streets {
			bets := make(map[string]int, len(st.Bets))
			for k, v := range st.Bets {
				bets[k] = v
			}
			l.Streets = append(l.Streets, StreetBets{Stage: st.Stage, Bets: bets})
		}
		c.Ledger = &l
	}
	return &c
}

func cloneCards(cards []poker.Card) []poker.Card {
	if cards == nil {
		return nil
	}
	return append([]poker.Card(nil), cards...)
}

func cloneHandRank(h poker.HandRank) poker.HandRank {
	h.Cards = cloneCards(h.Cards)
	if h.Kickers != nil {
		h.Kickers = append([]poker.Rank(nil), h.Kickers...)
	}
	return h
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

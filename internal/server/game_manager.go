package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/store"
)

// RoomOptions are the creation parameters for a room. Zero values fall back
// to the manager's defaults.
type RoomOptions struct {
	MaxPlayers    int `json:"maxPlayers"`
	SmallBlind    int `json:"smallBlind"`
	BigBlind      int `json:"bigBlind"`
	StartingChips int `json:"startingChips"`
}

// RoomSummary holds lightweight metadata for room listings.
type RoomSummary struct {
	Code         string     `json:"roomCode"`
	Players      int        `json:"players"`
	MaxPlayers   int        `json:"maxPlayers"`
	Stage        game.Stage `json:"stage"`
	SmallBlind   int        `json:"smallBlind"`
	BigBlind     int        `json:"bigBlind"`
	HandNumber   int        `json:"handNumber"`
	LastActivity time.Time  `json:"lastActivity"`
}

// managedRoom pairs a room with the dispatcher that persists and publishes
// its snapshots.
type managedRoom struct {
	room     *game.Room
	dispatch *dispatcher
}

// GameManager is the room registry. Rooms are independent: the registry
// lock is only held for map access, and each room serializes its own
// operations.
type GameManager struct {
	logger    *log.Logger
	clock     quartz.Clock
	store     store.Store
	defaults  RoomOptions
	roomOpts  []game.RoomOption
	publisher *fanout

	mu    sync.RWMutex
	rooms map[string]*managedRoom
}

// ManagerOption configures a GameManager.
type ManagerOption func(*GameManager)

// WithStore sets the persistence collaborator. Defaults to a memory store.
func WithStore(s store.Store) ManagerOption {
	return func(gm *GameManager) { gm.store = s }
}

// WithManagerClock sets the clock shared by every room and the sweeper.
func WithManagerClock(c quartz.Clock) ManagerOption {
	return func(gm *GameManager) { gm.clock = c }
}

// WithRoomDefaults sets the options applied to rooms created without them.
func WithRoomDefaults(o RoomOptions) ManagerOption {
	return func(gm *GameManager) { gm.defaults = o }
}

// WithRoomOptions appends options passed to every room the manager creates
// or restores.
func WithRoomOptions(opts ...game.RoomOption) ManagerOption {
	return func(gm *GameManager) { gm.roomOpts = append(gm.roomOpts, opts...) }
}

// WithPublisher subscribes p to every room's snapshots.
func WithPublisher(p Publisher) ManagerOption {
	return func(gm *GameManager) { gm.publisher.add(p) }
}

// NewGameManager constructs an empty registry.
func NewGameManager(logger *log.Logger, opts ...ManagerOption) *GameManager {
	gm := &GameManager{
		logger: logger.WithPrefix("rooms"),
		clock:  quartz.NewReal(),
		store:  store.NewMemoryStore(),
		defaults: RoomOptions{
			MaxPlayers:    game.DefaultMaxPlayers,
			SmallBlind:    game.DefaultSmallBlind,
			BigBlind:      game.DefaultBigBlind,
			StartingChips: game.DefaultStartingChips,
		},
		publisher: &fanout{},
		rooms:     make(map[string]*managedRoom),
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

// Subscribe adds a publisher after construction, e.g. the transport.
func (gm *GameManager) Subscribe(p Publisher) {
	gm.publisher.add(p)
}

func (gm *GameManager) withDefaults(o RoomOptions) RoomOptions {
	if o.MaxPlayers == 0 {
		o.MaxPlayers = gm.defaults.MaxPlayers
	}
	if o.SmallBlind == 0 && o.BigBlind == 0 {
		o.SmallBlind, o.BigBlind = gm.defaults.SmallBlind, gm.defaults.BigBlind
	} else if o.SmallBlind == 0 {
		o.SmallBlind = o.BigBlind / 2
	}
	if o.StartingChips == 0 {
		o.StartingChips = gm.defaults.StartingChips
	}
	return o
}

func (o RoomOptions) validate() error {
	if o.MaxPlayers < 2 || o.MaxPlayers > 10 {
		return fmt.Errorf("%w: max players must be between 2 and 10", ErrInvalidRoom)
	}
	settings := game.Settings{StartingChips: o.StartingChips, SmallBlind: o.SmallBlind, BigBlind: o.BigBlind}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoom, err)
	}
	return nil
}

const roomCodeLength = 6

// Crockford's base32: no I, L, O or U, so codes survive being read aloud.
const roomCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// newRoomCode encodes the leading random bytes of a v4 UUID.
func newRoomCode() string {
	id := uuid.New()
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[id[i]&31]
	}
	return string(code)
}

func (gm *GameManager) baseRoomOptions(d *dispatcher) []game.RoomOption {
	opts := []game.RoomOption{
		game.WithClock(gm.clock),
		game.WithLogger(gm.logger),
		game.WithObserver(d),
	}
	return append(opts, gm.roomOpts...)
}

// CreateRoom registers a new room in the settings stage. An empty code
// generates one.
func (gm *GameManager) CreateRoom(ctx context.Context, code string, opts RoomOptions) (*game.GameState, error) {
	opts = gm.withDefaults(opts)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if code != "" {
		if _, err := gm.store.Load(ctx, code); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrRoomExists, code)
		}
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if code == "" {
		code = newRoomCode()
		for gm.rooms[code] != nil {
			code = newRoomCode()
		}
	}
	if _, ok := gm.rooms[code]; ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, code)
	}

	d := newDispatcher(code, gm.store, gm.publisher, gm.logger)
	roomOpts := append(gm.baseRoomOptions(d),
		game.WithMaxPlayers(opts.MaxPlayers),
		game.WithBlinds(opts.SmallBlind, opts.BigBlind),
		game.WithStartingChips(opts.StartingChips),
	)
	room := game.NewRoom(code, roomOpts...)
	gm.rooms[code] = &managedRoom{room: room, dispatch: d}

	state := room.Snapshot()
	d.RoomChanged(state)
	gm.logger.Info("Room created", "room", code, "max_players", opts.MaxPlayers,
		"small_blind", opts.SmallBlind, "big_blind", opts.BigBlind)
	return state, nil
}

// lookup returns a live room, restoring it from the store when it is not
// in memory.
func (gm *GameManager) lookup(ctx context.Context, code string) (*managedRoom, error) {
	gm.mu.RLock()
	mr, ok := gm.rooms[code]
	gm.mu.RUnlock()
	if ok {
		return mr, nil
	}

	data, err := gm.store.Load(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	} else if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	state, err := game.DecodeState(data)
	if err != nil {
		return nil, err
	}
	return gm.restore(code, state), nil
}

func (gm *GameManager) restore(code string, state *game.GameState) *managedRoom {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if mr, ok := gm.rooms[code]; ok {
		return mr
	}
	d := newDispatcher(code, gm.store, gm.publisher, gm.logger)
	mr := &managedRoom{room: game.RestoreState(state, gm.baseRoomOptions(d)...), dispatch: d}
	gm.rooms[code] = mr
	return mr
}

// do runs op against a room and returns the resulting snapshot.
func (gm *GameManager) do(ctx context.Context, code string, op func(*game.Room) error) (*game.GameState, error) {
	mr, err := gm.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := op(mr.room); err != nil {
		return nil, fmt.Errorf("room %s: %w", code, err)
	}
	return mr.room.Snapshot(), nil
}

func (gm *GameManager) AddPlayer(ctx context.Context, code, playerID, playerName string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.AddPlayer(playerID, playerName) })
}

func (gm *GameManager) RemovePlayer(ctx context.Context, code, playerID string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.RemovePlayer(playerID) })
}

func (gm *GameManager) HandleAction(ctx context.Context, code, playerID string, action game.Action) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.HandleAction(playerID, action) })
}

func (gm *GameManager) StartGame(ctx context.Context, code string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.StartGame() })
}

func (gm *GameManager) ConfirmWinner(ctx context.Context, code, playerID string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.ConfirmWinner(playerID) })
}

func (gm *GameManager) UpdateSettings(ctx context.Context, code, playerID string, settings game.Settings) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.UpdateSettings(playerID, settings) })
}

// IncreaseBlind applies a new big blind, or with a nil amount asks the
// host for one.
func (gm *GameManager) IncreaseBlind(ctx context.Context, code, playerID string, newBigBlind *int) (*game.GameState, error) {
	amount := 0
	if newBigBlind != nil {
		amount = *newBigBlind
	}
	return gm.do(ctx, code, func(r *game.Room) error { return r.IncreaseBlind(playerID, amount) })
}

func (gm *GameManager) StartNextHand(ctx context.Context, code, playerID string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.StartNextHand(playerID) })
}

func (gm *GameManager) ResetToSettings(ctx context.Context, code, playerID string) (*game.GameState, error) {
	return gm.do(ctx, code, func(r *game.Room) error { return r.ResetToSettings(playerID) })
}

// Snapshot returns the current state of a room without mutating it.
func (gm *GameManager) Snapshot(ctx context.Context, code string) (*game.GameState, error) {
	mr, err := gm.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	return mr.room.Snapshot(), nil
}

// ListRooms returns summaries of the rooms held in memory, ordered by code.
func (gm *GameManager) ListRooms() []RoomSummary {
	gm.mu.RLock()
	rooms := make([]*game.Room, 0, len(gm.rooms))
	for _, mr := range gm.rooms {
		rooms = append(rooms, mr.room)
	}
	gm.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		s := r.Snapshot()
		summaries = append(summaries, RoomSummary{
			Code:         s.RoomCode,
			Players:      len(s.Players),
			MaxPlayers:   s.MaxPlayers,
			Stage:        s.Stage,
			SmallBlind:   s.SmallBlind,
			BigBlind:     s.BigBlind,
			HandNumber:   s.HandNumber,
			LastActivity: s.LastActivity,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Code < summaries[j].Code })
	return summaries
}

// DeleteRoom cancels the room's timers, flushes its dispatcher and removes
// it from memory and the store.
func (gm *GameManager) DeleteRoom(ctx context.Context, code string) error {
	gm.mu.Lock()
	mr, ok := gm.rooms[code]
	delete(gm.rooms, code)
	gm.mu.Unlock()

	if ok {
		mr.room.Close()
		mr.dispatch.close()
		gm.publisher.RoomRemoved(code)
	} else if _, err := gm.store.Load(ctx, code); errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	if err := gm.store.Remove(ctx, code); err != nil {
		return fmt.Errorf("remove room %s: %w", code, err)
	}
	gm.logger.Info("Room deleted", "room", code)
	return nil
}

// RestoreAll loads every stored room that still has players. Rooms that
// fail to decode are logged and skipped.
func (gm *GameManager) RestoreAll(ctx context.Context) (int, error) {
	codes, err := gm.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored rooms: %w", err)
	}

	restored := 0
	for _, code := range codes {
		data, err := gm.store.Load(ctx, code)
		if err != nil {
			gm.logger.Warn("Failed to load stored room", "room", code, "error", err)
			continue
		}
		state, err := game.DecodeState(data)
		if err != nil {
			gm.logger.Warn("Failed to decode stored room", "room", code, "error", err)
			continue
		}
		if len(state.Players) == 0 {
			continue
		}
		gm.restore(code, state)
		restored++
	}
	gm.logger.Info("Restored rooms", "restored", restored, "stored", len(codes))
	return restored, nil
}

// Close stops every room and flushes pending snapshots. The store is left
// open for its owner to close.
func (gm *GameManager) Close() {
	gm.mu.Lock()
	rooms := gm.rooms
	gm.rooms = make(map[string]*managedRoom)
	gm.mu.Unlock()

	for _, mr := range rooms {
		mr.room.Close()
		mr.dispatch.close()
	}
}

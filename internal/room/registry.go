package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository"
)

// Registry tracks live room actors and revives persisted ones on demand.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	store       repository.RoomStore
	log         zerolog.Logger
	idleTimeout time.Duration
	newStrategy func() bot.Strategy

	sweepStop chan struct{}
	closeOnce sync.Once
}

// NewRegistry builds a registry. newStrategy is invoked once per bot seat
// when a room is created or revived; idleTimeout bounds how long a room with
// no sockets stays resident.
func NewRegistry(store repository.RoomStore, newStrategy func() bot.Strategy, idleTimeout time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		store:       store,
		log:         log,
		idleTimeout: idleTimeout,
		newStrategy: newStrategy,
		sweepStop:   make(chan struct{}),
	}
}

// Create persists a fresh lobby room and starts its actor. The first player
// is the host; botCount practice bots are seated already ready.
func (reg *Registry) Create(ctx context.Context, cfg model.RoomConfig, players []model.LobbyPlayer, botCount int) (*Room, error) {
	if len(players) == 0 {
		return nil, errors.New("room needs at least one player")
	}
	seats := make([]model.LobbyPlayer, 0, len(players)+botCount)
	seats = append(seats, players...)
	for i := 0; i < botCount; i++ {
		seats = append(seats, model.LobbyPlayer{
			ID:          "bot-" + uuid.NewString()[:8],
			DisplayName: fmt.Sprintf("Bot %d", i+1),
			Ready:       true,
			IsBot:       true,
		})
	}
	if len(seats) > cfg.MaxPlayers {
		return nil, fmt.Errorf("%d seats exceed max players %d", len(seats), cfg.MaxPlayers)
	}

	state := newRoomState(uuid.NewString(), cfg, seats)
	raw, err := state.encode()
	if err != nil {
		return nil, err
	}
	saveCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := reg.store.SaveRoom(saveCtx, state.Meta.RoomID, raw); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	r := newRoom(state, reg.store, reg.newStrategy, reg.log)
	reg.mu.Lock()
	reg.rooms[r.id] = r
	reg.mu.Unlock()
	go r.run()

	reg.log.Info().Str("roomId", r.id).Str("mode", cfg.Mode).Int("deckSize", cfg.DeckSize).Int("bots", botCount).Msg("room created")
	return r, nil
}

// Get returns the live room, reviving it from the store when needed.
// (nil, nil) means no such room exists.
func (reg *Registry) Get(ctx context.Context, roomID string) (*Room, error) {
	reg.mu.Lock()
	if r, ok := reg.rooms[roomID]; ok {
		reg.mu.Unlock()
		return r, nil
	}
	reg.mu.Unlock()

	raw, err := reg.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	state, err := decodeRoomState(raw)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok { // lost the revival race
		return r, nil
	}
	r := newRoom(state, reg.store, reg.newStrategy, reg.log)
	reg.rooms[roomID] = r
	go r.run()

	reg.log.Info().Str("roomId", roomID).Str("phase", string(state.Phase)).Msg("room revived")
	return r, nil
}

// CreateRoom is Create reduced to the room id, for callers that only hand
// the id out.
func (reg *Registry) CreateRoom(ctx context.Context, cfg model.RoomConfig, players []model.LobbyPlayer, botCount int) (string, error) {
	r, err := reg.Create(ctx, cfg, players, botCount)
	if err != nil {
		return "", err
	}
	return r.ID(), nil
}

// RoomExists reports whether the room is live or persisted. A persisted
// room is revived in the process.
func (reg *Registry) RoomExists(ctx context.Context, roomID string) (bool, error) {
	r, err := reg.Get(ctx, roomID)
	if err != nil {
		return false, err
	}
	return r != nil, nil
}

// StartSweeper evicts rooms whose last socket detached more than the idle
// timeout ago. The persisted snapshot is kept so they can be revived.
func (reg *Registry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-reg.sweepStop:
				return
			case <-ticker.C:
				reg.sweep(time.Now())
			}
		}
	}()
}

func (reg *Registry) sweep(now time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for id, r := range reg.rooms {
		idle := r.IdleSince()
		if idle.IsZero() || now.Sub(idle) < reg.idleTimeout {
			continue
		}
		r.Stop()
		delete(reg.rooms, id)
		reg.log.Info().Str("roomId", id).Msg("idle room evicted")
	}
}

// Close stops the sweeper and every live actor.
func (reg *Registry) Close() {
	reg.closeOnce.Do(func() { close(reg.sweepStop) })
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for id, r := range reg.rooms {
		r.Stop()
		delete(reg.rooms, id)
	}
}

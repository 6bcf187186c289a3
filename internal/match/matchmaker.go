// Package match pairs queued players into rooms.
//
// Queues are in-memory, FIFO, and keyed by the full game configuration, so
// only players who asked for the same mode, deck and table size end up
// together. A single mutex serialises every operation. Matched players get a
// short-lived Redis binding to their room, so a client that polls again (or
// restarts) after the match still finds it.
package match

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository"
)

// Rooms is the slice of the room layer the matchmaker needs. The room
// registry satisfies it.
type Rooms interface {
	CreateRoom(ctx context.Context, cfg model.RoomConfig, players []model.LobbyPlayer, botCount int) (string, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

// Status is the outcome of an Enqueue call.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusMatched Status = "matched"
)

// Result reports where an Enqueue left the caller. RoomID is set only when
// Status is StatusMatched.
type Result struct {
	Status Status
	RoomID string
}

type entry struct {
	playerID    string
	displayName string
}

// Matchmaker groups players with identical settings into rooms. One
// instance serves the whole process.
type Matchmaker struct {
	mu       sync.Mutex
	queues   map[model.RoomConfig][]entry
	rooms    Rooms
	bindings repository.MatchStore
	ttl      time.Duration
	log      zerolog.Logger
}

// NewMatchmaker builds a matchmaker. ttl bounds how long a player's binding
// to a freshly made room stays readable.
func NewMatchmaker(rooms Rooms, bindings repository.MatchStore, ttl time.Duration, log zerolog.Logger) *Matchmaker {
	return &Matchmaker{
		queues:   make(map[model.RoomConfig][]entry),
		rooms:    rooms,
		bindings: bindings,
		ttl:      ttl,
		log:      log.With().Str("component", "matchmaker").Logger(),
	}
}

// Enqueue queues the player for cfg, or matches immediately once the queue
// holds a full table. A player whose previous match is still alive is sent
// back to that room instead of queueing twice. Enqueue is idempotent: a
// player already waiting for cfg is not appended again, but a full queue is
// still drained, so polling retries a match that failed on room creation.
func (m *Matchmaker) Enqueue(ctx context.Context, playerID, displayName string, cfg model.RoomConfig) (Result, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if roomID := m.liveBinding(ctx, playerID); roomID != "" {
		return Result{Status: StatusMatched, RoomID: roomID}, nil
	}
	if !m.queuedLocked(cfg, playerID) {
		m.queues[cfg] = append(m.queues[cfg], entry{playerID: playerID, displayName: displayName})
		m.log.Debug().Str("playerId", playerID).Str("mode", cfg.Mode).Int("depth", len(m.queues[cfg])).Msg("player queued")
	}
	return m.tryMatchLocked(ctx, cfg, playerID), nil
}

// Cancel removes the player from every queue. It reports whether the player
// was waiting anywhere. Bindings are left alone: a cancelled player keeps a
// room they were already matched into.
func (m *Matchmaker) Cancel(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.dropLocked(playerID)
	if removed {
		m.log.Debug().Str("playerId", playerID).Msg("player left the queue")
	}
	return removed
}

// tryMatchLocked pops the first MaxPlayers waiters and turns them into a
// room. On creation failure the group goes back to the queue head in its
// original order and everyone stays queued.
func (m *Matchmaker) tryMatchLocked(ctx context.Context, cfg model.RoomConfig, callerID string) Result {
	q := m.queues[cfg]
	if len(q) < cfg.MaxPlayers {
		return Result{Status: StatusQueued}
	}

	group := append([]entry(nil), q[:cfg.MaxPlayers]...)
	if rest := q[cfg.MaxPlayers:]; len(rest) == 0 {
		delete(m.queues, cfg)
	} else {
		m.queues[cfg] = append([]entry(nil), rest...)
	}

	players := make([]model.LobbyPlayer, len(group))
	for i, e := range group {
		players[i] = model.LobbyPlayer{ID: e.playerID, DisplayName: e.displayName}
	}
	roomID, err := m.rooms.CreateRoom(ctx, cfg, players, 0)
	if err != nil {
		m.queues[cfg] = append(group, m.queues[cfg]...)
		m.log.Error().Err(err).Str("mode", cfg.Mode).Int("deckSize", cfg.DeckSize).Msg("match room creation failed")
		return Result{Status: StatusQueued}
	}

	res := Result{Status: StatusQueued}
	for _, e := range group {
		m.dropLocked(e.playerID)
		if err := m.bindings.SetBinding(ctx, e.playerID, roomID, m.ttl); err != nil {
			m.log.Warn().Err(err).Str("playerId", e.playerID).Str("roomId", roomID).Msg("match binding write failed")
		}
		if e.playerID == callerID {
			res = Result{Status: StatusMatched, RoomID: roomID}
		}
	}
	m.log.Info().Str("roomId", roomID).Int("players", len(group)).Str("mode", cfg.Mode).Int("deckSize", cfg.DeckSize).Msg("match made")
	return res
}

// liveBinding returns the player's bound room when that room still exists.
// Stale bindings are cleared on sight.
func (m *Matchmaker) liveBinding(ctx context.Context, playerID string) string {
	roomID, err := m.bindings.GetBinding(ctx, playerID)
	if err != nil {
		m.log.Warn().Err(err).Str("playerId", playerID).Msg("binding lookup failed")
		return ""
	}
	if roomID == "" {
		return ""
	}
	ok, err := m.rooms.RoomExists(ctx, roomID)
	if err != nil {
		m.log.Warn().Err(err).Str("roomId", roomID).Msg("room lookup failed")
		return ""
	}
	if !ok {
		if err := m.bindings.ClearBinding(ctx, playerID); err != nil {
			m.log.Warn().Err(err).Str("playerId", playerID).Msg("stale binding clear failed")
		}
		return ""
	}
	return roomID
}

func (m *Matchmaker) queuedLocked(cfg model.RoomConfig, playerID string) bool {
	for _, e := range m.queues[cfg] {
		if e.playerID == playerID {
			return true
		}
	}
	return false
}

// dropLocked removes the player from all queues, releasing empty ones.
func (m *Matchmaker) dropLocked(playerID string) bool {
	removed := false
	for cfg, q := range m.queues {
		for i, e := range q {
			if e.playerID != playerID {
				continue
			}
			q = append(q[:i:i], q[i+1:]...)
			removed = true
			break
		}
		if len(q) == 0 {
			delete(m.queues, cfg)
		} else {
			m.queues[cfg] = q
		}
	}
	return removed
}

package room

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/pkg/durak"
)

// RoomState is the full persisted document for one room, written as a
// single value under room/{roomId}. Loading and re-serialising a snapshot
// yields identical bytes.
type RoomState struct {
	Meta         model.RoomMeta      `json:"meta"`
	LobbyPlayers []model.LobbyPlayer `json:"lobbyPlayers"`
	Phase        model.RoomPhase     `json:"phase"`
	Game         *durak.GameState    `json:"game,omitempty"`
}

// newRoomState builds a fresh lobby with the given seats. The first seat is
// the host.
func newRoomState(roomID string, cfg model.RoomConfig, players []model.LobbyPlayer) *RoomState {
	seats := make([]model.LobbyPlayer, len(players))
	copy(seats, players)
	return &RoomState{
		Meta: model.RoomMeta{
			RoomID:    roomID,
			HostID:    players[0].ID,
			Config:    cfg,
			CreatedAt: time.Now().UTC(),
		},
		LobbyPlayers: seats,
		Phase:        model.RoomLobby,
	}
}

// decodeRoomState parses a persisted snapshot.
func decodeRoomState(raw json.RawMessage) (*RoomState, error) {
	var s RoomState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode room snapshot: %w", err)
	}
	if s.Meta.RoomID == "" {
		return nil, fmt.Errorf("decode room snapshot: missing meta")
	}
	if s.LobbyPlayers == nil {
		s.LobbyPlayers = []model.LobbyPlayer{}
	}
	return &s, nil
}

// encode serialises the snapshot for persistence.
func (s *RoomState) encode() (json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode room snapshot: %w", err)
	}
	return raw, nil
}

// seat returns the lobby entry for a player, nil when not seated.
func (s *RoomState) seat(playerID string) *model.LobbyPlayer {
	for i := range s.LobbyPlayers {
		if s.LobbyPlayers[i].ID == playerID {
			return &s.LobbyPlayers[i]
		}
	}
	return nil
}

// seatIDs returns the seated player ids in join order.
func (s *RoomState) seatIDs() []string {
	ids := make([]string, len(s.LobbyPlayers))
	for i, p := range s.LobbyPlayers {
		ids[i] = p.ID
	}
	return ids
}

// allReady reports whether every seat is marked ready.
func (s *RoomState) allReady() bool {
	for _, p := range s.LobbyPlayers {
		if !p.Ready {
			return false
		}
	}
	return true
}

// gameConfig converts the room configuration into engine terms.
func (s *RoomState) gameConfig() durak.Config {
	return durak.Config{
		Mode:     durak.Mode(s.Meta.Config.Mode),
		DeckSize: s.Meta.Config.DeckSize,
	}
}

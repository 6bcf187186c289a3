package handler

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository"
	"github.com/fooltable/durak-api/internal/room"
)

// RoomHandler creates private rooms outside the matchmaker.
type RoomHandler struct {
	rooms  *room.Registry
	users  repository.UserRepository
	wsBase string
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(rooms *room.Registry, users repository.UserRepository, wsBase string) *RoomHandler {
	return &RoomHandler{rooms: rooms, users: users, wsBase: wsBase}
}

// Create handles POST /api/room/create. The caller becomes the host; bots
// seats that many ready practice bots alongside them.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	var req struct {
		Config model.RoomConfig `json:"config"`
		Bots   int              `json:"bots"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg := req.Config
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Bots < 0 || req.Bots > cfg.MaxPlayers-1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bots must be 0 to %d", cfg.MaxPlayers-1))
		return
	}

	host := model.LobbyPlayer{ID: playerID, DisplayName: displayName(r.Context(), h.users, playerID)}
	rm, err := h.rooms.Create(r.Context(), cfg, []model.LobbyPlayer{host}, req.Bots)
	if err != nil {
		log.Error().Err(err).Str("playerId", playerID).Msg("Failed to create room")
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"roomId": rm.ID(),
		"wsUrl":  wsURL(h.wsBase, rm.ID()),
		"config": rm.Config(),
	})
}

package handler

import (
	"net/http"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/match"
	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository"
)

// MatchHandler exposes the matchmaker queue. Both endpoints sit behind the
// session middleware, so the player id always comes from the context.
type MatchHandler struct {
	matcher *match.Matchmaker
	users   repository.UserRepository
	wsBase  string
}

// NewMatchHandler creates a MatchHandler. wsBase is the externally visible
// WebSocket origin, e.g. "wss://host".
func NewMatchHandler(matcher *match.Matchmaker, users repository.UserRepository, wsBase string) *MatchHandler {
	return &MatchHandler{matcher: matcher, users: users, wsBase: wsBase}
}

// Enqueue handles POST /api/matchmaking. Clients poll it: the same call
// both joins the queue and reports a completed match.
func (h *MatchHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	var cfg model.RoomConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.matcher.Enqueue(r.Context(), playerID, displayName(r.Context(), h.users, playerID), cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Status == match.StatusMatched {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": match.StatusMatched,
			"roomId": res.RoomID,
			"wsUrl":  wsURL(h.wsBase, res.RoomID),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": match.StatusQueued})
}

// Cancel handles DELETE /api/matchmaking. Removing an absent player is a
// no-op; the response does not distinguish.
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.matcher.Cancel(auth.PlayerIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

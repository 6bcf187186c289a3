// Package handler holds the HTTP and WebSocket boundary: login, matchmaking,
// room creation and the socket pumps that feed the room actors.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/repository"
)

// maxBodyBytes caps request bodies; every API payload here is tiny.
const maxBodyBytes = 16 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes a size-capped JSON request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

// Healthz answers liveness probes with a bare "ok".
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// wsURL builds the client-facing WebSocket URL for a room.
func wsURL(base, roomID string) string {
	return strings.TrimRight(base, "/") + "/ws/" + roomID
}

// displayName resolves a player's first name from the user directory,
// falling back to a generated label so lobbies never show blank seats.
func displayName(ctx context.Context, users repository.UserRepository, playerID string) string {
	u, err := users.FindByID(ctx, playerID)
	if err != nil || u == nil || u.FirstName == "" {
		if len(playerID) > 8 {
			return "Player " + playerID[:8]
		}
		return "Player " + playerID
	}
	return u.FirstName
}

package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/repository"
)

// AuthHandler exchanges Telegram WebApp initData for a session token.
type AuthHandler struct {
	validator *auth.InitDataValidator
	sessions  *auth.SessionManager
	users     repository.UserRepository
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(validator *auth.InitDataValidator, sessions *auth.SessionManager, users repository.UserRepository) *AuthHandler {
	return &AuthHandler{validator: validator, sessions: sessions, users: users}
}

// TelegramLogin handles POST /api/auth/telegram. The body carries the raw
// initData query string exactly as Telegram handed it to the WebApp.
func (h *AuthHandler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitData string `json:"initData"`
	}
	if err := decodeJSON(r, &req); err != nil || req.InitData == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tgUser, err := h.validator.Validate(req.InitData)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "initData validation failed")
		return
	}

	user, err := h.users.Upsert(r.Context(), tgUser.ID, tgUser.FirstName, tgUser.Username, tgUser.LanguageCode)
	if err != nil {
		log.Error().Err(err).Int64("telegramId", tgUser.ID).Msg("Failed to upsert user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.sessions.Mint(user.ID)
	if err != nil {
		log.Error().Err(err).Str("playerId", user.ID).Msg("Failed to mint session token")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionToken": token,
		"user": map[string]any{
			"id":        user.ID,
			"firstName": user.FirstName,
			"username":  user.Username,
		},
	})
}

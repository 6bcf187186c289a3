package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// SetPlayerIDForTest injects a player ID into the context for testing purposes.
func SetPlayerIDForTest(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerIDKey, playerID)
}

// MintSessionForTest issues a correctly signed token with an arbitrary
// expiry, bypassing the standard TTL. Tests use it to exercise expiry paths
// without waiting.
func MintSessionForTest(secret, playerID string, issuedAt, expiresAt time.Time) string {
	body, _ := json.Marshal(sessionPayload{
		PlayerID:  playerID,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	b64 := base64.RawURLEncoding.EncodeToString(body)
	m := &SessionManager{secret: []byte(secret)}
	return b64 + "." + m.sign(b64)
}

// SignInitData builds a correctly signed initData string for the given bot
// token. Tests and the headless bot client use it in place of a real
// Telegram WebApp.
func SignInitData(botToken string, user TelegramUser, authDate time.Time) string {
	userJSON, _ := json.Marshal(user)
	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))

	mac := hmac.New(sha256.New, webAppSecret(botToken))
	mac.Write([]byte(checkString(values)))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

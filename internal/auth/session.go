package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrBadSession     = errors.New("bad session token")
	ErrSessionExpired = errors.New("session expired")
)

const sessionTTL = 2 * time.Hour

// Session is the verified payload of a session token.
type Session struct {
	PlayerID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionPayload struct {
	PlayerID  string `json:"playerId"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SessionManager mints and verifies the bearer tokens handed out after
// Telegram login. A token is base64url(payloadJSON) + "." + hex
// HMAC-SHA256 of the base64 part under the app secret: the payload is
// readable, the MAC makes it tamper-proof.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a SessionManager with the given secret and the
// standard two-hour token lifetime.
func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: sessionTTL}
}

// Mint issues a fresh token for the player.
func (m *SessionManager) Mint(playerID string) (string, error) {
	now := time.Now()
	body, err := json.Marshal(sessionPayload{
		PlayerID:  playerID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	b64 := base64.RawURLEncoding.EncodeToString(body)
	return b64 + "." + m.sign(b64), nil
}

// Verify checks the MAC and expiry and returns the embedded session.
// Returns ErrBadSession for anything malformed or tampered with and
// ErrSessionExpired for a genuine token past its expiry.
func (m *SessionManager) Verify(token string) (*Session, error) {
	b64, mac, ok := strings.Cut(token, ".")
	if !ok || b64 == "" || strings.Contains(mac, ".") {
		return nil, ErrBadSession
	}
	if !hmac.Equal([]byte(mac), []byte(m.sign(b64))) {
		return nil, ErrBadSession
	}
	body, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return nil, ErrBadSession
	}
	var p sessionPayload
	if err := json.Unmarshal(body, &p); err != nil || p.PlayerID == "" {
		return nil, ErrBadSession
	}
	if time.Now().Unix() >= p.ExpiresAt {
		return nil, ErrSessionExpired
	}
	return &Session{
		PlayerID:  p.PlayerID,
		IssuedAt:  time.Unix(p.IssuedAt, 0),
		ExpiresAt: time.Unix(p.ExpiresAt, 0),
	}, nil
}

func (m *SessionManager) sign(b64 string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(b64))
	return hex.EncodeToString(mac.Sum(nil))
}

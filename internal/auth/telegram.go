package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataInvalid = errors.New("initData signature invalid")
	ErrInitDataExpired = errors.New("initData too old")
)

// TelegramUser is the user field of a validated initData payload. Field
// names follow Telegram's wire format.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// InitDataValidator checks Telegram WebApp initData signatures.
//
// The scheme is fixed by Telegram: the data-check string is every key=value
// pair except hash, sorted by key and joined with newlines; the signing key
// is HMAC-SHA256 of the bot token under the literal key "WebAppData"; the
// hash field must equal the lowercase hex HMAC-SHA256 of the data-check
// string under that key.
type InitDataValidator struct {
	secretKey []byte
	maxAge    time.Duration
}

// NewInitDataValidator derives the signing key from the bot token. maxAge
// bounds auth_date freshness; zero disables the check.
func NewInitDataValidator(botToken string, maxAge time.Duration) *InitDataValidator {
	return &InitDataValidator{secretKey: webAppSecret(botToken), maxAge: maxAge}
}

// Validate verifies the signature over the raw initData query string and
// returns the embedded user.
func (v *InitDataValidator) Validate(initData string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInitDataInvalid
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, ErrInitDataInvalid
	}

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(checkString(values)))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(gotHash), []byte(want)) {
		return nil, ErrInitDataInvalid
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, ErrInitDataInvalid
		}
		if time.Since(time.Unix(authDate, 0)) > v.maxAge {
			return nil, ErrInitDataExpired
		}
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrInitDataInvalid
	}
	return &user, nil
}

// checkString builds the data-check string: all pairs except hash, sorted
// by key, joined as k=v with newlines.
func checkString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	return strings.Join(pairs, "\n")
}

func webAppSecret(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

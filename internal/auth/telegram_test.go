package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testBotToken = "7000000001:test-bot-token"

func TestValidateSignedInitData(t *testing.T) {
	user := TelegramUser{ID: 99, FirstName: "Anna", Username: "anna_d", LanguageCode: "ru"}
	initData := SignInitData(testBotToken, user, time.Now())

	v := NewInitDataValidator(testBotToken, 0)
	got, err := v.Validate(initData)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != 99 {
		t.Errorf("expected id=99, got %d", got.ID)
	}
	if got.FirstName != "Anna" || got.Username != "anna_d" {
		t.Errorf("unexpected user fields: %+v", got)
	}
}

func TestValidateWrongBotToken(t *testing.T) {
	initData := SignInitData(testBotToken, TelegramUser{ID: 1, FirstName: "A"}, time.Now())

	v := NewInitDataValidator("7000000002:other-token", 0)
	if _, err := v.Validate(initData); !errors.Is(err, ErrInitDataInvalid) {
		t.Errorf("expected ErrInitDataInvalid, got %v", err)
	}
}

func TestValidateTamperedUser(t *testing.T) {
	initData := SignInitData(testBotToken, TelegramUser{ID: 1, FirstName: "A"}, time.Now())

	values, err := url.ParseQuery(initData)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	values.Set("user", `{"id":2,"first_name":"B"}`)

	v := NewInitDataValidator(testBotToken, 0)
	if _, err := v.Validate(values.Encode()); !errors.Is(err, ErrInitDataInvalid) {
		t.Errorf("expected ErrInitDataInvalid for tampered user, got %v", err)
	}
}

func TestValidateTamperedHash(t *testing.T) {
	initData := SignInitData(testBotToken, TelegramUser{ID: 1, FirstName: "A"}, time.Now())

	values, _ := url.ParseQuery(initData)
	values.Set("hash", "0000000000000000000000000000000000000000000000000000000000000000")

	v := NewInitDataValidator(testBotToken, 0)
	if _, err := v.Validate(values.Encode()); !errors.Is(err, ErrInitDataInvalid) {
		t.Errorf("expected ErrInitDataInvalid for bad hash, got %v", err)
	}
}

func TestValidateMissingHash(t *testing.T) {
	v := NewInitDataValidator(testBotToken, 0)
	if _, err := v.Validate("user=%7B%22id%22%3A1%7D&auth_date=123"); !errors.Is(err, ErrInitDataInvalid) {
		t.Errorf("expected ErrInitDataInvalid without hash, got %v", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	v := NewInitDataValidator(testBotToken, 0)
	for _, s := range []string{"", "%zz", "hash=abc"} {
		if _, err := v.Validate(s); !errors.Is(err, ErrInitDataInvalid) {
			t.Errorf("Validate(%q): expected ErrInitDataInvalid, got %v", s, err)
		}
	}
}

func TestValidateMaxAge(t *testing.T) {
	stale := SignInitData(testBotToken, TelegramUser{ID: 1, FirstName: "A"}, time.Now().Add(-48*time.Hour))

	strict := NewInitDataValidator(testBotToken, 24*time.Hour)
	if _, err := strict.Validate(stale); !errors.Is(err, ErrInitDataExpired) {
		t.Errorf("expected ErrInitDataExpired, got %v", err)
	}

	lax := NewInitDataValidator(testBotToken, 0)
	if _, err := lax.Validate(stale); err != nil {
		t.Errorf("expected stale initData to pass with maxAge=0, got %v", err)
	}
}

// Signing a payload without a user field must not validate: the user is the
// whole point of the exchange.
func TestValidateMissingUser(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	mac := hmac.New(sha256.New, webAppSecret(testBotToken))
	mac.Write([]byte(checkString(values)))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))

	v := NewInitDataValidator(testBotToken, 0)
	if _, err := v.Validate(values.Encode()); !errors.Is(err, ErrInitDataInvalid) {
		t.Errorf("expected ErrInitDataInvalid without user field, got %v", err)
	}
}

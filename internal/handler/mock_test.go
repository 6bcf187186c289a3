package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/model"
)

// fakeUsers is an in-memory UserRepository keyed both ways.
type fakeUsers struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*model.User
	byExt  map[int64]*model.User
	fail   bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*model.User), byExt: make(map[int64]*model.User)}
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("db down")
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByExternalID(_ context.Context, externalID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("db down")
	}
	u, ok := f.byExt[externalID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Upsert(_ context.Context, externalID int64, firstName, username, languageCode string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("db down")
	}
	if u, ok := f.byExt[externalID]; ok {
		u.FirstName = firstName
		u.Username = username
		u.LanguageCode = languageCode
		u.UpdatedAt = time.Now()
		cp := *u
		return &cp, nil
	}
	f.nextID++
	u := &model.User{
		ID:           fmt.Sprintf("u-%04d", f.nextID),
		ExternalID:   externalID,
		FirstName:    firstName,
		Username:     username,
		LanguageCode: languageCode,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.byID[u.ID] = u
	f.byExt[externalID] = u
	cp := *u
	return &cp, nil
}

// seed adds a user row directly and returns its id.
func (f *fakeUsers) seed(externalID int64, firstName string) string {
	u, _ := f.Upsert(context.Background(), externalID, firstName, "", "")
	return u.ID
}

// memStore is an in-memory RoomStore.
type memStore struct {
	mu    sync.Mutex
	rooms map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]json.RawMessage)}
}

func (s *memStore) SaveRoom(_ context.Context, roomID string, snapshot json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = append(json.RawMessage(nil), snapshot...)
	return nil
}

func (s *memStore) LoadRoom(_ context.Context, roomID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), raw...), nil
}

func (s *memStore) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

// snapshotPlayers decodes the seats out of a persisted room snapshot.
func (s *memStore) snapshotPlayers(t *testing.T, roomID string) []model.LobbyPlayer {
	t.Helper()
	s.mu.Lock()
	raw := s.rooms[roomID]
	s.mu.Unlock()
	if raw == nil {
		t.Fatalf("no snapshot for room %s", roomID)
	}
	var snap struct {
		LobbyPlayers []model.LobbyPlayer `json:"lobbyPlayers"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap.LobbyPlayers
}

// snapshotPhase decodes the phase out of a persisted room snapshot.
func (s *memStore) snapshotPhase(t *testing.T, roomID string) string {
	t.Helper()
	s.mu.Lock()
	raw := s.rooms[roomID]
	s.mu.Unlock()
	if raw == nil {
		t.Fatalf("no snapshot for room %s", roomID)
	}
	var snap struct {
		Phase string `json:"phase"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap.Phase
}

// memBindings is an in-memory MatchStore.
type memBindings struct {
	mu    sync.Mutex
	rooms map[string]string
}

func newMemBindings() *memBindings {
	return &memBindings{rooms: make(map[string]string)}
}

func (b *memBindings) SetBinding(_ context.Context, playerID, roomID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[playerID] = roomID
	return nil
}

func (b *memBindings) GetBinding(_ context.Context, playerID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rooms[playerID], nil
}

func (b *memBindings) ClearBinding(_ context.Context, playerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, playerID)
	return nil
}

// postAs builds an authenticated JSON POST carrying playerID in context.
func postAs(playerID, target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	return req.WithContext(auth.SetPlayerIDForTest(req.Context(), playerID))
}

// deleteAs builds an authenticated DELETE carrying playerID in context.
func deleteAs(playerID, target string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, target, nil)
	return req.WithContext(auth.SetPlayerIDForTest(req.Context(), playerID))
}

// decodeBody unmarshals a recorder body into a loose map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

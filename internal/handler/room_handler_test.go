package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/room"
)

func newRoomEnv(t *testing.T) (*RoomHandler, *fakeUsers, *memStore) {
	t.Helper()
	store := newMemStore()
	reg := room.NewRegistry(store, func() bot.Strategy { return bot.GreedyStrategy{} }, 30*time.Minute, zerolog.Nop())
	t.Cleanup(reg.Close)
	users := newFakeUsers()
	return NewRoomHandler(reg, users, "ws://game.test/"), users, store
}

func createAs(h *RoomHandler, playerID, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Create(rec, postAs(playerID, "/api/room/create", body))
	return rec
}

func TestRoomCreate_HostGetsRoomAndURL(t *testing.T) {
	h, users, store := newRoomEnv(t)
	ann := users.seed(1, "Ann")

	rec := createAs(h, ann, `{"config":{"mode":"perevodnoy","deckSize":24,"maxPlayers":2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeBody(t, rec)
	roomID, _ := got["roomId"].(string)
	if roomID == "" {
		t.Fatal("expected a room id")
	}
	// Base URL trailing slash must not double up.
	if want := "ws://game.test/ws/" + roomID; got["wsUrl"] != want {
		t.Errorf("expected wsUrl %q, got %v", want, got["wsUrl"])
	}
	cfg, _ := got["config"].(map[string]any)
	if cfg == nil || cfg["mode"] != "perevodnoy" || cfg["deckSize"] != float64(24) {
		t.Errorf("unexpected config echo: %v", cfg)
	}

	players := store.snapshotPlayers(t, roomID)
	if len(players) != 1 || players[0].ID != ann || players[0].DisplayName != "Ann" {
		t.Errorf("expected only the host seated, got %+v", players)
	}
}

func TestRoomCreate_NormalizesEmptyConfig(t *testing.T) {
	h, users, _ := newRoomEnv(t)
	id := users.seed(1, "Ann")

	rec := createAs(h, id, `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cfg := decodeBody(t, rec)["config"].(map[string]any)
	if cfg["mode"] != "podkidnoy" || cfg["deckSize"] != float64(36) || cfg["maxPlayers"] != float64(2) {
		t.Errorf("expected default config, got %v", cfg)
	}
}

func TestRoomCreate_SeatsReadyBots(t *testing.T) {
	h, users, store := newRoomEnv(t)
	id := users.seed(1, "Ann")

	rec := createAs(h, id, `{"config":{"maxPlayers":4,"deckSize":36},"bots":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	players := store.snapshotPlayers(t, decodeBody(t, rec)["roomId"].(string))
	if len(players) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(players))
	}
	bots := 0
	for _, p := range players[1:] {
		if !p.IsBot || !p.Ready {
			t.Errorf("expected ready bot seat, got %+v", p)
		}
		bots++
	}
	if bots != 3 {
		t.Errorf("expected 3 bots, got %d", bots)
	}
}

func TestRoomCreate_RejectsBadRequests(t *testing.T) {
	h, users, _ := newRoomEnv(t)
	id := users.seed(1, "Ann")

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"config":`},
		{"unknown mode", `{"config":{"mode":"bridge"}}`},
		{"bad deck", `{"config":{"deckSize":52}}`},
		{"too many bots", `{"config":{"maxPlayers":2},"bots":2}`},
		{"negative bots", `{"bots":-1}`},
		{"too many players", `{"config":{"maxPlayers":6}}`},
	}
	for _, tc := range cases {
		rec := createAs(h, id, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d: %s", tc.name, rec.Code, rec.Body.String())
		}
	}
}

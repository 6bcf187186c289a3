package room

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/model"
)

func newTestRegistry(store *memStore) *Registry {
	return NewRegistry(store, func() bot.Strategy { return bot.GreedyStrategy{} }, 30*time.Minute, zerolog.Nop())
}

func TestRegistryCreate_PersistsAndStarts(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)
	defer reg.Close()

	r, err := reg.Create(context.Background(), testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID() == "" {
		t.Fatal("room has no id")
	}
	if store.snapshot(r.ID()) == nil {
		t.Error("room was not persisted")
	}

	got, err := reg.Get(context.Background(), r.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != r {
		t.Error("Get returned a different instance for a live room")
	}
}

func TestRegistryCreate_SeatsBots(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)
	defer reg.Close()

	r, err := reg.Create(context.Background(), testConfig(4), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(r.state.LobbyPlayers) != 3 {
		t.Fatalf("expected 3 seats, got %d", len(r.state.LobbyPlayers))
	}
	for _, p := range r.state.LobbyPlayers[1:] {
		if !p.IsBot || !p.Ready {
			t.Errorf("bot seat not ready: %+v", p)
		}
	}
	if len(r.bots) != 2 {
		t.Errorf("expected 2 strategies, got %d", len(r.bots))
	}
	if r.state.Meta.HostID != "p1" {
		t.Errorf("expected host p1, got %s", r.state.Meta.HostID)
	}
}

func TestRegistryCreate_RejectsOverfullSeating(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)
	defer reg.Close()

	if _, err := reg.Create(context.Background(), testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 3); err == nil {
		t.Error("expected error for too many seats")
	}
	if _, err := reg.Create(context.Background(), testConfig(2), nil, 2); err == nil {
		t.Error("expected error for no players")
	}
}

func TestRegistryGet_RevivesFromStore(t *testing.T) {
	store := newMemStore()

	state := newRoomState("cold-room", testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}})
	raw, err := state.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := store.SaveRoom(context.Background(), "cold-room", raw); err != nil {
		t.Fatalf("SaveRoom: %v", err)
	}

	reg := newTestRegistry(store)
	defer reg.Close()

	r, err := reg.Get(context.Background(), "cold-room")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r == nil {
		t.Fatal("persisted room was not revived")
	}
	if r.ID() != "cold-room" {
		t.Errorf("expected cold-room, got %s", r.ID())
	}

	again, err := reg.Get(context.Background(), "cold-room")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if again != r {
		t.Error("revival created a second actor")
	}
}

func TestRegistryGet_MissingRoom(t *testing.T) {
	reg := newTestRegistry(newMemStore())
	defer reg.Close()

	r, err := reg.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r != nil {
		t.Error("expected nil for a missing room")
	}
}

func TestRegistryGet_CorruptSnapshot(t *testing.T) {
	store := newMemStore()
	if err := store.SaveRoom(context.Background(), "bad", []byte("{not json")); err != nil {
		t.Fatalf("SaveRoom: %v", err)
	}
	reg := newTestRegistry(store)
	defer reg.Close()

	if _, err := reg.Get(context.Background(), "bad"); err == nil {
		t.Error("expected decode error")
	}
}

func TestSweep_EvictsIdleKeepsSnapshot(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)
	defer reg.Close()

	r, err := reg.Create(context.Background(), testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reg.sweep(time.Now().Add(31 * time.Minute))

	reg.mu.Lock()
	_, live := reg.rooms[r.ID()]
	reg.mu.Unlock()
	if live {
		t.Error("idle room not evicted")
	}
	if store.snapshot(r.ID()) == nil {
		t.Error("eviction deleted the snapshot")
	}
	if r.Attach("p1", "One", newStubSocket()) {
		t.Error("evicted actor still accepts events")
	}

	// A later Get must revive it from the snapshot.
	revived, err := reg.Get(context.Background(), r.ID())
	if err != nil || revived == nil {
		t.Fatalf("revive after eviction: %v %v", revived, err)
	}
	if revived == r {
		t.Error("revival returned the stopped actor")
	}
}

func TestSweep_KeepsOccupiedRooms(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)
	defer reg.Close()

	r, err := reg.Create(context.Background(), testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.emptySince.Store(0) // a socket is attached

	reg.sweep(time.Now().Add(24 * time.Hour))

	reg.mu.Lock()
	_, live := reg.rooms[r.ID()]
	reg.mu.Unlock()
	if !live {
		t.Error("occupied room was evicted")
	}
}

func TestRegistryClose_StopsEverything(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)

	r, err := reg.Create(context.Background(), testConfig(2), []model.LobbyPlayer{{ID: "p1", DisplayName: "One"}}, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	reg.Close()

	if r.Attach("p1", "One", newStubSocket()) {
		t.Error("closed registry left the actor running")
	}
	// Close is idempotent.
	reg.Close()
}

package bot

import (
	"context"
	"reflect"
	"testing"
)

func TestRunArena_Completes(t *testing.T) {
	SeedBotRng(1)
	defer ResetBotRng()

	res, err := RunArena(context.Background(), ArenaConfig{
		Games:      20,
		Mode:       "podkidnoy",
		DeckSize:   36,
		Strategies: []string{"random", "greedy"},
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("RunArena: %v", err)
	}
	if res.Games != 20 {
		t.Errorf("expected 20 games, got %d", res.Games)
	}
	losses := 0
	for _, n := range res.Losses {
		losses += n
	}
	if losses+res.Draws != res.Games {
		t.Errorf("losses %d + draws %d != games %d", losses, res.Draws, res.Games)
	}
	if res.Moves == 0 {
		t.Error("expected some moves to be played")
	}
}

func TestRunArena_PerevodnoyFourSeats(t *testing.T) {
	SeedBotRng(2)
	defer ResetBotRng()

	res, err := RunArena(context.Background(), ArenaConfig{
		Games:      10,
		Mode:       "perevodnoy",
		DeckSize:   36,
		Strategies: []string{"greedy", "random", "greedy", "random"},
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("RunArena: %v", err)
	}
	if res.Games != 10 {
		t.Errorf("expected 10 games, got %d", res.Games)
	}
}

func TestRunArena_SmallDeck(t *testing.T) {
	SeedBotRng(3)
	defer ResetBotRng()

	if _, err := RunArena(context.Background(), ArenaConfig{
		Games:      10,
		Mode:       "podkidnoy",
		DeckSize:   24,
		Strategies: []string{"greedy", "greedy"},
		Seed:       11,
	}); err != nil {
		t.Fatalf("RunArena with 24-card deck: %v", err)
	}
}

func TestRunArena_RejectsBadSeatCounts(t *testing.T) {
	for _, seats := range [][]string{{"greedy"}, {"a", "b", "c", "d", "e"}} {
		if _, err := RunArena(context.Background(), ArenaConfig{
			Games:      1,
			Mode:       "podkidnoy",
			DeckSize:   36,
			Strategies: seats,
		}); err == nil {
			t.Errorf("expected error for %d seats", len(seats))
		}
	}
}

func TestRunArena_DeterministicWithSeed(t *testing.T) {
	cfg := ArenaConfig{
		Games:      5,
		Mode:       "podkidnoy",
		DeckSize:   36,
		Strategies: []string{"greedy", "greedy"},
		Seed:       99,
	}
	first, err := RunArena(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := RunArena(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different results: %+v vs %+v", first, second)
	}
}

func TestRunArena_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunArena(ctx, ArenaConfig{
		Games:      100,
		Mode:       "podkidnoy",
		DeckSize:   36,
		Strategies: []string{"greedy", "greedy"},
		Seed:       1,
	}); err == nil {
		t.Error("expected context error")
	}
}

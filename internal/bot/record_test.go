package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fooltable/durak-api/pkg/durak"
)

func TestMoveRecordTokens(t *testing.T) {
	tests := []struct {
		name string
		mv   durak.Move
		want MoveRecord
	}{
		{"attack", durak.Move{Kind: durak.MoveAttack, Card: durak.Card{Suit: durak.Spades, Rank: 7}}, MoveRecord{Seat: "p", Kind: "attack", Card: "S7"}},
		{"defend", durak.Move{Kind: durak.MoveDefend, Card: durak.Card{Suit: durak.Hearts, Rank: durak.Ace}, AttackIndex: 1}, MoveRecord{Seat: "p", Kind: "defend", Card: "HA", AttackIndex: 1}},
		{"transfer", durak.Move{Kind: durak.MoveTransfer, Card: durak.Card{Suit: durak.Clubs, Rank: 9}}, MoveRecord{Seat: "p", Kind: "transfer", Card: "C9"}},
		{"take", durak.Move{Kind: durak.MoveTake}, MoveRecord{Seat: "p", Kind: "take"}},
		{"pass", durak.Move{Kind: durak.MovePass}, MoveRecord{Seat: "p", Kind: "pass"}},
		{"beat", durak.Move{Kind: durak.MoveBeat}, MoveRecord{Seat: "p", Kind: "beat"}},
	}
	for _, tt := range tests {
		if got := moveRecord("p", tt.mv); got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestArenaRecordsReplayClean(t *testing.T) {
	SeedBotRng(4)
	defer ResetBotRng()

	var buf bytes.Buffer
	res, err := RunArena(context.Background(), ArenaConfig{
		Games:      5,
		Mode:       "podkidnoy",
		DeckSize:   36,
		Strategies: []string{"greedy", "random"},
		Seed:       42,
		Record:     &buf,
	})
	if err != nil {
		t.Fatalf("RunArena: %v", err)
	}

	dec := json.NewDecoder(&buf)
	records, totalMoves, draws := 0, 0, 0
	for dec.More() {
		var rec GameRecord
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode record %d: %v", records, err)
		}
		records++
		if rec.GameID != records {
			t.Errorf("expected game id %d, got %d", records, rec.GameID)
		}
		if len(rec.Seats) != 2 || rec.Seats[0].Label != "greedy-1" || rec.Seats[1].Label != "random-2" {
			t.Errorf("unexpected seats: %+v", rec.Seats)
		}
		if rec.Loser == nil {
			draws++
		}
		totalMoves += len(rec.Moves)
		if err := rec.Replay(); err != nil {
			t.Errorf("game %d does not replay: %v", rec.GameID, err)
		}
	}
	if records != 5 {
		t.Fatalf("expected 5 records, got %d", records)
	}
	if totalMoves != res.Moves {
		t.Errorf("records carry %d moves, result says %d", totalMoves, res.Moves)
	}
	if draws != res.Draws {
		t.Errorf("records show %d draws, result says %d", draws, res.Draws)
	}
}

func TestReplayRejectsTamperedRecords(t *testing.T) {
	var buf bytes.Buffer
	if _, err := RunArena(context.Background(), ArenaConfig{
		Games:      1,
		Mode:       "podkidnoy",
		DeckSize:   36,
		Strategies: []string{"greedy", "greedy"},
		Seed:       21,
		Record:     &buf,
	}); err != nil {
		t.Fatalf("RunArena: %v", err)
	}
	line := bytes.TrimSpace(buf.Bytes())

	fresh := func(t *testing.T) GameRecord {
		t.Helper()
		var rec GameRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		return rec
	}

	t.Run("clean record replays", func(t *testing.T) {
		if err := fresh(t).Replay(); err != nil {
			t.Fatalf("unexpected replay error: %v", err)
		}
	})

	t.Run("truncated moves", func(t *testing.T) {
		rec := fresh(t)
		rec.Moves = rec.Moves[:len(rec.Moves)-1]
		if err := rec.Replay(); err == nil {
			t.Error("expected error for truncated record")
		}
	})

	t.Run("wrong loser", func(t *testing.T) {
		rec := fresh(t)
		if rec.Loser == nil {
			l := rec.Seats[0].Label
			rec.Loser = &l
		} else {
			rec.Loser = nil
		}
		if err := rec.Replay(); err == nil {
			t.Error("expected error for wrong loser")
		}
	})

	t.Run("bad card token", func(t *testing.T) {
		rec := fresh(t)
		rec.Moves[0].Card = "X9"
		if err := rec.Replay(); err == nil {
			t.Error("expected error for bad card token")
		}
	})

	t.Run("unknown seat", func(t *testing.T) {
		rec := fresh(t)
		rec.Moves[0].Seat = "impostor"
		if err := rec.Replay(); err == nil {
			t.Error("expected error for unknown seat")
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		rec := fresh(t)
		rec.Moves[0].Kind = "beat"
		if err := rec.Replay(); err == nil {
			t.Error("expected error for beat before any attack")
		}
	})

	t.Run("bad mode", func(t *testing.T) {
		rec := fresh(t)
		rec.Mode = "poker"
		if err := rec.Replay(); err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}

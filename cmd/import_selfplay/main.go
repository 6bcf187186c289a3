// Command import_selfplay reads self-play JSONL game records produced by
// botmatch -record and imports them into the Postgres archive so finished
// games are queryable for review and training.
//
// Every record is replayed through the rules engine before import; records
// the engine rejects are skipped with a warning.
//
// Usage:
//
//	go run ./cmd/import_selfplay/ --input games.jsonl --db postgres://...
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository/postgres"
)

func main() {
	inputFile := flag.String("input", "", "Path to JSONL file")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	namePrefix := flag.String("name-prefix", "selfplay", "Game name prefix")
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("--input is required")
	}
	if *dbURL == "" {
		log.Fatal("--db or DATABASE_URL is required")
	}

	db, err := postgres.Connect(*dbURL)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer db.Close()

	gameRepo := postgres.NewGameRepo(db)

	f, err := os.Open(*inputFile)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(f)
	// Allow large lines (long four-seat games).
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	imported := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var rec bot.GameRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Printf("WARN: skip line (bad JSON): %v", err)
			continue
		}
		if err := rec.Replay(); err != nil {
			log.Printf("WARN: skip game %d (replay failed): %v", rec.GameID, err)
			continue
		}

		gameName := fmt.Sprintf("%s-%03d", *namePrefix, rec.GameID)
		gameID, err := importGame(ctx, gameRepo, rec, gameName)
		if err != nil {
			log.Printf("ERROR: import game %d: %v", rec.GameID, err)
			continue
		}

		imported++
		log.Printf("imported game %d -> %s (id=%s, %d moves)", rec.GameID, gameName, gameID, len(rec.Moves))
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}

	log.Printf("done: imported %d games", imported)
}

// importGame creates the game row, its seats and its moves in the database.
func importGame(ctx context.Context, repo *postgres.GameRepo, rec bot.GameRecord, name string) (string, error) {
	game, err := repo.Create(ctx, name, rec.Mode, rec.DeckSize, rec.Seed, seatRows(rec))
	if err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}

	if err := repo.SaveMoves(ctx, game.ID, moveRows(game.ID, rec)); err != nil {
		return "", fmt.Errorf("save moves: %w", err)
	}

	loser := ""
	if rec.Loser != nil {
		loser = *rec.Loser
	}
	if err := repo.SetFinished(ctx, game.ID, loser, len(rec.Moves)); err != nil {
		return "", fmt.Errorf("set finished: %w", err)
	}

	return game.ID, nil
}

// seatRows converts record seats to archive rows, in seating order.
func seatRows(rec bot.GameRecord) []model.GameSeat {
	seats := make([]model.GameSeat, len(rec.Seats))
	for i, s := range rec.Seats {
		seats[i] = model.GameSeat{Label: s.Label, Strategy: s.Strategy}
	}
	return seats
}

// moveRows converts record moves to archive rows for the given game id.
func moveRows(gameID string, rec bot.GameRecord) []model.GameMove {
	moves := make([]model.GameMove, len(rec.Moves))
	for i, m := range rec.Moves {
		moves[i] = model.GameMove{
			GameID:      gameID,
			Idx:         i,
			Seat:        m.Seat,
			Kind:        m.Kind,
			Card:        m.Card,
			AttackIndex: m.AttackIndex,
		}
	}
	return moves
}

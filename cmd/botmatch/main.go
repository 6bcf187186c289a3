package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/bot"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		numGames   int
		mode       string
		deckSize   int
		strategies string
		seed       int64
		moveLimit  int
		jsonOut    bool
		recordPath string
	)

	flag.IntVar(&numGames, "n", 100, "Number of games to run")
	flag.StringVar(&mode, "mode", "podkidnoy", "Game mode (podkidnoy, perevodnoy)")
	flag.IntVar(&deckSize, "deck", 36, "Deck size (24 or 36)")
	flag.StringVar(&strategies, "s", "greedy,random", "Comma-separated strategy per seat (2 to 4)")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random)")
	flag.IntVar(&moveLimit, "move-limit", 0, "Per-game move cap (0 = default)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.StringVar(&recordPath, "record", "", "Write finished games as JSONL to this file (for import_selfplay)")
	flag.Parse()

	seats := strings.Split(strategies, ",")
	for i := range seats {
		seats[i] = strings.TrimSpace(seats[i])
	}

	if seed != 0 {
		bot.SeedBotRng(seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	cfg := bot.ArenaConfig{
		Games:      numGames,
		Mode:       mode,
		DeckSize:   deckSize,
		Strategies: seats,
		Seed:       seed,
		MoveLimit:  moveLimit,
	}
	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Create record file")
		}
		defer f.Close()
		cfg.Record = f
	}

	result, err := bot.RunArena(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Arena failed")
	}
	if recordPath != "" {
		log.Info().Str("path", recordPath).Int("games", result.Games).Msg("Wrote game records")
	}

	if jsonOut {
		printJSON(cfg, result)
	} else {
		printSummary(cfg, result)
	}
}

func printSummary(cfg bot.ArenaConfig, r *bot.ArenaResult) {
	fmt.Printf("\nResults (%d games, %s, %d cards):\n", r.Games, cfg.Mode, cfg.DeckSize)

	seats := make([]string, 0, len(r.Losses))
	for seat := range r.Losses {
		seats = append(seats, seat)
	}
	sort.Strings(seats)
	for _, seat := range seats {
		losses := r.Losses[seat]
		fmt.Printf("  %-12s %4d losses (%.1f%%)\n", seat, losses, pct(losses, r.Games))
	}
	fmt.Printf("  %-12s %4d (%.1f%%)\n", "draws", r.Draws, pct(r.Draws, r.Games))
	if r.Games > 0 {
		fmt.Printf("  avg moves/game: %.1f\n", float64(r.Moves)/float64(r.Games))
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func printJSON(cfg bot.ArenaConfig, r *bot.ArenaResult) {
	out := struct {
		Mode       string         `json:"mode"`
		DeckSize   int            `json:"deckSize"`
		Strategies []string       `json:"strategies"`
		Seed       int64          `json:"seed"`
		Games      int            `json:"games"`
		Draws      int            `json:"draws"`
		Losses     map[string]int `json:"losses"`
		AvgMoves   float64        `json:"avgMoves"`
	}{
		Mode:       cfg.Mode,
		DeckSize:   cfg.DeckSize,
		Strategies: cfg.Strategies,
		Seed:       cfg.Seed,
		Games:      r.Games,
		Draws:      r.Draws,
		Losses:     r.Losses,
	}
	if r.Games > 0 {
		out.AvgMoves = float64(r.Moves) / float64(r.Games)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/pkg/durak"
)

// ArenaConfig configures a batch of offline bot-vs-bot games.
type ArenaConfig struct {
	Games      int
	Mode       string
	DeckSize   int
	Strategies []string  // difficulty per seat, 2 to 4 entries
	Seed       int64     // 0 = time-based
	MoveLimit  int       // per-game safety cap, 0 = default
	Record     io.Writer // optional, receives one GameRecord JSON line per game
}

// ArenaResult aggregates outcomes across a batch.
type ArenaResult struct {
	Games  int
	Draws  int
	Losses map[string]int // seat label -> games lost as the durak
	Moves  int
}

// RunArena plays cfg.Games full games between the configured strategies,
// checking engine invariants after every move. Each game is dealt from its
// own seed derived from cfg.Seed, so recorded games replay independently.
// It is the workhorse behind the botmatch command and doubles as a rules
// fuzzer.
func RunArena(ctx context.Context, cfg ArenaConfig) (*ArenaResult, error) {
	if len(cfg.Strategies) < 2 || len(cfg.Strategies) > 4 {
		return nil, fmt.Errorf("need 2 to 4 strategies, got %d", len(cfg.Strategies))
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	if cfg.MoveLimit <= 0 {
		cfg.MoveLimit = 2000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	gameCfg := durak.Config{Mode: durak.Mode(cfg.Mode), DeckSize: cfg.DeckSize}

	// Seat labels carry the difficulty so repeated strategies stay apart
	// in the loss table.
	seats := make([]string, len(cfg.Strategies))
	seatRecs := make([]SeatRecord, len(cfg.Strategies))
	strategies := make(map[string]Strategy, len(cfg.Strategies))
	for i, name := range cfg.Strategies {
		label := fmt.Sprintf("%s-%d", name, i+1)
		seats[i] = label
		seatRecs[i] = SeatRecord{Label: label, Strategy: name}
		strategies[label] = StrategyForDifficulty(name)
	}

	var enc *json.Encoder
	if cfg.Record != nil {
		enc = json.NewEncoder(cfg.Record)
	}

	result := &ArenaResult{Losses: make(map[string]int)}
	for n := 0; n < cfg.Games; n++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		gameSeed := rng.Int63()
		loser, moves, err := playOneGame(gameCfg, seats, strategies, gameSeed, cfg.MoveLimit)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", n+1, err)
		}
		result.Games++
		result.Moves += len(moves)
		var loserRec *string
		if loser == "" {
			result.Draws++
		} else {
			result.Losses[loser]++
			loserRec = &loser
		}
		if enc != nil {
			rec := GameRecord{
				GameID:   n + 1,
				Mode:     cfg.Mode,
				DeckSize: cfg.DeckSize,
				Seed:     gameSeed,
				Seats:    seatRecs,
				Loser:    loserRec,
				Moves:    moves,
			}
			if err := enc.Encode(rec); err != nil {
				return nil, fmt.Errorf("record game %d: %w", n+1, err)
			}
		}
	}

	log.Info().Int("games", result.Games).Int("draws", result.Draws).Int("moves", result.Moves).Int64("seed", seed).Msg("arena finished")
	return result, nil
}

// playOneGame deals from the given seed and runs a single game to
// completion, letting the first seat with a legal action move each turn.
// Every move is invariant-checked.
func playOneGame(cfg durak.Config, seats []string, strategies map[string]Strategy, seed int64, moveLimit int) (loser string, moves []MoveRecord, err error) {
	g, err := durak.NewGame(cfg, seats, rand.New(rand.NewSource(seed)))
	if err != nil {
		return "", nil, err
	}
	for g.Phase == durak.PhasePlaying {
		if len(moves) >= moveLimit {
			return "", nil, fmt.Errorf("no result after %d moves", len(moves))
		}
		moved := false
		for _, seat := range seats {
			if !durak.AllowedActions(g, seat).Any() {
				continue
			}
			mv, ok := strategies[seat].ChooseMove(g.Clone(), seat)
			if !ok {
				continue
			}
			if err := g.Apply(seat, mv); err != nil {
				return "", nil, fmt.Errorf("%s played illegal %s: %w", seat, mv.Kind, err)
			}
			if err := durak.CheckInvariants(g); err != nil {
				return "", nil, fmt.Errorf("after %s by %s: %w", mv.Kind, seat, err)
			}
			moves = append(moves, moveRecord(seat, mv))
			moved = true
			break
		}
		if !moved {
			return "", nil, fmt.Errorf("no player can act")
		}
	}
	return g.Loser, moves, nil
}

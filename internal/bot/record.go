package bot

import (
	"fmt"
	"math/rand"

	"github.com/fooltable/durak-api/pkg/durak"
)

// GameRecord is one finished arena game in the JSONL interchange written by
// botmatch -record and read by import_selfplay. The record carries no hands;
// Seed re-deals the game, so Replay can reconstruct and verify all of it.
type GameRecord struct {
	GameID   int          `json:"gameId"`
	Mode     string       `json:"mode"`
	DeckSize int          `json:"deckSize"`
	Seed     int64        `json:"seed"`
	Seats    []SeatRecord `json:"seats"`
	Loser    *string      `json:"loser"` // nil for a draw
	Moves    []MoveRecord `json:"moves"`
}

// SeatRecord names one seat and the strategy that played it.
type SeatRecord struct {
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
}

// MoveRecord is a single applied move. Card is the wire token ("S6", "H10");
// it is empty for take, pass and beat.
type MoveRecord struct {
	Seat        string `json:"seat"`
	Kind        string `json:"kind"`
	Card        string `json:"card,omitempty"`
	AttackIndex int    `json:"attackIndex,omitempty"`
}

func moveRecord(seat string, mv durak.Move) MoveRecord {
	rec := MoveRecord{Seat: seat, Kind: string(mv.Kind)}
	switch mv.Kind {
	case durak.MoveAttack, durak.MoveDefend, durak.MoveTransfer:
		rec.Card = mv.Card.String()
	}
	if mv.Kind == durak.MoveDefend {
		rec.AttackIndex = mv.AttackIndex
	}
	return rec
}

// Replay re-deals the recorded game from its seed and applies every recorded
// move through the rules engine. It returns an error for the first move the
// engine rejects, and when the replayed outcome disagrees with the record.
func (rec GameRecord) Replay() error {
	cfg := durak.Config{Mode: durak.Mode(rec.Mode), DeckSize: rec.DeckSize}
	seats := make([]string, len(rec.Seats))
	for i, s := range rec.Seats {
		seats[i] = s.Label
	}
	g, err := durak.NewGame(cfg, seats, rand.New(rand.NewSource(rec.Seed)))
	if err != nil {
		return err
	}
	for i, mv := range rec.Moves {
		m := durak.Move{Kind: durak.MoveKind(mv.Kind), AttackIndex: mv.AttackIndex}
		if mv.Card != "" {
			card, err := durak.ParseCard(mv.Card)
			if err != nil {
				return fmt.Errorf("move %d: %w", i, err)
			}
			m.Card = card
		}
		if err := g.Apply(mv.Seat, m); err != nil {
			return fmt.Errorf("move %d (%s by %s): %w", i, mv.Kind, mv.Seat, err)
		}
	}
	if g.Phase != durak.PhaseFinished {
		return fmt.Errorf("game not finished after %d moves", len(rec.Moves))
	}
	loser := ""
	if rec.Loser != nil {
		loser = *rec.Loser
	}
	if g.Loser != loser {
		return fmt.Errorf("replayed loser %q, record says %q", g.Loser, loser)
	}
	return nil
}

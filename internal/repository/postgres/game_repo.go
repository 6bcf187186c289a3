package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fooltable/durak-api/internal/model"
)

// GameRepo handles the archive of finished games.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a game and its seats in one transaction. Seat positions are
// assigned from slice order; the GameID and Seat fields of the given seats
// are filled in.
func (r *GameRepo) Create(ctx context.Context, name, mode string, deckSize int, seed int64, seats []model.GameSeat) (*model.Game, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var g model.Game
	err = tx.QueryRowContext(ctx,
		`INSERT INTO games (id, name, mode, deck_size, seed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, mode, deck_size, seed, move_count, created_at`,
		uuid.NewString(), name, mode, deckSize, seed,
	).Scan(&g.ID, &g.Name, &g.Mode, &g.DeckSize, &g.Seed, &g.MoveCount, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	for i := range seats {
		seats[i].GameID = g.ID
		seats[i].Seat = i
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_seats (game_id, seat, label, strategy) VALUES ($1, $2, $3, $4)`,
			g.ID, i, seats[i].Label, nullStr(seats[i].Strategy),
		)
		if err != nil {
			return nil, fmt.Errorf("insert seat %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create game: %w", err)
	}
	g.Seats = seats
	return &g, nil
}

// SaveMoves bulk-inserts the move list of a game in play order.
func (r *GameRepo) SaveMoves(ctx context.Context, gameID string, moves []model.GameMove) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO game_moves (game_id, idx, seat, kind, card, attack_index)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("prepare insert move: %w", err)
	}
	defer stmt.Close()

	for i, m := range moves {
		if _, err := stmt.ExecContext(ctx, gameID, i, m.Seat, m.Kind, nullStr(m.Card), m.AttackIndex); err != nil {
			return fmt.Errorf("insert move %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// SetFinished records the outcome. An empty loserSeat marks a draw.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, loserSeat string, moveCount int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET loser_seat = $1, move_count = $2, finished_at = now() WHERE id = $3`,
		nullStr(loserSeat), moveCount, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// FindByID returns a game with its seats, or nil when absent.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var loser sql.NullString
	var finished sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, mode, deck_size, seed, loser_seat, move_count, created_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Mode, &g.DeckSize, &g.Seed, &loser, &g.MoveCount, &g.CreatedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.LoserSeat = loser.String
	if finished.Valid {
		g.FinishedAt = &finished.Time
	}

	seats, err := r.ListSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Seats = seats
	return &g, nil
}

// ListSeats returns the seats of a game in seating order.
func (r *GameRepo) ListSeats(ctx context.Context, gameID string) ([]model.GameSeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, seat, label, strategy FROM game_seats WHERE game_id = $1 ORDER BY seat`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.GameSeat
	for rows.Next() {
		var s model.GameSeat
		var strategy sql.NullString
		if err := rows.Scan(&s.GameID, &s.Seat, &s.Label, &strategy); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		s.Strategy = strategy.String
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListMoves returns the moves of a game in play order.
func (r *GameRepo) ListMoves(ctx context.Context, gameID string) ([]model.GameMove, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, idx, seat, kind, card, attack_index
		 FROM game_moves WHERE game_id = $1 ORDER BY idx`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var moves []model.GameMove
	for rows.Next() {
		var m model.GameMove
		var card sql.NullString
		if err := rows.Scan(&m.GameID, &m.Idx, &m.Seat, &m.Kind, &card, &m.AttackIndex); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		m.Card = card.String
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fooltable/durak-api/internal/model"
)

// UserRepo handles user database operations.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByID looks up a user by their internal UUID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var username, lang sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, first_name, username, language_code, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.ExternalID, &u.FirstName, &username, &lang, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	u.Username = username.String
	u.LanguageCode = lang.String
	return &u, nil
}

// FindByExternalID looks up a user by their Telegram user id.
func (r *UserRepo) FindByExternalID(ctx context.Context, externalID int64) (*model.User, error) {
	var u model.User
	var username, lang sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, first_name, username, language_code, created_at, updated_at
		 FROM users WHERE external_id = $1`,
		externalID,
	).Scan(&u.ID, &u.ExternalID, &u.FirstName, &username, &lang, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by external id: %w", err)
	}
	u.Username = username.String
	u.LanguageCode = lang.String
	return &u, nil
}

// Upsert creates a user on first sight of a Telegram id, minting an internal
// UUID, or refreshes the profile fields on later logins. The internal id is
// stable across upserts.
func (r *UserRepo) Upsert(ctx context.Context, externalID int64, firstName, username, languageCode string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, external_id, first_name, username, language_code)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (external_id)
		 DO UPDATE SET first_name = EXCLUDED.first_name, username = EXCLUDED.username,
		               language_code = EXCLUDED.language_code, updated_at = now()
		 RETURNING id, external_id, first_name, username, language_code, created_at, updated_at`,
		uuid.NewString(), externalID, firstName, username, languageCode,
	).Scan(&u.ID, &u.ExternalID, &u.FirstName, &u.Username, &u.LanguageCode, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fooltable/durak-api/internal/model"
)

// UserRepository defines user directory operations. Find methods return
// (nil, nil) when no row matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByExternalID(ctx context.Context, externalID int64) (*model.User, error)
	Upsert(ctx context.Context, externalID int64, firstName, username, languageCode string) (*model.User, error)
}

// RoomStore defines room snapshot persistence (Redis). Snapshots are opaque
// JSON: the room actor owns the layout and writes the whole document in a
// single SET.
type RoomStore interface {
	SaveRoom(ctx context.Context, roomID string, snapshot json.RawMessage) error
	LoadRoom(ctx context.Context, roomID string) (json.RawMessage, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

// MatchStore defines matchmaker player→room bindings (Redis, TTL-bound).
// GetBinding returns "" when the player has no live binding.
type MatchStore interface {
	SetBinding(ctx context.Context, playerID, roomID string, ttl time.Duration) error
	GetBinding(ctx context.Context, playerID string) (string, error)
	ClearBinding(ctx context.Context, playerID string) error
}

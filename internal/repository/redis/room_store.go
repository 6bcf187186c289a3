package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for persisted room data.
func roomKey(roomID string) string      { return "room/" + roomID }
func bindingKey(playerID string) string { return "match/" + playerID }

// SaveRoom stores the full room snapshot in a single write.
func (c *Client) SaveRoom(ctx context.Context, roomID string, snapshot json.RawMessage) error {
	return c.rdb.Set(ctx, roomKey(roomID), []byte(snapshot), 0).Err()
}

// LoadRoom retrieves a room snapshot, nil when the room does not exist.
func (c *Client) LoadRoom(ctx context.Context, roomID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteRoom removes a persisted room.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.rdb.Del(ctx, roomKey(roomID)).Err()
}

// SetBinding points a matched player at their room for the given TTL, so a
// client that polls the matchmaker again (or restarts) finds its room.
func (c *Client) SetBinding(ctx context.Context, playerID, roomID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, bindingKey(playerID), roomID, ttl).Err()
}

// GetBinding returns the room a player was matched into, "" when none.
func (c *Client) GetBinding(ctx context.Context, playerID string) (string, error) {
	roomID, err := c.rdb.Get(ctx, bindingKey(playerID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get binding: %w", err)
	}
	return roomID, nil
}

// ClearBinding drops a player's room binding.
func (c *Client) ClearBinding(ctx context.Context, playerID string) error {
	return c.rdb.Del(ctx, bindingKey(playerID)).Err()
}

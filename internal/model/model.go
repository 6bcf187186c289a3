package model

import (
	"fmt"
	"time"
)

// User is a row in the user directory. ID is minted on first sight of a
// Telegram account; ExternalID is the Telegram user id it maps to.
type User struct {
	ID           string    `json:"id"`
	ExternalID   int64     `json:"externalId"`
	FirstName    string    `json:"firstName"`
	Username     string    `json:"username,omitempty"`
	LanguageCode string    `json:"languageCode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Game modes. Kept as plain strings at the API boundary; the rules engine
// has its own typed copy.
const (
	ModePodkidnoy  = "podkidnoy"
	ModePerevodnoy = "perevodnoy"
)

// RoomConfig is the client-facing game configuration. The zero value is not
// valid; call Normalize to fill defaults before Validate.
type RoomConfig struct {
	Mode       string `json:"mode"`
	DeckSize   int    `json:"deckSize"`
	MaxPlayers int    `json:"maxPlayers"`
}

// Normalize fills unset fields with the defaults: podkidnoy, 36 cards,
// 2 players.
func (c *RoomConfig) Normalize() {
	if c.Mode == "" {
		c.Mode = ModePodkidnoy
	}
	if c.DeckSize == 0 {
		c.DeckSize = 36
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 2
	}
}

// Validate rejects configurations the rules engine cannot deal.
func (c RoomConfig) Validate() error {
	switch c.Mode {
	case ModePodkidnoy, ModePerevodnoy:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.DeckSize {
	case 24, 36:
	default:
		return fmt.Errorf("deck size must be 24 or 36, got %d", c.DeckSize)
	}
	if c.MaxPlayers < 2 || c.MaxPlayers > 4 {
		return fmt.Errorf("max players must be 2 to 4, got %d", c.MaxPlayers)
	}
	if c.MaxPlayers*6 > c.DeckSize {
		return fmt.Errorf("a %d card deck cannot deal %d players", c.DeckSize, c.MaxPlayers)
	}
	return nil
}

// RoomPhase is the lifecycle stage of a room.
type RoomPhase string

const (
	RoomLobby    RoomPhase = "lobby"
	RoomPlaying  RoomPhase = "playing"
	RoomFinished RoomPhase = "finished"
)

// RoomMeta is the immutable identity of a room, fixed at creation.
type RoomMeta struct {
	RoomID    string     `json:"roomId"`
	HostID    string     `json:"hostId"`
	Config    RoomConfig `json:"config"`
	CreatedAt time.Time  `json:"createdAt"`
}

// LobbyPlayer is one seat in a room. Connection status is runtime state and
// lives with the room actor, not here.
type LobbyPlayer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Ready       bool   `json:"ready"`
	IsBot       bool   `json:"isBot"`
}

// Game is one finished game in the archive. Seed re-deals the game, so a row
// plus its moves reproduces the whole playout. An empty LoserSeat on a
// finished game means a draw.
type Game struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Mode       string     `json:"mode"`
	DeckSize   int        `json:"deckSize"`
	Seed       int64      `json:"seed"`
	LoserSeat  string     `json:"loserSeat,omitempty"`
	MoveCount  int        `json:"moveCount"`
	Seats      []GameSeat `json:"seats,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// GameSeat is one seat of an archived game.
type GameSeat struct {
	GameID   string `json:"gameId"`
	Seat     int    `json:"seat"`
	Label    string `json:"label"`
	Strategy string `json:"strategy,omitempty"`
}

// GameMove is one applied move of an archived game. Card is the wire token;
// it is empty for take, pass and beat.
type GameMove struct {
	GameID      string `json:"gameId"`
	Idx         int    `json:"idx"`
	Seat        string `json:"seat"`
	Kind        string `json:"kind"`
	Card        string `json:"card,omitempty"`
	AttackIndex int    `json:"attackIndex,omitempty"`
}

package room

import (
	"maps"

	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/pkg/durak"
)

// RoomView is the per-player STATE payload. Everything in it is either
// public or belongs to the recipient: no other player's hand contents ever
// appear.
type RoomView struct {
	RoomID  string           `json:"roomId"`
	Phase   model.RoomPhase  `json:"phase"`
	Config  model.RoomConfig `json:"config"`
	HostID  string           `json:"hostId"`
	Players []PlayerView     `json:"players"`
	Game    *GameView        `json:"game,omitempty"`
}

// PlayerView is one seat as shown to every player.
type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Connected   bool   `json:"connected"`
	Ready       bool   `json:"ready"`
	IsBot       bool   `json:"isBot"`
}

// GameView is the game as one player sees it: public counters plus the
// recipient's own hand and allowed actions.
type GameView struct {
	Order        []string          `json:"order"`
	Active       map[string]bool   `json:"active"`
	HandCounts   map[string]int    `json:"handCounts"`
	Table        []durak.TablePair `json:"table"`
	DeckSize     int               `json:"deckSize"`
	DiscardSize  int               `json:"discardSize"`
	TrumpSuit    durak.Suit        `json:"trumpSuit"`
	TrumpCard    durak.Card        `json:"trumpCard"`
	AttackerID   string            `json:"attackerId"`
	DefenderID   string            `json:"defenderId"`
	RoundLimit   int               `json:"roundLimit"`
	Passed       []string          `json:"passed"`
	TakeDeclared bool              `json:"takeDeclared"`
	Loser        *string           `json:"loser"`
	YourHand     []durak.Card      `json:"yourHand"`
	Allowed      durak.Allowed     `json:"allowed"`
}

// buildView renders the room for one recipient. connected reports live
// socket presence; bots always show as connected.
func buildView(s *RoomState, playerID string, connected func(string) bool) *RoomView {
	players := make([]PlayerView, 0, len(s.LobbyPlayers))
	for _, p := range s.LobbyPlayers {
		players = append(players, PlayerView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Connected:   p.IsBot || connected(p.ID),
			Ready:       p.Ready,
			IsBot:       p.IsBot,
		})
	}
	v := &RoomView{
		RoomID:  s.Meta.RoomID,
		Phase:   s.Phase,
		Config:  s.Meta.Config,
		HostID:  s.Meta.HostID,
		Players: players,
	}
	if s.Game == nil {
		return v
	}

	g := s.Game
	handCounts := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		handCounts[id] = len(g.Hands[id])
	}
	gv := &GameView{
		Order:        append([]string(nil), g.Order...),
		Active:       maps.Clone(g.Active),
		HandCounts:   handCounts,
		Table:        append([]durak.TablePair{}, g.Table...),
		DeckSize:     len(g.Deck),
		DiscardSize:  len(g.Discard),
		TrumpSuit:    g.TrumpSuit,
		TrumpCard:    g.TrumpCard,
		AttackerID:   g.AttackerID,
		DefenderID:   g.DefenderID,
		RoundLimit:   g.RoundLimit,
		Passed:       append([]string{}, g.Passed...),
		TakeDeclared: g.TakeDeclared,
		YourHand:     g.HandOf(playerID),
		Allowed:      durak.AllowedActions(g, playerID),
	}
	if g.Loser != "" {
		loser := g.Loser
		gv.Loser = &loser
	}
	v.Game = gv
	return v
}

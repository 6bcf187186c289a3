// Package durak implements the rules of Russian Durak for the podkidnoy
// and perevodnoy variants. The package is pure: no I/O, no clocks, no
// logging. Randomness enters only through the PRNG handed to NewGame, so a
// fixed seed reproduces a deal exactly.
package durak

import (
	"fmt"
	"maps"
	"math/rand"
)

// Mode selects the rule variant.
type Mode string

const (
	// Podkidnoy: attackers throw in matching ranks, the defender beats or takes.
	Podkidnoy Mode = "podkidnoy"
	// Perevodnoy: additionally, an untouched attack can be passed to the next player.
	Perevodnoy Mode = "perevodnoy"
)

// Phase of a single game.
type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Config holds the rule parameters fixed at deal time.
type Config struct {
	Mode     Mode `json:"mode"`
	DeckSize int  `json:"deckSize"`
}

// Validate checks the rule parameters.
func (c Config) Validate() error {
	switch c.Mode {
	case Podkidnoy, Perevodnoy:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.DeckSize {
	case 24, 36:
	default:
		return fmt.Errorf("deck size must be 24 or 36, got %d", c.DeckSize)
	}
	return nil
}

// handSize is the refill target after every round.
const handSize = 6

// TablePair is one attack on the table together with its covering card.
// Defend stays null until the attack is beaten.
type TablePair struct {
	Attack Card  `json:"attack"`
	Defend *Card `json:"defend"`
}

// Defended reports whether the attack has been covered.
func (p TablePair) Defended() bool { return p.Defend != nil }

// GameState is a complete snapshot of one game. It serialises to JSON with
// stable bytes: hands, discard and passed are kept sorted, and slices are
// never nil so that empty collections round-trip as [].
type GameState struct {
	Config       Config            `json:"config"`
	Order        []string          `json:"order"`
	Active       map[string]bool   `json:"active"`
	Hands        map[string][]Card `json:"hands"`
	Deck         []Card            `json:"deck"`
	TrumpSuit    Suit              `json:"trumpSuit"`
	TrumpCard    Card              `json:"trumpCard"`
	Table        []TablePair       `json:"table"`
	Discard      []Card            `json:"discard"`
	AttackerID   string            `json:"attackerId"`
	DefenderID   string            `json:"defenderId"`
	RoundLimit   int               `json:"roundLimit"`
	Passed       []string          `json:"passed"`
	TakeDeclared bool              `json:"takeDeclared"`
	Phase        Phase             `json:"phase"`
	Loser        string            `json:"loser,omitempty"`
}

// NewGame shuffles, deals six cards to every player and seats the first
// round. The deck is ordered bottom-up: index 0 is the face-up trump card,
// draws pop from the other end, so the trump card is the last card dealt.
// The first attacker is the holder of the lowest trump; without any trumps
// in play it is the first seat. With a 24-card deck and four players the
// whole deck is dealt and the trump card ends up in a hand.
func NewGame(cfg Config, players []string, rng *rand.Rand) (*GameState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(players) < 2 || len(players) > 4 {
		return nil, fmt.Errorf("need 2 to 4 players, got %d", len(players))
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p == "" || seen[p] {
			return nil, fmt.Errorf("empty or duplicate player id %q", p)
		}
		seen[p] = true
	}
	if len(players)*handSize > cfg.DeckSize {
		return nil, fmt.Errorf("cannot deal %d players from a %d card deck", len(players), cfg.DeckSize)
	}

	deck := newDeck(cfg.DeckSize)
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	trump := deck[0]

	g := &GameState{
		Config:    cfg,
		Order:     make([]string, len(players)),
		Active:    make(map[string]bool, len(players)),
		Hands:     make(map[string][]Card, len(players)),
		Deck:      deck,
		TrumpSuit: trump.Suit,
		TrumpCard: trump,
		Table:     []TablePair{},
		Discard:   []Card{},
		Passed:    []string{},
		Phase:     PhasePlaying,
	}
	copy(g.Order, players)
	for _, p := range players {
		g.Active[p] = true
		g.Hands[p] = []Card{}
	}
	for i := 0; i < handSize; i++ {
		for _, p := range players {
			g.Hands[p] = append(g.Hands[p], g.draw())
		}
	}
	for _, p := range players {
		sortCards(g.Hands[p])
	}

	g.startRound(g.firstAttacker())
	return g, nil
}

// firstAttacker finds the holder of the lowest trump, falling back to the
// first seat when nobody was dealt a trump.
func (g *GameState) firstAttacker() string {
	best := ""
	bestRank := Rank(0)
	for _, p := range g.Order {
		for _, c := range g.Hands[p] {
			if c.Suit != g.TrumpSuit {
				continue
			}
			if best == "" || c.Rank < bestRank {
				best, bestRank = p, c.Rank
			}
		}
	}
	if best == "" {
		return g.Order[0]
	}
	return best
}

// draw pops one card from the stock end of the deck.
func (g *GameState) draw() Card {
	c := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return c
}

func (g *GameState) indexOf(playerID string) int {
	for i, p := range g.Order {
		if p == playerID {
			return i
		}
	}
	return -1
}

// NextActive returns the next active player clockwise after from, or ""
// if nobody else is active. from itself does not need to be active.
func (g *GameState) NextActive(from string) string {
	start := g.indexOf(from)
	if start < 0 {
		return ""
	}
	n := len(g.Order)
	for i := 1; i <= n; i++ {
		p := g.Order[(start+i)%n]
		if p != from && g.Active[p] {
			return p
		}
	}
	return ""
}

// ActivePlayers returns the active players in seating order.
func (g *GameState) ActivePlayers() []string {
	out := make([]string, 0, len(g.Order))
	for _, p := range g.Order {
		if g.Active[p] {
			out = append(out, p)
		}
	}
	return out
}

// HandOf returns a copy of the player's hand.
func (g *GameState) HandOf(playerID string) []Card {
	h := g.Hands[playerID]
	out := make([]Card, len(h))
	copy(out, h)
	return out
}

func (g *GameState) hasPassed(playerID string) bool {
	for _, p := range g.Passed {
		if p == playerID {
			return true
		}
	}
	return false
}

// allAttackersPassed reports whether every active non-defender has passed.
func (g *GameState) allAttackersPassed() bool {
	for _, p := range g.Order {
		if !g.Active[p] || p == g.DefenderID {
			continue
		}
		if !g.hasPassed(p) {
			return false
		}
	}
	return true
}

func (g *GameState) undefendedCount() int {
	n := 0
	for _, p := range g.Table {
		if !p.Defended() {
			n++
		}
	}
	return n
}

func (g *GameState) defendedCount() int {
	return len(g.Table) - g.undefendedCount()
}

// tableRanks collects the ranks of every card on the table, attacks and
// covers alike; throw-ins may match either.
func (g *GameState) tableRanks() map[Rank]bool {
	ranks := make(map[Rank]bool, len(g.Table)*2)
	for _, p := range g.Table {
		ranks[p.Attack.Rank] = true
		if p.Defend != nil {
			ranks[p.Defend.Rank] = true
		}
	}
	return ranks
}

// attackRanks collects the ranks of attack cards only; transfers must
// match one of these.
func (g *GameState) attackRanks() map[Rank]bool {
	ranks := make(map[Rank]bool, len(g.Table))
	for _, p := range g.Table {
		ranks[p.Attack.Rank] = true
	}
	return ranks
}

func handContains(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// removeFromHand deletes one copy of card, preserving sort order.
func (g *GameState) removeFromHand(playerID string, card Card) {
	hand := g.Hands[playerID]
	for i, c := range hand {
		if c == card {
			g.Hands[playerID] = append(hand[:i:i], hand[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy. Slice emptiness is preserved so a clone
// serialises to the same bytes as the original.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Order = make([]string, len(g.Order))
	copy(c.Order, g.Order)
	c.Active = maps.Clone(g.Active)
	c.Hands = make(map[string][]Card, len(g.Hands))
	for p, h := range g.Hands {
		hand := make([]Card, len(h))
		copy(hand, h)
		c.Hands[p] = hand
	}
	c.Deck = make([]Card, len(g.Deck))
	copy(c.Deck, g.Deck)
	c.Table = make([]TablePair, len(g.Table))
	for i, p := range g.Table {
		c.Table[i] = TablePair{Attack: p.Attack}
		if p.Defend != nil {
			d := *p.Defend
			c.Table[i].Defend = &d
		}
	}
	c.Discard = make([]Card, len(g.Discard))
	copy(c.Discard, g.Discard)
	c.Passed = make([]string, len(g.Passed))
	copy(c.Passed, g.Passed)
	return &c
}

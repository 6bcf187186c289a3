package durak

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Suit identifies one of the four French suits.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Suits lists all suits in display order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Rank is a card rank. Pip cards carry their face value; 11=J, 12=Q,
// 13=K, 14=A.
type Rank int

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return strconv.Itoa(int(r))
	}
}

// Card is a single playing card.
type Card struct {
	Suit Suit
	Rank Rank
}

// String returns the wire token: suit letter followed by the rank,
// e.g. "S6", "H10", "DK".
func (c Card) String() string {
	return string(c.Suit) + c.Rank.String()
}

// ParseCard parses a wire token such as "S6", "H10" or "DA".
func ParseCard(s string) (Card, error) {
	if len(s) < 2 || len(s) > 3 {
		return Card{}, fmt.Errorf("bad card token %q", s)
	}
	suit := Suit(s[:1])
	switch suit {
	case Spades, Hearts, Diamonds, Clubs:
	default:
		return Card{}, fmt.Errorf("bad suit in card token %q", s)
	}
	var rank Rank
	switch rest := s[1:]; rest {
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 6 || n > 10 {
			return Card{}, fmt.Errorf("bad rank in card token %q", s)
		}
		rank = Rank(n)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MarshalJSON encodes the card as its wire token.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a wire token.
func (c *Card) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCard(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var suitOrder = map[Suit]int{Spades: 0, Hearts: 1, Diamonds: 2, Clubs: 3}

// Less orders cards by suit then rank. Hands and the discard pile are kept
// in this order so that serialised snapshots are byte-stable.
func (c Card) Less(o Card) bool {
	if c.Suit != o.Suit {
		return suitOrder[c.Suit] < suitOrder[o.Suit]
	}
	return c.Rank < o.Rank
}

func sortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Less(cards[j]) })
}

// newDeck returns the ordered, unshuffled deck for the given size:
// ranks 6..A for 36 cards, 9..A for 24.
func newDeck(size int) []Card {
	lo := Rank(6)
	if size == 24 {
		lo = Rank(9)
	}
	cards := make([]Card, 0, size)
	for _, s := range Suits {
		for r := lo; r <= Ace; r++ {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return cards
}

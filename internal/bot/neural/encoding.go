// Package neural encodes game states into the flat feature vectors the
// ONNX value network was trained on.
package neural

import "github.com/fooltable/durak-api/pkg/durak"

// The card index space always spans the full 36-card deck; 24-card games
// simply never light up the 6..8 ranks.
const (
	NumCards = 36
	MaxSeats = 4

	FeatHand         = 0
	FeatTableAttack  = FeatHand + NumCards
	FeatTableDefense = FeatTableAttack + NumCards
	FeatTrumpCard    = FeatTableDefense + NumCards
	FeatTrumpSuit    = FeatTrumpCard + NumCards
	FeatHandCounts   = FeatTrumpSuit + 4
	FeatScalars      = FeatHandCounts + MaxSeats

	numScalars  = 8
	NumFeatures = FeatScalars + numScalars
)

// CardIndex maps a card to its slot in the 36-wide one-hot blocks,
// or -1 for a malformed card.
func CardIndex(c durak.Card) int {
	si := suitIndex(c.Suit)
	if si < 0 || c.Rank < 6 || c.Rank > durak.Ace {
		return -1
	}
	return si*9 + int(c.Rank) - 6
}

func suitIndex(s durak.Suit) int {
	for i, v := range durak.Suits {
		if v == s {
			return i
		}
	}
	return -1
}

// EncodeState flattens a game into the player's view: own hand, the table,
// the trump and public counters. Other hands contribute only their sizes,
// so the net never sees hidden cards.
func EncodeState(g *durak.GameState, playerID string) []float32 {
	features := make([]float32, NumFeatures)

	for _, c := range g.HandOf(playerID) {
		if idx := CardIndex(c); idx >= 0 {
			features[FeatHand+idx] = 1
		}
	}
	undefended := 0
	for _, p := range g.Table {
		if idx := CardIndex(p.Attack); idx >= 0 {
			features[FeatTableAttack+idx] = 1
		}
		if p.Defend != nil {
			if idx := CardIndex(*p.Defend); idx >= 0 {
				features[FeatTableDefense+idx] = 1
			}
		} else {
			undefended++
		}
	}
	if idx := CardIndex(g.TrumpCard); idx >= 0 {
		features[FeatTrumpCard+idx] = 1
	}
	if si := suitIndex(g.TrumpSuit); si >= 0 {
		features[FeatTrumpSuit+si] = 1
	}

	// Hand counts start at the player's own seat and walk clockwise, so the
	// same net serves any seat at any table size.
	order := seatOrderFrom(g, playerID)
	for i, id := range order {
		if i >= MaxSeats {
			break
		}
		features[FeatHandCounts+i] = float32(len(g.Hands[id])) / float32(NumCards)
	}

	deckSize := float32(g.Config.DeckSize)
	features[FeatScalars+0] = float32(len(g.Deck)) / deckSize
	features[FeatScalars+1] = float32(len(g.Discard)) / deckSize
	features[FeatScalars+2] = float32(len(g.Table)) / 6
	features[FeatScalars+3] = float32(undefended) / 6
	if g.TakeDeclared {
		features[FeatScalars+4] = 1
	}
	if g.DefenderID == playerID {
		features[FeatScalars+5] = 1
	}
	if g.AttackerID == playerID {
		features[FeatScalars+6] = 1
	}
	features[FeatScalars+7] = float32(len(g.Passed)) / MaxSeats

	return features
}

// seatOrderFrom rotates the seat order so playerID comes first.
func seatOrderFrom(g *durak.GameState, playerID string) []string {
	start := 0
	for i, id := range g.Order {
		if id == playerID {
			start = i
			break
		}
	}
	order := make([]string, 0, len(g.Order))
	for i := 0; i < len(g.Order); i++ {
		order = append(order, g.Order[(start+i)%len(g.Order)])
	}
	return order
}

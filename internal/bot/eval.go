package bot

import (
	"github.com/fooltable/durak-api/pkg/durak"
)

// evaluatePosition scores a state for one player on [0,1]: the estimated
// chance of not ending the game as the durak. Terminal states score exactly
// (0 lost, 0.5 draw, 1 survived); everything else is a heuristic blend of
// hand quality and hand burden that sharpens as the stock drains.
func evaluatePosition(g *durak.GameState, playerID string) float64 {
	if g.Phase == durak.PhaseFinished {
		switch g.Loser {
		case playerID:
			return 0
		case "":
			return 0.5
		default:
			return 1
		}
	}
	if !g.Active[playerID] {
		// Out of cards with the stock empty: this player can no longer lose.
		return 1
	}

	own := handScore(g.Hands[playerID], g.TrumpSuit, g.Config.DeckSize)
	ownSize := float64(len(g.Hands[playerID]))

	oppScore, oppSize, opps := 0.0, 0.0, 0
	for _, p := range g.Order {
		if p == playerID || !g.Active[p] {
			continue
		}
		oppScore += handScore(g.Hands[p], g.TrumpSuit, g.Config.DeckSize)
		oppSize += float64(len(g.Hands[p]))
		opps++
	}
	if opps == 0 {
		return 1
	}
	oppScore /= float64(opps)
	oppSize /= float64(opps)

	// Card quality matters throughout; holding fewer cards than the field
	// only pays off once refills stop.
	pressure := 1 - float64(len(g.Deck))/float64(g.Config.DeckSize)
	quality := own - oppScore
	burden := (oppSize - ownSize) / 6

	return clamp01(0.5 + 0.25*quality + 0.25*pressure*burden)
}

// handScore is the mean card strength of a hand on [0,1]. Trumps count as a
// full band above off-suit cards, so the trump six outranks an off-suit ace.
// An empty hand carries no information and scores neutral.
func handScore(hand []durak.Card, trump durak.Suit, deckSize int) float64 {
	if len(hand) == 0 {
		return 0.5
	}
	lo := 6.0
	if deckSize == 24 {
		lo = 9.0
	}
	span := float64(durak.Ace) - lo + 1
	total := 0.0
	for _, c := range hand {
		v := (float64(c.Rank) - lo + 1) / span
		if c.Suit == trump {
			v += 1
		}
		total += v
	}
	return total / float64(len(hand)) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package bot

import (
	"math/rand"
	"sort"

	"github.com/fooltable/durak-api/pkg/durak"
)

const (
	hardSamples      = 16 // determinized worlds per candidate move
	hardRolloutMoves = 80 // rollout cap before falling back to the static eval
)

// HardStrategy judges each legal move by playing it out in a batch of
// determinized worlds: everything the mover cannot see (other hands, the
// face-down stock) is reshuffled, the move is applied, and greedy play on
// every seat finishes the game. The move with the best average outcome wins.
type HardStrategy struct{}

func (HardStrategy) Name() string { return "hard" }

func (s HardStrategy) ChooseMove(g *durak.GameState, playerID string) (durak.Move, bool) {
	moves := durak.LegalMoves(g, playerID)
	if len(moves) == 0 {
		return durak.Move{}, false
	}
	if len(moves) == 1 {
		return moves[0], true
	}

	rng := rand.New(rand.NewSource(botInt63()))
	best, bestScore := 0, -1.0
	for i, mv := range moves {
		total := 0.0
		for n := 0; n < hardSamples; n++ {
			world := determinize(g, playerID, rng)
			// A move legal on the real state is legal in every world, since
			// legality never depends on hidden card identities. A failed
			// apply therefore scores zero instead of aborting the search.
			if world.Apply(playerID, mv) != nil {
				continue
			}
			total += rollout(world, playerID)
		}
		if total > bestScore {
			best, bestScore = i, total
		}
	}
	return moves[best], true
}

// determinize clones g and reshuffles every card the viewer cannot see.
// Opponents keep their hand sizes and the stock keeps its size and its
// face-up trump bottom card; only the hidden identities swap places.
func determinize(g *durak.GameState, viewer string, rng *rand.Rand) *durak.GameState {
	w := g.Clone()

	hidden := make([]durak.Card, 0, g.Config.DeckSize)
	for _, p := range w.Order {
		if p == viewer {
			continue
		}
		hidden = append(hidden, w.Hands[p]...)
	}
	stockFrom := len(w.Deck)
	if stockFrom > 0 {
		stockFrom = 1
		hidden = append(hidden, w.Deck[1:]...)
	}

	rng.Shuffle(len(hidden), func(i, j int) { hidden[i], hidden[j] = hidden[j], hidden[i] })

	next := 0
	for _, p := range w.Order {
		if p == viewer {
			continue
		}
		hand := w.Hands[p]
		copy(hand, hidden[next:next+len(hand)])
		next += len(hand)
		sort.Slice(hand, func(i, j int) bool { return hand[i].Less(hand[j]) })
	}
	copy(w.Deck[stockFrom:], hidden[next:])
	return w
}

// rollout plays the world forward with the greedy policy on every seat and
// scores the outcome for playerID. The world is already private, so the
// policy reads it directly instead of cloning per move.
func rollout(g *durak.GameState, playerID string) float64 {
	var greedy GreedyStrategy
	for moves := 0; g.Phase == durak.PhasePlaying && moves < hardRolloutMoves; moves++ {
		acted := false
		for _, p := range g.Order {
			if !durak.AllowedActions(g, p).Any() {
				continue
			}
			mv, ok := greedy.ChooseMove(g, p)
			if !ok {
				continue
			}
			if g.Apply(p, mv) != nil {
				return evaluatePosition(g, playerID)
			}
			acted = true
			break
		}
		if !acted {
			break
		}
	}
	return evaluatePosition(g, playerID)
}

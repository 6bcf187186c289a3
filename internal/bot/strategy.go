package bot

import (
	"github.com/fooltable/durak-api/pkg/durak"
)

// Strategy picks one move for a bot seat. ChooseMove gets a private clone of
// the live state and must not assume it sees other hands fairly; honest
// strategies read only the mover's hand and the public board.
type Strategy interface {
	Name() string
	ChooseMove(g *durak.GameState, playerID string) (durak.Move, bool)
}

// StrategyForDifficulty returns the strategy for a bot difficulty level.
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "random":
		return &RandomStrategy{}
	case "hard":
		return &HardStrategy{}
	case "neural":
		return newNeuralOrFallback()
	default:
		return &GreedyStrategy{}
	}
}

// --- RandomStrategy ---

// RandomStrategy plays a uniformly random legal move. Useful as a baseline
// opponent and for shaking out engine edge cases in the arena.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) ChooseMove(g *durak.GameState, playerID string) (durak.Move, bool) {
	moves := durak.LegalMoves(g, playerID)
	if len(moves) == 0 {
		return durak.Move{}, false
	}
	return moves[botIntn(len(moves))], true
}

package bot

import (
	"fmt"
	"log"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"

	"github.com/fooltable/durak-api/internal/bot/neural"
	"github.com/fooltable/durak-api/pkg/durak"
)

// GonnxModelPath is the value network ONNX file. Set at startup from the
// ONNX_MODEL_PATH env var; empty means the neural difficulty falls back
// to greedy.
var GonnxModelPath string

// newNeuralOrFallback attempts to create a NeuralStrategy. If loading fails,
// it falls back to GreedyStrategy so games can proceed.
func newNeuralOrFallback() Strategy {
	s, err := newNeuralStrategy()
	if err != nil {
		log.Printf("bot: neural difficulty requested but model load failed: %v; falling back to greedy", err)
		return &GreedyStrategy{}
	}
	return s
}

// NeuralStrategy scores every legal move with a value network run on gonnx
// (pure Go ONNX runtime): apply the move to a clone, encode the resulting
// state from the mover's perspective, and keep the highest-valued outcome.
type NeuralStrategy struct {
	value    *gonnx.Model
	fallback GreedyStrategy
	mu       sync.Mutex
}

func newNeuralStrategy() (*NeuralStrategy, error) {
	if GonnxModelPath == "" {
		return nil, fmt.Errorf("model path not set")
	}
	value, err := gonnx.NewModelFromFile(GonnxModelPath)
	if err != nil {
		return nil, err
	}
	return &NeuralStrategy{value: value}, nil
}

func (s *NeuralStrategy) Name() string { return "neural" }

func (s *NeuralStrategy) ChooseMove(g *durak.GameState, playerID string) (durak.Move, bool) {
	moves := durak.LegalMoves(g, playerID)
	if len(moves) == 0 {
		return durak.Move{}, false
	}

	best := -1
	var bestScore float32
	for i, mv := range moves {
		next := g.Clone()
		if err := next.Apply(playerID, mv); err != nil {
			continue
		}
		score, err := s.scoreState(next, playerID)
		if err != nil {
			log.Printf("bot/gonnx: value run error: %v; falling back to greedy", err)
			return s.fallback.ChooseMove(g, playerID)
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return s.fallback.ChooseMove(g, playerID)
	}
	return moves[best], true
}

// scoreState runs the value network on one candidate state, returning the
// predicted outcome for the player (higher is better).
func (s *NeuralStrategy) scoreState(g *durak.GameState, playerID string) (float32, error) {
	stateTensor := tensor.New(
		tensor.WithShape(1, neural.NumFeatures),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(neural.EncodeState(g, playerID)),
	)

	s.mu.Lock()
	outputs, err := s.value.Run(gonnx.Tensors{"state": stateTensor})
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	out, ok := outputs["value"]
	if !ok {
		// Take the first output when the export used another name.
		for _, v := range outputs {
			out = v
			break
		}
	}
	if out == nil {
		return 0, fmt.Errorf("no output tensor from value model")
	}

	switch d := out.Data().(type) {
	case []float32:
		if len(d) == 0 {
			return 0, fmt.Errorf("empty value output")
		}
		return d[0], nil
	case []float64:
		if len(d) == 0 {
			return 0, fmt.Errorf("empty value output")
		}
		return float32(d[0]), nil
	case float32:
		return d, nil
	case float64:
		return float32(d), nil
	default:
		return 0, fmt.Errorf("unexpected value output type %T", out.Data())
	}
}

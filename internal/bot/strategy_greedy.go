package bot

import "github.com/fooltable/durak-api/pkg/durak"

// GreedyStrategy spends the cheapest card that does the job and hoards
// trumps. It is the default opponent.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return "greedy" }

func (GreedyStrategy) ChooseMove(g *durak.GameState, playerID string) (durak.Move, bool) {
	moves := durak.LegalMoves(g, playerID)
	if len(moves) == 0 {
		return durak.Move{}, false
	}

	var beat, take, pass *durak.Move
	var defends, transfers, attacks []durak.Move
	for i := range moves {
		switch moves[i].Kind {
		case durak.MoveBeat:
			beat = &moves[i]
		case durak.MoveTake:
			take = &moves[i]
		case durak.MovePass:
			pass = &moves[i]
		case durak.MoveDefend:
			defends = append(defends, moves[i])
		case durak.MoveTransfer:
			transfers = append(transfers, moves[i])
		case durak.MoveAttack:
			attacks = append(attacks, moves[i])
		}
	}

	trump := g.TrumpSuit

	// Defending: closing the round beats everything else. Otherwise cover
	// with the cheapest card, or slide the attack over when that is cheaper.
	if beat != nil {
		return *beat, true
	}
	if best, ok := cheapest(defends, trump); ok {
		if tr, ok := cheapest(transfers, trump); ok && cardCost(tr.Card, trump) < cardCost(best.Card, trump) {
			return tr, true
		}
		return best, true
	}
	if tr, ok := cheapest(transfers, trump); ok {
		return tr, true
	}
	if take != nil {
		return *take, true
	}

	// Attacking: open with the cheapest card, keep piling only off-suit.
	if best, ok := cheapest(attacks, trump); ok {
		if len(g.Table) == 0 || best.Card.Suit != trump {
			return best, true
		}
	}
	if pass != nil {
		return *pass, true
	}
	if len(attacks) > 0 {
		return attacks[0], true
	}
	return moves[0], true
}

// cardCost ranks expendability: low off-suit cards first, trumps last.
func cardCost(c durak.Card, trump durak.Suit) int {
	cost := int(c.Rank)
	if c.Suit == trump {
		cost += 20
	}
	return cost
}

func cheapest(moves []durak.Move, trump durak.Suit) (durak.Move, bool) {
	if len(moves) == 0 {
		return durak.Move{}, false
	}
	best := moves[0]
	for _, mv := range moves[1:] {
		if cardCost(mv.Card, trump) < cardCost(best.Card, trump) {
			best = mv
		}
	}
	return best, true
}

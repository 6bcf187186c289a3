package durak

import (
	"fmt"
	"sort"
)

// Apply validates and applies one move by the given player, mutating g in
// place. Illegal moves return a *RuleError and leave the state untouched.
// Round resolution runs inline when the move triggers it: BEAT always
// resolves, and TAKE/PASS resolve once a declared take has been passed on
// by every remaining attacker.
func (g *GameState) Apply(playerID string, mv Move) error {
	switch g.Phase {
	case PhasePlaying:
	case PhaseFinished:
		return ruleErr(CodeGameFinished, "game is finished")
	default:
		return ruleErr(CodeGameNotPlaying, "game is not in progress")
	}
	if !g.Active[playerID] {
		return ruleErr(CodeNotActive, "player is out of the game")
	}

	switch mv.Kind {
	case MoveAttack:
		return g.applyAttack(playerID, mv.Card)
	case MoveDefend:
		return g.applyDefend(playerID, mv.AttackIndex, mv.Card)
	case MoveTransfer:
		return g.applyTransfer(playerID, mv.Card)
	case MoveTake:
		return g.applyTake(playerID)
	case MovePass:
		return g.applyPass(playerID)
	case MoveBeat:
		return g.applyBeat(playerID)
	default:
		return fmt.Errorf("unknown move kind %q", mv.Kind)
	}
}

func (g *GameState) applyAttack(player string, card Card) error {
	if player == g.DefenderID {
		return ruleErr(CodeDefenderCannotAttack, "the defender cannot attack")
	}
	if g.hasPassed(player) {
		return ruleErr(CodeYouPassed, "already passed this round")
	}
	if !handContains(g.Hands[player], card) {
		return ruleErr(CodeCardNotInHand, "card is not in your hand")
	}
	if len(g.Table) == 0 {
		if player != g.AttackerID {
			return ruleErr(CodeOnlyMainAttackerStarts, "only the main attacker opens a round")
		}
	} else if !g.tableRanks()[card.Rank] {
		return ruleErr(CodeRankNotOnTable, "rank does not match any card on the table")
	}
	if len(g.Table) >= g.RoundLimit {
		return ruleErr(CodeRoundLimit, "attack limit for this round reached")
	}
	if !g.TakeDeclared && g.undefendedCount() > 0 {
		return ruleErr(CodeDefenderMustRespond, "defender must respond to the open attack first")
	}

	g.removeFromHand(player, card)
	g.Table = append(g.Table, TablePair{Attack: card})
	return nil
}

func (g *GameState) applyDefend(player string, idx int, card Card) error {
	if player != g.DefenderID {
		return ruleErr(CodeOnlyDefenderCanDefend, "only the defender can defend")
	}
	if g.TakeDeclared {
		return ruleErr(CodeTakeAlreadyDeclared, "take already declared")
	}
	if idx < 0 || idx >= len(g.Table) {
		return ruleErr(CodeBadAttackIndex, "no such attack on the table")
	}
	if g.Table[idx].Defended() {
		return ruleErr(CodeAlreadyDefended, "attack is already covered")
	}
	if !handContains(g.Hands[player], card) {
		return ruleErr(CodeCardNotInHand, "card is not in your hand")
	}
	if !Beats(card, g.Table[idx].Attack, g.TrumpSuit) {
		return ruleErr(CodeDoesNotBeat, "card does not beat the attack")
	}

	g.removeFromHand(player, card)
	c := card
	g.Table[idx].Defend = &c
	return nil
}

func (g *GameState) applyTransfer(player string, card Card) error {
	if g.Config.Mode != Perevodnoy {
		return ruleErr(CodeModeNotPerevodnoy, "transfers are only allowed in perevodnoy")
	}
	if player != g.DefenderID {
		return ruleErr(CodeOnlyDefenderCanTransfer, "only the defender can transfer")
	}
	if g.TakeDeclared {
		return ruleErr(CodeTakeAlreadyDeclared, "take already declared")
	}
	if len(g.Table) == 0 {
		return ruleErr(CodeNothingToTransfer, "nothing on the table to transfer")
	}
	if g.defendedCount() > 0 {
		return ruleErr(CodeCannotTransferAfterDefend, "cannot transfer once a card is covered")
	}
	if !handContains(g.Hands[player], card) {
		return ruleErr(CodeCardNotInHand, "card is not in your hand")
	}
	if !g.attackRanks()[card.Rank] {
		return ruleErr(CodeRankMustMatchAttack, "transfer card must match the attack rank")
	}
	next := g.NextActive(player)
	if min(handSize, len(g.Hands[next])) < len(g.Table)+1 {
		return ruleErr(CodeRoundLimit, "next player cannot cover that many cards")
	}

	g.removeFromHand(player, card)
	g.Table = append(g.Table, TablePair{Attack: card})
	g.AttackerID = player
	g.DefenderID = next
	g.RoundLimit = min(handSize, len(g.Hands[next]))
	g.Passed = []string{}
	return nil
}

func (g *GameState) applyTake(player string) error {
	if player != g.DefenderID {
		return ruleErr(CodeOnlyDefenderCanTake, "only the defender can take")
	}
	if len(g.Table) == 0 {
		return ruleErr(CodeNothingOnTable, "nothing on the table to take")
	}
	if g.TakeDeclared {
		return ruleErr(CodeTakeAlreadyDeclared, "take already declared")
	}

	g.TakeDeclared = true
	if g.allAttackersPassed() {
		g.resolveTake()
	}
	return nil
}

func (g *GameState) applyPass(player string) error {
	if player == g.DefenderID {
		return ruleErr(CodeDefenderCannotPass, "the defender cannot pass")
	}
	if len(g.Table) == 0 {
		return ruleErr(CodeNothingOnTable, "nothing on the table yet")
	}
	if g.hasPassed(player) {
		return ruleErr(CodeYouPassed, "already passed this round")
	}

	g.Passed = append(g.Passed, player)
	sort.Strings(g.Passed)
	if g.TakeDeclared && g.allAttackersPassed() {
		g.resolveTake()
	}
	return nil
}

func (g *GameState) applyBeat(player string) error {
	if player != g.DefenderID {
		return ruleErr(CodeOnlyDefenderCanBeat, "only the defender can declare beat")
	}
	if g.TakeDeclared {
		return ruleErr(CodeTakeAlreadyDeclared, "take already declared")
	}
	if len(g.Table) == 0 {
		return ruleErr(CodeNothingOnTable, "nothing on the table to beat")
	}
	if g.undefendedCount() > 0 {
		return ruleErr(CodeNotFullyDefended, "open attacks remain on the table")
	}
	if !g.allAttackersPassed() {
		return ruleErr(CodeAttackersNotPassed, "attackers may still throw in")
	}

	g.resolveBeat()
	return nil
}

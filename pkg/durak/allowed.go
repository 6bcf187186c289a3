package durak

// Allowed reports which actions a player could legally take right now.
// It is the private half of a player's view and drives bot decisions.
type Allowed struct {
	Attack   bool `json:"attack"`
	Defend   bool `json:"defend"`
	Transfer bool `json:"transfer"`
	Take     bool `json:"take"`
	Pass     bool `json:"pass"`
	Beat     bool `json:"beat"`
}

// Any reports whether at least one action is available.
func (a Allowed) Any() bool {
	return a.Attack || a.Defend || a.Transfer || a.Take || a.Pass || a.Beat
}

// LegalMoves enumerates every move Apply would accept for the player right
// now. Card moves are probed against a clone so resolution side effects
// never touch the live state.
func LegalMoves(g *GameState, playerID string) []Move {
	var moves []Move
	try := func(mv Move) {
		if g.Clone().Apply(playerID, mv) == nil {
			moves = append(moves, mv)
		}
	}
	for _, c := range g.HandOf(playerID) {
		try(Move{Kind: MoveAttack, Card: c})
		try(Move{Kind: MoveTransfer, Card: c})
		for i := range g.Table {
			try(Move{Kind: MoveDefend, Card: c, AttackIndex: i})
		}
	}
	try(Move{Kind: MoveTake})
	try(Move{Kind: MovePass})
	try(Move{Kind: MoveBeat})
	return moves
}

// AllowedActions derives the action flags for one player. The flags agree
// exactly with what Apply would accept: a flag is set iff some concrete
// move of that kind would succeed.
func AllowedActions(g *GameState, playerID string) Allowed {
	var a Allowed
	if g.Phase != PhasePlaying || !g.Active[playerID] {
		return a
	}

	if playerID == g.DefenderID {
		if g.TakeDeclared {
			return a
		}
		a.Take = len(g.Table) > 0
		a.Beat = len(g.Table) > 0 && g.undefendedCount() == 0 && g.allAttackersPassed()
		a.Defend = g.canDefendAny(playerID)
		a.Transfer = g.canTransferAny(playerID)
		return a
	}

	if g.hasPassed(playerID) {
		return a
	}
	a.Attack = g.canAttackAny(playerID)
	a.Pass = len(g.Table) > 0
	return a
}

func (g *GameState) canAttackAny(player string) bool {
	if len(g.Table) >= g.RoundLimit {
		return false
	}
	if !g.TakeDeclared && g.undefendedCount() > 0 {
		return false
	}
	hand := g.Hands[player]
	if len(g.Table) == 0 {
		return player == g.AttackerID && len(hand) > 0
	}
	ranks := g.tableRanks()
	for _, c := range hand {
		if ranks[c.Rank] {
			return true
		}
	}
	return false
}

func (g *GameState) canDefendAny(player string) bool {
	hand := g.Hands[player]
	for _, p := range g.Table {
		if p.Defended() {
			continue
		}
		for _, c := range hand {
			if Beats(c, p.Attack, g.TrumpSuit) {
				return true
			}
		}
	}
	return false
}

func (g *GameState) canTransferAny(player string) bool {
	if g.Config.Mode != Perevodnoy {
		return false
	}
	if len(g.Table) == 0 || g.defendedCount() > 0 {
		return false
	}
	next := g.NextActive(player)
	if min(handSize, len(g.Hands[next])) < len(g.Table)+1 {
		return false
	}
	ranks := g.attackRanks()
	for _, c := range g.Hands[player] {
		if ranks[c.Rank] {
			return true
		}
	}
	return false
}

package durak

// resolveBeat finishes a fully repelled round: the table goes face-down to
// the discard, everyone refills, and the attack moves one seat clockwise
// so the successful defender attacks next.
func (g *GameState) resolveBeat() {
	defender := g.DefenderID
	for _, p := range g.Table {
		g.Discard = append(g.Discard, p.Attack)
		if p.Defend != nil {
			g.Discard = append(g.Discard, *p.Defend)
		}
	}
	sortCards(g.Discard)
	g.Table = []TablePair{}

	g.refill(defender)
	g.deactivateEmptyHands()
	if g.checkFinished() {
		return
	}

	attacker := defender
	if !g.Active[attacker] {
		attacker = g.NextActive(attacker)
	}
	g.startRound(attacker)
}

// resolveTake finishes a surrendered round: the defender absorbs the whole
// table, everyone refills with the taker drawing last, and the attack
// skips the taker.
func (g *GameState) resolveTake() {
	defender := g.DefenderID
	for _, p := range g.Table {
		g.Hands[defender] = append(g.Hands[defender], p.Attack)
		if p.Defend != nil {
			g.Hands[defender] = append(g.Hands[defender], *p.Defend)
		}
	}
	sortCards(g.Hands[defender])
	g.Table = []TablePair{}

	g.refill(defender)
	g.deactivateEmptyHands()
	if g.checkFinished() {
		return
	}

	g.startRound(g.NextActive(defender))
}

// refill deals every active player back up to six cards, starting with the
// main attacker and going clockwise, the defender strictly last. Stops
// silently when the deck runs dry.
func (g *GameState) refill(defender string) {
	start := g.indexOf(g.AttackerID)
	if start < 0 {
		start = 0
	}
	n := len(g.Order)
	order := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := g.Order[(start+i)%n]
		if !g.Active[p] || p == defender {
			continue
		}
		order = append(order, p)
	}
	order = append(order, defender)

	for _, p := range order {
		for len(g.Hands[p]) < handSize && len(g.Deck) > 0 {
			g.Hands[p] = append(g.Hands[p], g.draw())
		}
		sortCards(g.Hands[p])
	}
}

// deactivateEmptyHands retires players who emptied their hand once the
// deck is exhausted. While cards remain in the deck nobody leaves.
func (g *GameState) deactivateEmptyHands() {
	if len(g.Deck) > 0 {
		return
	}
	for _, p := range g.Order {
		if g.Active[p] && len(g.Hands[p]) == 0 {
			g.Active[p] = false
		}
	}
}

// checkFinished ends the game once at most one player is left holding
// cards after the deck ran out. The holdout is the durak; zero holdouts
// is a draw.
func (g *GameState) checkFinished() bool {
	if len(g.Deck) > 0 {
		return false
	}
	actives := g.ActivePlayers()
	if len(actives) > 1 {
		return false
	}
	g.Phase = PhaseFinished
	g.AttackerID = ""
	g.DefenderID = ""
	g.RoundLimit = 0
	g.Passed = []string{}
	g.TakeDeclared = false
	if len(actives) == 1 {
		g.Loser = actives[0]
	}
	return true
}

// startRound seats a fresh round with the given attacker.
func (g *GameState) startRound(attacker string) {
	defender := g.NextActive(attacker)
	g.AttackerID = attacker
	g.DefenderID = defender
	g.RoundLimit = min(handSize, len(g.Hands[defender]))
	g.Passed = []string{}
	g.TakeDeclared = false
}

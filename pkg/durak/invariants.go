package durak

import (
	"fmt"
	"sort"
)

// CheckInvariants verifies the structural invariants that must hold after
// every applied move. Room actors run it post-mutation; a non-nil return
// means the state is corrupt and the room must stop accepting events.
func CheckInvariants(g *GameState) error {
	if err := g.checkConservation(); err != nil {
		return err
	}
	if g.Phase != PhasePlaying {
		return nil
	}

	if g.AttackerID == g.DefenderID {
		return fmt.Errorf("attacker and defender are both %q", g.AttackerID)
	}
	if g.indexOf(g.AttackerID) < 0 || g.indexOf(g.DefenderID) < 0 {
		return fmt.Errorf("attacker %q or defender %q is not seated", g.AttackerID, g.DefenderID)
	}
	if !g.Active[g.AttackerID] || !g.Active[g.DefenderID] {
		return fmt.Errorf("attacker %q or defender %q is inactive", g.AttackerID, g.DefenderID)
	}
	if len(g.Table) > g.RoundLimit {
		return fmt.Errorf("table holds %d attacks, round limit is %d", len(g.Table), g.RoundLimit)
	}
	for i, p := range g.Table {
		if p.Defend != nil && !Beats(*p.Defend, p.Attack, g.TrumpSuit) {
			return fmt.Errorf("pair %d: %s does not beat %s", i, p.Defend, p.Attack)
		}
	}
	for _, p := range g.Passed {
		if p == g.DefenderID {
			return fmt.Errorf("defender %q is marked as passed", p)
		}
		if !g.Active[p] {
			return fmt.Errorf("inactive player %q is marked as passed", p)
		}
	}
	if !sort.StringsAreSorted(g.Passed) {
		return fmt.Errorf("passed set is not sorted")
	}
	for p, hand := range g.Hands {
		if !sort.SliceIsSorted(hand, func(i, j int) bool { return hand[i].Less(hand[j]) }) {
			return fmt.Errorf("hand of %q is not sorted", p)
		}
	}
	if !sort.SliceIsSorted(g.Discard, func(i, j int) bool { return g.Discard[i].Less(g.Discard[j]) }) {
		return fmt.Errorf("discard pile is not sorted")
	}
	return nil
}

// checkConservation verifies that deck, hands, table and discard together
// form exactly the configured deck with no duplicates or losses.
func (g *GameState) checkConservation() error {
	got := make(map[Card]int, g.Config.DeckSize)
	for _, c := range g.Deck {
		got[c]++
	}
	for _, hand := range g.Hands {
		for _, c := range hand {
			got[c]++
		}
	}
	for _, p := range g.Table {
		got[p.Attack]++
		if p.Defend != nil {
			got[*p.Defend]++
		}
	}
	for _, c := range g.Discard {
		got[c]++
	}

	want := newDeck(g.Config.DeckSize)
	if len(got) != len(want) {
		return fmt.Errorf("conservation: %d distinct cards in play, deck has %d", len(got), len(want))
	}
	for _, c := range want {
		if got[c] != 1 {
			return fmt.Errorf("conservation: card %s appears %d times", c, got[c])
		}
	}
	return nil
}

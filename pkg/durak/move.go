package durak

// MoveKind enumerates the player actions.
type MoveKind string

const (
	MoveAttack   MoveKind = "attack"
	MoveDefend   MoveKind = "defend"
	MoveTransfer MoveKind = "transfer"
	MoveTake     MoveKind = "take"
	MovePass     MoveKind = "pass"
	MoveBeat     MoveKind = "beat"
)

// Move is a single player action. Card is set for attack, defend and
// transfer; AttackIndex selects the table pair for defend.
type Move struct {
	Kind        MoveKind
	Card        Card
	AttackIndex int
}

// Beats reports whether d covers a under the given trump suit: same suit
// and higher rank, or any trump over a non-trump.
func Beats(d, a Card, trump Suit) bool {
	if d.Suit == a.Suit {
		return d.Rank > a.Rank
	}
	return d.Suit == trump
}

package durak

// Wire-stable codes for rule violations. The room layer forwards them to
// clients verbatim in ERROR frames.
const (
	CodeNotActive                 = "NOT_ACTIVE"
	CodeGameNotPlaying            = "GAME_NOT_PLAYING"
	CodeGameFinished              = "GAME_FINISHED"
	CodeDefenderCannotAttack      = "DEFENDER_CANNOT_ATTACK"
	CodeDefenderCannotPass        = "DEFENDER_CANNOT_PASS"
	CodeOnlyDefenderCanDefend     = "ONLY_DEFENDER_CAN_DEFEND"
	CodeOnlyDefenderCanTake       = "ONLY_DEFENDER_CAN_TAKE"
	CodeOnlyDefenderCanBeat       = "ONLY_DEFENDER_CAN_BEAT"
	CodeOnlyDefenderCanTransfer   = "ONLY_DEFENDER_CAN_TRANSFER"
	CodeOnlyMainAttackerStarts    = "ONLY_MAIN_ATTACKER_STARTS"
	CodeYouPassed                 = "YOU_PASSED"
	CodeCardNotInHand             = "CARD_NOT_IN_HAND"
	CodeBadCard                   = "BAD_CARD"
	CodeRankNotOnTable            = "RANK_NOT_ON_TABLE"
	CodeDefenderMustRespond       = "DEFENDER_MUST_RESPOND"
	CodeRoundLimit                = "ROUND_LIMIT"
	CodeBadAttackIndex            = "BAD_ATTACK_INDEX"
	CodeAlreadyDefended           = "ALREADY_DEFENDED"
	CodeDoesNotBeat               = "DOES_NOT_BEAT"
	CodeModeNotPerevodnoy         = "MODE_NOT_PEREVODNOY"
	CodeTakeAlreadyDeclared       = "TAKE_ALREADY_DECLARED"
	CodeNothingToTransfer         = "NOTHING_TO_TRANSFER"
	CodeCannotTransferAfterDefend = "CANNOT_TRANSFER_AFTER_DEFEND"
	CodeRankMustMatchAttack       = "RANK_MUST_MATCH_ATTACK"
	CodeNothingOnTable            = "NOTHING_ON_TABLE"
	CodeNotFullyDefended          = "NOT_FULLY_DEFENDED"
	CodeAttackersNotPassed        = "ATTACKERS_NOT_PASSED"
)

// RuleError describes why a move is illegal. The state it was rejected
// against is left untouched.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func ruleErr(code, msg string) *RuleError {
	return &RuleError{Code: code, Message: msg}
}

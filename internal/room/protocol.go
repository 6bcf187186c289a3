package room

import (
	"encoding/json"

	"github.com/fooltable/durak-api/pkg/durak"
)

// Client→server frame types.
const (
	FrameJoin     = "JOIN"
	FrameReady    = "READY"
	FrameStart    = "START"
	FrameAttack   = "ATTACK"
	FrameDefend   = "DEFEND"
	FrameTransfer = "TRANSFER"
	FrameTake     = "TAKE"
	FrameBeat     = "BEAT"
	FramePass     = "PASS"
)

// Server→client frame types.
const (
	FrameState = "STATE"
	FrameInfo  = "INFO"
	FrameError = "ERROR"
)

// Transport-level error codes. Rule violations reuse the engine's codes.
const (
	CodeBadJSON        = "BAD_JSON"
	CodeUnknownMsg     = "UNKNOWN_MSG"
	CodeBadSession     = "BAD_SESSION"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeNotJoined      = "NOT_JOINED"
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeRoomFull       = "ROOM_FULL"
	CodeRoomNotReady   = "ROOM_NOT_READY"
	CodeNotInRoom      = "NOT_IN_ROOM"
	CodeNotInGame      = "NOT_IN_GAME"
	CodePersistFailed  = "PERSIST_FAILED"
)

// ClientFrame is one decoded client→server message. Type selects which of
// the optional fields matter.
type ClientFrame struct {
	Type         string `json:"type"`
	SessionToken string `json:"sessionToken,omitempty"`
	Ready        bool   `json:"ready,omitempty"`
	Card         string `json:"card,omitempty"`
	AttackIndex  int    `json:"attackIndex,omitempty"`
}

// DecodeClientFrame parses one raw WebSocket message. A nil frame with
// ok=false means the payload was not valid JSON for the frame shape.
func DecodeClientFrame(raw []byte) (*ClientFrame, bool) {
	var f ClientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false
	}
	return &f, true
}

// KnownFrameType reports whether the type tag belongs to the protocol.
func KnownFrameType(t string) bool {
	switch t {
	case FrameJoin, FrameReady, FrameStart, FrameAttack, FrameDefend,
		FrameTransfer, FrameTake, FrameBeat, FramePass:
		return true
	}
	return false
}

// gameFrameMove maps a game action frame onto an engine move. Returns false
// for frame types that are not game actions.
func gameFrameMove(f *ClientFrame) (durak.Move, bool, error) {
	var mv durak.Move
	switch f.Type {
	case FrameAttack:
		mv.Kind = durak.MoveAttack
	case FrameDefend:
		mv.Kind = durak.MoveDefend
		mv.AttackIndex = f.AttackIndex
	case FrameTransfer:
		mv.Kind = durak.MoveTransfer
	case FrameTake:
		return durak.Move{Kind: durak.MoveTake}, true, nil
	case FrameBeat:
		return durak.Move{Kind: durak.MoveBeat}, true, nil
	case FramePass:
		return durak.Move{Kind: durak.MovePass}, true, nil
	default:
		return mv, false, nil
	}
	card, err := durak.ParseCard(f.Card)
	if err != nil {
		return mv, true, err
	}
	mv.Card = card
	return mv, true, nil
}

// serverFrame is the single outbound envelope; exactly one payload field is
// set per type.
type serverFrame struct {
	Type    string    `json:"type"`
	State   *RoomView `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	Code    string    `json:"code,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// ErrorFrame encodes an ERROR frame.
func ErrorFrame(code, detail string) []byte {
	raw, _ := json.Marshal(serverFrame{Type: FrameError, Code: code, Detail: detail})
	return raw
}

// InfoFrame encodes an INFO frame.
func InfoFrame(message string) []byte {
	raw, _ := json.Marshal(serverFrame{Type: FrameInfo, Message: message})
	return raw
}

// StateFrame encodes a STATE frame carrying one player's view.
func StateFrame(view *RoomView) ([]byte, error) {
	return json.Marshal(serverFrame{Type: FrameState, State: view})
}

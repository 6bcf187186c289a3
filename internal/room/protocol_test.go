package room

import (
	"encoding/json"
	"testing"

	"github.com/fooltable/durak-api/pkg/durak"
)

func TestDecodeClientFrame(t *testing.T) {
	f, ok := DecodeClientFrame([]byte(`{"type":"DEFEND","card":"H10","attackIndex":2}`))
	if !ok {
		t.Fatal("valid frame rejected")
	}
	if f.Type != FrameDefend || f.Card != "H10" || f.AttackIndex != 2 {
		t.Errorf("frame decoded wrong: %+v", f)
	}

	if _, ok := DecodeClientFrame([]byte(`{"type":`)); ok {
		t.Error("malformed JSON accepted")
	}
	if _, ok := DecodeClientFrame([]byte(`"just a string"`)); ok {
		t.Error("non-object accepted")
	}
}

func TestKnownFrameType(t *testing.T) {
	for _, typ := range []string{FrameJoin, FrameReady, FrameStart, FrameAttack, FrameDefend, FrameTransfer, FrameTake, FrameBeat, FramePass} {
		if !KnownFrameType(typ) {
			t.Errorf("%s not recognised", typ)
		}
	}
	for _, typ := range []string{"", "state", "JOIN ", "SUBSCRIBE"} {
		if KnownFrameType(typ) {
			t.Errorf("%q wrongly recognised", typ)
		}
	}
}

func TestGameFrameMove(t *testing.T) {
	tests := []struct {
		frame ClientFrame
		want  durak.Move
	}{
		{ClientFrame{Type: FrameAttack, Card: "S6"}, durak.Move{Kind: durak.MoveAttack, Card: durak.Card{Suit: durak.Spades, Rank: 6}}},
		{ClientFrame{Type: FrameDefend, Card: "HA", AttackIndex: 1}, durak.Move{Kind: durak.MoveDefend, Card: durak.Card{Suit: durak.Hearts, Rank: durak.Ace}, AttackIndex: 1}},
		{ClientFrame{Type: FrameTransfer, Card: "D7"}, durak.Move{Kind: durak.MoveTransfer, Card: durak.Card{Suit: durak.Diamonds, Rank: 7}}},
		{ClientFrame{Type: FrameTake}, durak.Move{Kind: durak.MoveTake}},
		{ClientFrame{Type: FrameBeat}, durak.Move{Kind: durak.MoveBeat}},
		{ClientFrame{Type: FramePass}, durak.Move{Kind: durak.MovePass}},
	}
	for _, tt := range tests {
		mv, isMove, err := gameFrameMove(&tt.frame)
		if !isMove || err != nil {
			t.Errorf("%s: isMove=%v err=%v", tt.frame.Type, isMove, err)
			continue
		}
		if mv != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.frame.Type, mv, tt.want)
		}
	}
}

func TestGameFrameMove_NonGameFrames(t *testing.T) {
	for _, typ := range []string{FrameJoin, FrameReady, FrameStart, "NOPE"} {
		if _, isMove, _ := gameFrameMove(&ClientFrame{Type: typ}); isMove {
			t.Errorf("%s treated as a game move", typ)
		}
	}
}

func TestGameFrameMove_BadCard(t *testing.T) {
	for _, card := range []string{"", "X6", "S5", "HAQ"} {
		_, isMove, err := gameFrameMove(&ClientFrame{Type: FrameAttack, Card: card})
		if !isMove {
			t.Errorf("%q: attack no longer a game move", card)
		}
		if err == nil {
			t.Errorf("%q: bad card accepted", card)
		}
	}
}

func TestServerFrameEncoders(t *testing.T) {
	var f serverFrame
	if err := json.Unmarshal(ErrorFrame("ROOM_FULL", "room is full"), &f); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if f.Type != FrameError || f.Code != "ROOM_FULL" || f.Detail != "room is full" {
		t.Errorf("error frame wrong: %+v", f)
	}

	if err := json.Unmarshal(InfoFrame("game started"), &f); err != nil {
		t.Fatalf("decode info frame: %v", err)
	}
	if f.Type != FrameInfo || f.Message != "game started" {
		t.Errorf("info frame wrong: %+v", f)
	}

	raw, err := StateFrame(&RoomView{RoomID: "r1", Phase: "lobby"})
	if err != nil {
		t.Fatalf("StateFrame: %v", err)
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode state frame: %v", err)
	}
	if f.Type != FrameState || f.State == nil || f.State.RoomID != "r1" {
		t.Errorf("state frame wrong: %+v", f)
	}
}

// Package room hosts the live game rooms. Each room is a single goroutine
// that owns its state, its sockets and its RNG; HTTP and WebSocket code
// talks to it only through a bounded event channel, so every mutation is
// serialised and persisted before anyone sees it.
package room

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/model"
	"github.com/fooltable/durak-api/internal/repository"
	"github.com/fooltable/durak-api/pkg/durak"
)

// Socket is one client connection attached to a room. Send must not block:
// it reports false when the outbound buffer is full, after which the room
// drops the connection. Close is idempotent.
type Socket interface {
	Send(frame []byte) bool
	Close(reason string)
}

const (
	eventBuffer    = 256
	persistTimeout = 5 * time.Second
	botThinkDelay  = 300 * time.Millisecond
)

type eventKind int

const (
	evAttach eventKind = iota
	evDetach
	evFrame
	evBotMove
)

type event struct {
	kind   eventKind
	sock   Socket
	player string       // attach: authenticated player; botMove: bot seat
	name   string       // attach: display name
	frame  *ClientFrame // frame events
}

// Room is one live room.
type Room struct {
	id          string
	log         zerolog.Logger
	store       repository.RoomStore
	newStrategy func() bot.Strategy
	botDelay    time.Duration

	events chan event
	done   chan struct{}
	stop   sync.Once

	emptySince atomic.Int64 // unix nanos; 0 while any socket is attached

	// Everything below is owned by the run goroutine.
	state       *RoomState
	seats       map[string]Socket
	conns       map[Socket]string
	bots        map[string]bot.Strategy
	pendingBots map[string]bool
	poisoned    bool
}

func newRoom(state *RoomState, store repository.RoomStore, newStrategy func() bot.Strategy, log zerolog.Logger) *Room {
	r := &Room{
		id:          state.Meta.RoomID,
		log:         log.With().Str("roomId", state.Meta.RoomID).Logger(),
		store:       store,
		newStrategy: newStrategy,
		botDelay:    botThinkDelay,
		events:      make(chan event, eventBuffer),
		done:        make(chan struct{}),
		state:       state,
		seats:       make(map[string]Socket),
		conns:       make(map[Socket]string),
		bots:        make(map[string]bot.Strategy),
		pendingBots: make(map[string]bool),
	}
	if newStrategy != nil {
		for _, p := range state.LobbyPlayers {
			if p.IsBot {
				r.bots[p.ID] = newStrategy()
			}
		}
	}
	r.emptySince.Store(time.Now().UnixNano())
	return r
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Config returns the room configuration.
func (r *Room) Config() model.RoomConfig { return r.state.Meta.Config }

// Attach hands a freshly authenticated socket to the room.
func (r *Room) Attach(playerID, displayName string, sock Socket) bool {
	return r.post(event{kind: evAttach, player: playerID, name: displayName, sock: sock})
}

// Detach reports a dropped connection.
func (r *Room) Detach(sock Socket) bool {
	return r.post(event{kind: evDetach, sock: sock})
}

// HandleFrame forwards one decoded client frame from a socket.
func (r *Room) HandleFrame(sock Socket, f *ClientFrame) bool {
	return r.post(event{kind: evFrame, sock: sock, frame: f})
}

// Stop terminates the actor. Attached sockets are closed; persisted state
// survives for later rehydration.
func (r *Room) Stop() {
	r.stop.Do(func() { close(r.done) })
}

// IdleSince returns when the last socket detached, zero while occupied.
func (r *Room) IdleSince() time.Time {
	n := r.emptySince.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// post enqueues an event. False means the room is stopped or overloaded;
// callers drop the connection in that case.
func (r *Room) post(ev event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			for sock := range r.conns {
				sock.Close("room closed")
			}
			return
		case ev := <-r.events:
			r.dispatch(ev)
		}
	}
}

func (r *Room) dispatch(ev event) {
	switch ev.kind {
	case evAttach:
		r.handleAttach(ev.player, ev.name, ev.sock)
	case evDetach:
		r.handleDetach(ev.sock)
	case evFrame:
		r.handleFrame(ev.sock, ev.frame)
	case evBotMove:
		r.handleBotMove(ev.player)
	}
}

func (r *Room) handleAttach(playerID, displayName string, sock Socket) {
	if r.poisoned {
		sock.Send(ErrorFrame(CodeRoomNotReady, "room is out of service"))
		sock.Close("room not ready")
		return
	}

	joined := false
	if r.state.seat(playerID) == nil {
		if r.state.Phase != model.RoomLobby {
			sock.Send(ErrorFrame(CodeNotInGame, "you are not seated in this game"))
			sock.Close("not in game")
			return
		}
		if len(r.state.LobbyPlayers) >= r.state.Meta.Config.MaxPlayers {
			sock.Send(ErrorFrame(CodeRoomFull, "room is full"))
			sock.Close("room full")
			return
		}
		r.state.LobbyPlayers = append(r.state.LobbyPlayers, model.LobbyPlayer{
			ID:          playerID,
			DisplayName: displayName,
		})
		if err := r.persist(); err != nil {
			r.state.LobbyPlayers = r.state.LobbyPlayers[:len(r.state.LobbyPlayers)-1]
			sock.Send(ErrorFrame(CodePersistFailed, "could not save the room"))
			sock.Close("persist failed")
			return
		}
		joined = true
	}

	// A player gets one live socket; a newer one wins.
	if old, ok := r.seats[playerID]; ok && old != sock {
		delete(r.conns, old)
		old.Close("replaced")
	}
	r.seats[playerID] = sock
	r.conns[sock] = playerID
	r.emptySince.Store(0)

	r.broadcast()
	if joined {
		r.infoOthers(playerID, r.displayName(playerID)+" joined the room")
	} else {
		r.infoOthers(playerID, r.displayName(playerID)+" reconnected")
	}
	r.scheduleBots()
}

func (r *Room) handleDetach(sock Socket) {
	if !r.dropSocket(sock) {
		return
	}
	r.broadcast()
}

// dropSocket forgets a connection without broadcasting. Reports whether the
// socket was current for some player.
func (r *Room) dropSocket(sock Socket) bool {
	playerID, ok := r.conns[sock]
	if !ok {
		return false
	}
	delete(r.conns, sock)
	if r.seats[playerID] == sock {
		delete(r.seats, playerID)
	}
	if len(r.conns) == 0 {
		r.emptySince.Store(time.Now().UnixNano())
	}
	return true
}

func (r *Room) handleFrame(sock Socket, f *ClientFrame) {
	playerID, ok := r.conns[sock]
	if !ok {
		sock.Send(ErrorFrame(CodeNotJoined, "join the room first"))
		return
	}
	if r.poisoned {
		sock.Send(ErrorFrame(CodeRoomNotReady, "room is out of service"))
		return
	}

	switch f.Type {
	case FrameReady:
		r.handleReady(sock, playerID, f.Ready)
	case FrameStart:
		r.handleStart(sock, playerID)
	default:
		mv, isMove, err := gameFrameMove(f)
		if !isMove {
			sock.Send(ErrorFrame(CodeUnknownMsg, "unexpected frame type "+f.Type))
			return
		}
		if err != nil {
			sock.Send(ErrorFrame(durak.CodeBadCard, err.Error()))
			return
		}
		r.handleMove(sock, playerID, mv)
	}
}

func (r *Room) handleReady(sock Socket, playerID string, ready bool) {
	if r.state.Phase != model.RoomLobby {
		sock.Send(ErrorFrame(CodeRoomNotReady, "game already started"))
		return
	}
	seat := r.state.seat(playerID)
	if seat == nil {
		sock.Send(ErrorFrame(CodeNotInRoom, "you are not seated in this room"))
		return
	}
	if seat.Ready == ready {
		r.broadcast()
		return
	}
	seat.Ready = ready
	if err := r.persist(); err != nil {
		seat.Ready = !ready
		sock.Send(ErrorFrame(CodePersistFailed, "could not save the room"))
		return
	}
	r.broadcast()
}

func (r *Room) handleStart(sock Socket, playerID string) {
	if r.state.Phase != model.RoomLobby {
		sock.Send(ErrorFrame(CodeRoomNotReady, "game already started"))
		return
	}
	if playerID != r.state.Meta.HostID {
		sock.Send(ErrorFrame(CodeRoomNotReady, "only the host can start the game"))
		return
	}
	if len(r.state.LobbyPlayers) < 2 {
		sock.Send(ErrorFrame(CodeRoomNotReady, "need at least 2 players"))
		return
	}
	if !r.state.allReady() {
		sock.Send(ErrorFrame(CodeRoomNotReady, "not everyone is ready"))
		return
	}

	rng := rand.New(rand.NewSource(cryptoSeed()))
	game, err := durak.NewGame(r.state.gameConfig(), r.state.seatIDs(), rng)
	if err != nil {
		r.log.Error().Err(err).Msg("deal failed")
		sock.Send(ErrorFrame(CodeRoomNotReady, err.Error()))
		return
	}
	r.state.Game = game
	r.state.Phase = model.RoomPlaying
	if err := r.persist(); err != nil {
		r.state.Game = nil
		r.state.Phase = model.RoomLobby
		sock.Send(ErrorFrame(CodePersistFailed, "could not save the game"))
		return
	}

	r.broadcast()
	r.infoAll("game started")
	r.scheduleBots()
}

// handleMove applies one engine move for a player. sock is nil for bot
// seats; their rejections are logged instead of sent.
func (r *Room) handleMove(sock Socket, playerID string, mv durak.Move) {
	switch r.state.Phase {
	case model.RoomLobby:
		r.sendError(sock, playerID, durak.CodeGameNotPlaying, "game has not started")
		return
	case model.RoomFinished:
		r.sendError(sock, playerID, durak.CodeGameFinished, "game is over")
		return
	}
	if r.state.seat(playerID) == nil {
		r.sendError(sock, playerID, CodeNotInRoom, "you are not seated in this room")
		return
	}

	prev := r.state.Game.Clone()
	if err := r.state.Game.Apply(playerID, mv); err != nil {
		var rule *durak.RuleError
		if errors.As(err, &rule) {
			r.sendError(sock, playerID, rule.Code, rule.Message)
			return
		}
		r.log.Error().Err(err).Msg("unexpected engine error")
		r.sendError(sock, playerID, CodeRoomNotReady, "internal error")
		return
	}
	if err := durak.CheckInvariants(r.state.Game); err != nil {
		r.poison(err)
		return
	}
	if r.state.Game.Phase == durak.PhaseFinished {
		r.state.Phase = model.RoomFinished
	}
	if err := r.persist(); err != nil {
		r.state.Game = prev
		r.state.Phase = model.RoomPlaying
		r.sendError(sock, playerID, CodePersistFailed, "could not save the game")
		return
	}

	r.broadcast()
	if r.state.Phase == model.RoomFinished {
		if loser := r.state.Game.Loser; loser != "" {
			r.infoAll(r.displayName(loser) + " is the durak")
		} else {
			r.infoAll("game over: draw")
		}
	}
	r.scheduleBots()
}

func (r *Room) handleBotMove(botID string) {
	delete(r.pendingBots, botID)
	if r.poisoned || r.state.Phase != model.RoomPlaying {
		return
	}
	strategy := r.bots[botID]
	if strategy == nil {
		return
	}
	mv, ok := strategy.ChooseMove(r.state.Game.Clone(), botID)
	if !ok {
		return
	}
	r.handleMove(nil, botID, mv)
}

// scheduleBots queues a delayed move for every bot seat that can act.
func (r *Room) scheduleBots() {
	if r.poisoned || r.state.Phase != model.RoomPlaying {
		return
	}
	for botID := range r.bots {
		if r.pendingBots[botID] {
			continue
		}
		if !durak.AllowedActions(r.state.Game, botID).Any() {
			continue
		}
		r.pendingBots[botID] = true
		id := botID
		time.AfterFunc(r.botDelay, func() {
			r.post(event{kind: evBotMove, player: id})
		})
	}
}

// poison takes the room out of service after an invariant violation. The
// persisted snapshot stays at the last consistent state.
func (r *Room) poison(err error) {
	r.poisoned = true
	r.log.Error().Err(err).Msg("invariant violation, room poisoned")
	for sock := range r.conns {
		sock.Send(ErrorFrame(CodeRoomNotReady, "room is out of service"))
		sock.Close("room poisoned")
	}
	r.seats = make(map[string]Socket)
	r.conns = make(map[Socket]string)
	r.emptySince.Store(time.Now().UnixNano())
}

// broadcast sends every connected human their own view.
func (r *Room) broadcast() {
	connected := func(id string) bool {
		_, ok := r.seats[id]
		return ok
	}
	var dead []Socket
	for _, p := range r.state.LobbyPlayers {
		if p.IsBot {
			continue
		}
		sock, ok := r.seats[p.ID]
		if !ok {
			continue
		}
		frame, err := StateFrame(buildView(r.state, p.ID, connected))
		if err != nil {
			r.log.Error().Err(err).Msg("encode state frame")
			continue
		}
		if !sock.Send(frame) {
			dead = append(dead, sock)
		}
	}
	for _, sock := range dead {
		sock.Close("slow consumer")
		r.dropSocket(sock)
	}
}

func (r *Room) infoAll(message string) {
	frame := InfoFrame(message)
	for sock := range r.conns {
		sock.Send(frame)
	}
}

func (r *Room) infoOthers(playerID, message string) {
	frame := InfoFrame(message)
	for sock, id := range r.conns {
		if id == playerID {
			continue
		}
		sock.Send(frame)
	}
}

func (r *Room) sendError(sock Socket, playerID, code, detail string) {
	if sock == nil {
		r.log.Warn().Str("player", playerID).Str("code", code).Str("detail", detail).Msg("bot move rejected")
		return
	}
	sock.Send(ErrorFrame(code, detail))
}

func (r *Room) displayName(playerID string) string {
	if seat := r.state.seat(playerID); seat != nil {
		return seat.DisplayName
	}
	return playerID
}

func (r *Room) persist() error {
	raw, err := r.state.encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.store.SaveRoom(ctx, r.id, raw); err != nil {
		r.log.Error().Err(err).Msg("persist room")
		return err
	}
	return nil
}

// cryptoSeed draws a deal seed from the OS entropy pool.
func cryptoSeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

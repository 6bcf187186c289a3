package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// frameIdleTimeout bounds how long a client waits between server frames
// before declaring the game stuck.
const frameIdleTimeout = 30 * time.Second

// Orchestrator drives a table of scripted clients through one full game on a
// live server: login, create a room, join over WebSocket, ready up, start,
// then every client answers the STATE frames addressed to it until the room
// reports finished. Server-side bot seats can fill the rest of the table.
type Orchestrator struct {
	baseURL  string
	botToken string
	players  int
	bots     int
	mode     string
	deckSize int
	clients  []*Client
}

// NewOrchestrator creates an Orchestrator running `players` scripted clients
// plus `bots` server-side bot seats.
func NewOrchestrator(baseURL, botToken string, players, bots int, mode string, deckSize int) *Orchestrator {
	return &Orchestrator{
		baseURL:  baseURL,
		botToken: botToken,
		players:  players,
		bots:     bots,
		mode:     mode,
		deckSize: deckSize,
	}
}

// Run executes one full game and returns once the room finishes.
func (o *Orchestrator) Run(ctx context.Context) error {
	total := o.players + o.bots
	if o.players < 1 || total < 2 || total > 4 {
		return fmt.Errorf("bad table: %d clients plus %d server bots", o.players, o.bots)
	}

	log.Info().Int("clients", o.players).Int("serverBots", o.bots).
		Str("mode", o.mode).Int("deckSize", o.deckSize).Msg("Starting scripted game")

	for i := 1; i <= o.players; i++ {
		c := NewClient(fmt.Sprintf("Scripted%d", i), o.baseURL, o.botToken)
		if err := c.Login(); err != nil {
			return fmt.Errorf("login %s: %w", c.Name(), err)
		}
		o.clients = append(o.clients, c)
	}

	host := o.clients[0]
	roomID, err := host.CreateRoom(o.mode, o.deckSize, total, o.bots)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("roomId", roomID).Msg("Room created")

	for _, c := range o.clients {
		if err := c.ConnectWS(roomID); err != nil {
			return fmt.Errorf("ws connect %s: %w", c.Name(), err)
		}
	}
	defer func() {
		for _, c := range o.clients {
			c.CloseWS()
		}
	}()

	for _, c := range o.clients {
		if err := c.SendReady(true); err != nil {
			return fmt.Errorf("ready %s: %w", c.Name(), err)
		}
	}

	// One loop per client. The host additionally fires START once it sees
	// the full table ready.
	errc := make(chan error, len(o.clients))
	for i, c := range o.clients {
		go func(c *Client, isHost bool) {
			errc <- o.playLoop(ctx, c, isHost, total)
		}(c, i == 0)
	}
	for range o.clients {
		if err := <-errc; err != nil {
			return err
		}
	}
	log.Info().Msg("Game finished")
	return nil
}

// playLoop answers server frames for one client until the room finishes.
// Moves race each other across clients; a move rejected because somebody
// else acted first resolves itself on the next STATE broadcast.
func (o *Orchestrator) playLoop(ctx context.Context, c *Client, isHost bool, total int) error {
	started := false
	idle := time.NewTimer(frameIdleTimeout)
	defer idle.Stop()

	for {
		idle.Reset(frameIdleTimeout)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle.C:
			return fmt.Errorf("%s: no frame for %s", c.Name(), frameIdleTimeout)
		case frame, ok := <-c.Frames():
			if !ok {
				return fmt.Errorf("%s: connection closed before the game finished", c.Name())
			}
			switch frame.Type {
			case "ERROR":
				log.Debug().Str("bot", c.Name()).Str("code", frame.Code).
					Str("detail", frame.Detail).Msg("Server rejected a frame")
			case "STATE":
				if frame.State == nil {
					continue
				}
				if frame.State.Phase == "finished" {
					if isHost {
						o.logResult(frame.State)
					}
					return nil
				}
				if isHost && !started && tableReady(frame.State, total) {
					if err := c.SendStart(); err != nil {
						return fmt.Errorf("start: %w", err)
					}
					started = true
					continue
				}
				if frame.State.Game == nil || frame.State.Game.Loser != nil {
					continue
				}
				if mv, ok := ChooseFromView(frame.State.Game); ok {
					if err := c.SendMove(mv); err != nil {
						return fmt.Errorf("%s: send %s: %w", c.Name(), mv.Kind, err)
					}
				}
			}
		}
	}
}

func (o *Orchestrator) logResult(v *RoomView) {
	if v.Game == nil || v.Game.Loser == nil {
		log.Info().Msg("Game drawn")
		return
	}
	loser := *v.Game.Loser
	for _, p := range v.Players {
		if p.ID == loser && p.DisplayName != "" {
			loser = p.DisplayName
			break
		}
	}
	log.Info().Str("loser", loser).Msg("Durak decided")
}

// tableReady reports whether every expected seat is taken and ready.
func tableReady(v *RoomView, total int) bool {
	if len(v.Players) != total {
		return false
	}
	for _, p := range v.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/pkg/durak"
)

// ServerFrame mirrors the room server frames for client-side deserialization.
type ServerFrame struct {
	Type    string    `json:"type"`
	State   *RoomView `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	Code    string    `json:"code,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// RoomView mirrors the STATE payload fields a scripted client acts on.
type RoomView struct {
	RoomID  string       `json:"roomId"`
	Phase   string       `json:"phase"`
	HostID  string       `json:"hostId"`
	Players []PlayerView `json:"players"`
	Game    *GameView    `json:"game"`
}

// PlayerView is one seat in the client's view.
type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Ready       bool   `json:"ready"`
	IsBot       bool   `json:"isBot"`
}

// GameView is the private game view the server sends this client.
type GameView struct {
	Table        []durak.TablePair `json:"table"`
	TrumpSuit    durak.Suit        `json:"trumpSuit"`
	AttackerID   string            `json:"attackerId"`
	DefenderID   string            `json:"defenderId"`
	TakeDeclared bool              `json:"takeDeclared"`
	Loser        *string           `json:"loser"`
	YourHand     []durak.Card      `json:"yourHand"`
	Allowed      durak.Allowed     `json:"allowed"`
}

// Client is an HTTP+WebSocket client for one scripted player. It signs its
// own Telegram init data, so it only works against a server that shares its
// bot token.
type Client struct {
	name     string
	baseURL  string
	botToken string
	token    string
	playerID string
	wsConn   *websocket.Conn
	frames   chan ServerFrame
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a bot client targeting the given server URL.
func NewClient(name, baseURL, botToken string) *Client {
	return &Client{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		frames:   make(chan ServerFrame, 64),
		httpC:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the bot name.
func (c *Client) Name() string { return c.name }

// PlayerID returns the bot's player id after login.
func (c *Client) PlayerID() string { return c.playerID }

// Login signs init data for a synthetic Telegram user derived from the bot
// name and exchanges it for a session token.
func (c *Client) Login() error {
	h := fnv.New64a()
	h.Write([]byte(c.name))
	user := auth.TelegramUser{
		ID:        int64(h.Sum64()&0x7fffffff) + 1,
		FirstName: c.name,
		Username:  strings.ToLower(c.name),
	}
	initData := auth.SignInitData(c.botToken, user, time.Now())

	resp, err := c.postJSON("/api/auth/telegram", map[string]string{"initData": initData})
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	token, _ := resp["sessionToken"].(string)
	if token == "" {
		return fmt.Errorf("no session token in login response")
	}
	c.token = token
	if u, ok := resp["user"].(map[string]any); ok {
		c.playerID, _ = u["id"].(string)
	}
	log.Debug().Str("bot", c.name).Str("playerId", c.playerID).Msg("bot logged in")
	return nil
}

// CreateRoom creates a private room and returns its id.
func (c *Client) CreateRoom(mode string, deckSize, maxPlayers, bots int) (string, error) {
	body := map[string]any{
		"config": map[string]any{"mode": mode, "deckSize": deckSize, "maxPlayers": maxPlayers},
		"bots":   bots,
	}
	resp, err := c.postJSON("/api/room/create", body)
	if err != nil {
		return "", err
	}
	id, _ := resp["roomId"].(string)
	return id, nil
}

// QuickMatch enters the matchmaking queue. It returns the room id when
// matched, or "" while still queued.
func (c *Client) QuickMatch(mode string, deckSize, maxPlayers int) (string, error) {
	body := map[string]any{"mode": mode, "deckSize": deckSize, "maxPlayers": maxPlayers}
	resp, err := c.postJSON("/api/matchmaking", body)
	if err != nil {
		return "", err
	}
	if status, _ := resp["status"].(string); status != "matched" {
		return "", nil
	}
	id, _ := resp["roomId"].(string)
	return id, nil
}

// CancelMatch leaves the matchmaking queue.
func (c *Client) CancelMatch() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/matchmaking", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("DELETE /api/matchmaking: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// ConnectWS opens the room socket, sends JOIN and starts the read loop.
func (c *Client) ConnectWS(roomID string) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws/" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn
	if err := c.writeJSON(map[string]string{"type": "JOIN", "sessionToken": c.token}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	go c.readWSLoop()
	return nil
}

// Frames returns the channel of incoming server frames.
func (c *Client) Frames() <-chan ServerFrame { return c.frames }

// SendReady toggles the lobby ready flag.
func (c *Client) SendReady(ready bool) error {
	return c.writeJSON(map[string]any{"type": "READY", "ready": ready})
}

// SendStart asks the server to deal. Only the host may do this.
func (c *Client) SendStart() error {
	return c.writeJSON(map[string]string{"type": "START"})
}

// SendMove translates an engine move into its wire frame.
func (c *Client) SendMove(mv durak.Move) error {
	switch mv.Kind {
	case durak.MoveAttack:
		return c.writeJSON(map[string]any{"type": "ATTACK", "card": mv.Card.String()})
	case durak.MoveDefend:
		return c.writeJSON(map[string]any{"type": "DEFEND", "card": mv.Card.String(), "attackIndex": mv.AttackIndex})
	case durak.MoveTransfer:
		return c.writeJSON(map[string]any{"type": "TRANSFER", "card": mv.Card.String()})
	case durak.MoveTake:
		return c.writeJSON(map[string]string{"type": "TAKE"})
	case durak.MoveBeat:
		return c.writeJSON(map[string]string{"type": "BEAT"})
	case durak.MovePass:
		return c.writeJSON(map[string]string{"type": "PASS"})
	default:
		return fmt.Errorf("unknown move kind %q", mv.Kind)
	}
}

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.frames)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			if !c.closedWS {
				log.Debug().Err(err).Str("bot", c.name).Msg("ws read error")
			}
			return
		}
		var frame ServerFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		c.frames <- frame
	}
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn == nil {
		return fmt.Errorf("ws not connected")
	}
	return c.wsConn.WriteJSON(v)
}

func (c *Client) postJSON(path string, payload any) (map[string]any, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpC.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// ChooseFromView picks a move using only the private view the server sends,
// with the same cheapest-card policy as GreedyStrategy. It never needs the
// full game state, so it stays honest over the wire.
func ChooseFromView(g *GameView) (durak.Move, bool) {
	trump := g.TrumpSuit

	if g.Allowed.Beat {
		return durak.Move{Kind: durak.MoveBeat}, true
	}
	var defend, transfer durak.Move
	defendCost, transferCost := -1, -1
	if g.Allowed.Defend {
		for i, p := range g.Table {
			if p.Defended() {
				continue
			}
			for _, c := range g.YourHand {
				if !durak.Beats(c, p.Attack, trump) {
					continue
				}
				if cost := cardCost(c, trump); defendCost < 0 || cost < defendCost {
					defendCost = cost
					defend = durak.Move{Kind: durak.MoveDefend, Card: c, AttackIndex: i}
				}
			}
		}
	}
	if g.Allowed.Transfer {
		for _, c := range g.YourHand {
			for _, p := range g.Table {
				if c.Rank != p.Attack.Rank {
					continue
				}
				if cost := cardCost(c, trump); transferCost < 0 || cost < transferCost {
					transferCost = cost
					transfer = durak.Move{Kind: durak.MoveTransfer, Card: c}
				}
			}
		}
	}
	// Cover with the cheapest card, or slide the attack over when that is
	// cheaper, same as the engine-side greedy.
	if defendCost >= 0 {
		if transferCost >= 0 && transferCost < defendCost {
			return transfer, true
		}
		return defend, true
	}
	if transferCost >= 0 {
		return transfer, true
	}
	if g.Allowed.Take {
		return durak.Move{Kind: durak.MoveTake}, true
	}

	if g.Allowed.Attack {
		ranks := make(map[durak.Rank]bool, len(g.Table)*2)
		for _, p := range g.Table {
			ranks[p.Attack.Rank] = true
			if p.Defend != nil {
				ranks[p.Defend.Rank] = true
			}
		}
		bestCost := -1
		var best durak.Move
		for _, c := range g.YourHand {
			if len(g.Table) > 0 && !ranks[c.Rank] {
				continue
			}
			if cost := cardCost(c, trump); bestCost < 0 || cost < bestCost {
				bestCost = cost
				best = durak.Move{Kind: durak.MoveAttack, Card: c}
			}
		}
		if bestCost >= 0 && (len(g.Table) == 0 || best.Card.Suit != trump) {
			return best, true
		}
	}
	if g.Allowed.Pass {
		return durak.Move{Kind: durak.MovePass}, true
	}
	return durak.Move{}, false
}

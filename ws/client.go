package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"word-memory-server/auth"
	"word-memory-server/game"
	"word-memory-server/matcherrors"
	"word-memory-server/metrics"
	"word-memory-server/rng"
	"word-memory-server/score"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	ledgerTimeout = 5 * time.Second
	topOnGameOver = 10
)

// session is the game a client is currently playing.
type session struct {
	id   string
	name string
	game *game.Game
}

// Client is a middleman between the websocket connection and the hub. It owns at
// most one session; mu serializes the read loop and the auto-resolve timer.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	mu       sync.Mutex
	name     string // from auth, used when start carries no name
	session  *session
	revealTo *time.Timer
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		// Record off the hub goroutine; the ledger may be slow.
		c.abandon("disconnect")
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.", matcherrors.KindProtocol)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "start":
		c.handleStart(envelope.Raw)
	case "flip":
		c.handleFlip(envelope.Raw)
	case "resolve":
		c.handleResolve()
	case "quit":
		c.handleQuit()
	default:
		c.sendError("Unknown message type: "+envelope.Type, matcherrors.KindProtocol)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	if c.Hub.Verifier == nil {
		c.sendError("Authentication is not configured.", matcherrors.KindAuth)
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.", matcherrors.KindProtocol)
		return
	}
	claims, err := c.Hub.Verifier.Validate(msg.Token)
	if err != nil {
		slog.Info("token rejected", "tag", "ws", "err", err)
		c.sendError("Invalid or expired token.", matcherrors.KindAuth)
		return
	}
	c.name = score.DisplayName(auth.DisplayNameFromClaims(claims, c.Hub.Config.MaxNameLength), c.Hub.Config.MaxNameLength)
	c.send(AuthOKMsg{Type: "auth_ok", Name: c.name})
}

func (c *Client) handleStart(raw json.RawMessage) {
	var msg StartMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start message.", matcherrors.KindProtocol)
		return
	}

	src := rng.NewRandom()
	if msg.Seed != nil {
		if *msg.Seed < 0 {
			c.sendError("Seed must not be negative.", matcherrors.KindInput)
			return
		}
		src = rng.New(*msg.Seed)
	}

	g, err := game.Setup(c.Hub.Config, msg.Difficulty, c.Hub.Pool, src)
	if err != nil {
		c.sendErr(err)
		return
	}

	// A new start replaces the running session.
	c.abandonLocked("restart")

	name := msg.Name
	if name == "" {
		name = c.name
	}
	c.session = &session{
		id:   uuid.NewString(),
		name: score.DisplayName(name, c.Hub.Config.MaxNameLength),
		game: g,
	}
	metrics.SessionsStarted.WithLabelValues(g.Difficulty()).Inc()
	slog.Info("session started", "tag", "ws", "session", c.session.id, "difficulty", g.Difficulty(), "seed", g.Seed())
	c.sendState()
}

func (c *Client) handleFlip(raw json.RawMessage) {
	if c.session == nil {
		c.sendErr(matcherrors.ErrGameNotStarted)
		return
	}
	var msg FlipMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid flip message.", matcherrors.KindProtocol)
		return
	}

	g := c.session.game
	pos, err := g.Board().ParsePosition(msg.Coord)
	if err != nil {
		c.sendErr(err)
		return
	}
	if err := g.Flip(pos.Row, pos.Col); err != nil {
		c.sendErr(err)
		return
	}
	c.sendState()

	if g.State() == game.Resolving && c.Hub.Config.AutoResolve {
		c.scheduleResolve(c.session.id)
	}
}

// scheduleResolve resolves the face-up pair after the reveal delay unless the
// client resolves first or the session changes.
func (c *Client) scheduleResolve(sessionID string) {
	c.stopTimer()
	delay := time.Duration(c.Hub.Config.RevealDurationMS) * time.Millisecond
	c.revealTo = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session == nil || c.session.id != sessionID || c.session.game.State() != game.Resolving {
			return
		}
		c.resolve()
	})
}

func (c *Client) stopTimer() {
	if c.revealTo != nil {
		c.revealTo.Stop()
		c.revealTo = nil
	}
}

func (c *Client) handleResolve() {
	if c.session == nil {
		c.sendErr(matcherrors.ErrGameNotStarted)
		return
	}
	c.resolve()
}

func (c *Client) resolve() {
	c.stopTimer()
	g := c.session.game
	res, err := g.Resolve()
	if err != nil {
		c.sendErr(err)
		return
	}
	metrics.Resolves.WithLabelValues(metrics.ResolveOutcome(res.Matched)).Inc()
	c.send(ResolvedMsg{
		Type:    "resolved",
		Matched: res.Matched,
		First:   res.First.String(),
		Second:  res.Second.String(),
		Moves:   g.Moves(),
	})
	c.sendState()

	if g.IsFinished() {
		c.finish()
	}
}

// finish records the completed session and reports its placement.
func (c *Client) finish() {
	s := c.session
	c.session = nil
	metrics.SessionsEnded.WithLabelValues(s.game.Difficulty(), "finished").Inc()

	rec, saved := c.record(s, true)
	over := c.gameOver(s, rec, saved)

	if saved {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
		defer cancel()
		ranked, err := c.Hub.Ledger.TopByDifficulty(ctx, rec.Difficulty, 0)
		if err != nil {
			slog.Error("ranking failed", "tag", "ws", "err", err)
		} else {
			over.Placement = score.Placement(ranked, rec.GameID)
			over.Top = ranked[:min(len(ranked), topOnGameOver)]
		}
	}
	slog.Info("session finished", "tag", "ws", "session", s.id, "moves", rec.Moves, "time", rec.Time, "placement", over.Placement)
	c.send(over)
}

func (c *Client) handleQuit() {
	if c.session == nil {
		c.sendErr(matcherrors.ErrGameNotStarted)
		return
	}
	s := c.session
	c.stopTimer()
	c.session = nil
	metrics.SessionsEnded.WithLabelValues(s.game.Difficulty(), "abandoned").Inc()

	rec, saved := c.record(s, false)
	c.send(c.gameOver(s, rec, saved))
}

// abandon drops the running session, recording it if a card was flipped.
func (c *Client) abandon(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked(reason)
}

func (c *Client) abandonLocked(reason string) {
	c.stopTimer()
	s := c.session
	if s == nil {
		return
	}
	c.session = nil
	if s.game.IsFinished() {
		return
	}
	metrics.SessionsEnded.WithLabelValues(s.game.Difficulty(), "abandoned").Inc()
	slog.Info("session abandoned", "tag", "ws", "session", s.id, "reason", reason)
	if s.game.Started() {
		c.record(s, false)
	}
}

// record appends the session result to the ledger. A ledger failure is logged and
// reported to the client but never ends the connection.
func (c *Client) record(s *session, finished bool) (score.Record, bool) {
	rec := score.NewRecord(score.Result{
		UserName:   s.name,
		Moves:      s.game.Moves(),
		Elapsed:    s.game.Elapsed(),
		Difficulty: s.game.Difficulty(),
		Finished:   finished,
		Seed:       s.game.Seed(),
	}, c.Hub.Now())
	rec.GameID = s.id

	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	if err := c.Hub.Ledger.Append(ctx, rec); err != nil {
		slog.Error("score not saved", "tag", "ws", "session", s.id, "err", err)
		c.sendErr(err)
		return rec, false
	}
	return rec, true
}

func (c *Client) gameOver(s *session, rec score.Record, saved bool) GameOverMsg {
	return GameOverMsg{
		Type:       "game_over",
		GameID:     s.id,
		Finished:   rec.Finished,
		Difficulty: rec.Difficulty,
		Seed:       rec.Seed,
		Moves:      rec.Moves,
		TimeSec:    rec.Time,
		UserName:   rec.UserName,
		Saved:      saved,
	}
}

func (c *Client) sendState() {
	if c.session == nil {
		return
	}
	c.send(c.session.game.BuildState(c.session.id))
}

func (c *Client) sendErr(err error) {
	kind := matcherrors.KindOf(err)
	msg := err.Error()
	if errors.Is(err, matcherrors.ErrInternal) {
		slog.Error("engine invariant violated", "tag", "ws", "err", err)
		msg = "Internal error."
	}
	c.sendError(msg, kind)
}

func (c *Client) sendError(message, kind string) {
	c.send(ErrorMsg{Type: "error", Message: message, Kind: kind})
}

func (c *Client) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal failed", "tag", "ws", "err", err)
		return
	}
	safeSend(c.Send, data)
}

// safeSend sends data to a channel without panicking if the channel is closed.
// If the channel is full or closed, the send is skipped.
func safeSend(ch chan []byte, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("send on closed channel", "tag", "ws", "panic", r)
		}
	}()
	select {
	case ch <- data:
	default:
	}
}

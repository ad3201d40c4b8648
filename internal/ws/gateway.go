// internal/ws/gateway.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wordclash/server/internal/auth"
	"github.com/wordclash/server/internal/game"
)

const writeTimeout = 5 * time.Second

// connection is one persistent client connection and the identity attached
// to it after a successful create or join.
type connection struct {
	ws      *websocket.Conn
	writeMu sync.Mutex // Serializes concurrent writes from broadcast/unicast.

	mu       sync.Mutex // Guards the identity fields below.
	userID   uuid.UUID
	roomID   uuid.UUID
	username string
	attached bool
}

// identity returns a snapshot of the connection's attached identity.
func (c *connection) identity() (userID, roomID uuid.UUID, attached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.roomID, c.attached
}

// attach binds a (user, room) identity to the connection.
func (c *connection) attach(userID, roomID uuid.UUID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.roomID = roomID
	c.username = username
	c.attached = true
}

// detach clears the room binding after an explicit leave.
func (c *connection) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = uuid.Nil
	c.attached = false
}

// send writes one event to the connection. Write failures just log; the read
// loop notices the broken transport and runs disconnect handling.
func (c *connection) send(ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Warnf("failed marshaling %s event", ev.Type)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		logrus.WithError(err).Debug("websocket write failed")
	}
}

// Gateway terminates client connections, correlates each with a
// (room, player) identity, and gives the engine its two delivery
// primitives: room broadcast and single-player unicast.
type Gateway struct {
	engine    *game.Engine
	jwtSecret string
	log       *logrus.Entry

	mu     sync.RWMutex
	byRoom map[uuid.UUID]map[*connection]struct{}
	byUser map[uuid.UUID]*connection
}

// NewGateway wires a gateway to the engine and installs the delivery
// callbacks.
func NewGateway(engine *game.Engine, jwtSecret string) *Gateway {
	g := &Gateway{
		engine:    engine,
		jwtSecret: jwtSecret,
		log:       logrus.WithField("component", "gateway"),
		byRoom:    make(map[uuid.UUID]map[*connection]struct{}),
		byUser:    make(map[uuid.UUID]*connection),
	}
	engine.BroadcastFn = g.Broadcast
	engine.UnicastFn = g.UnicastToUser
	return g
}

// Broadcast delivers an event to every open connection attached to a room.
// The connection set is snapshotted under the lock; writes happen outside it.
func (g *Gateway) Broadcast(roomID uuid.UUID, ev game.Event) {
	g.mu.RLock()
	conns := make([]*connection, 0, len(g.byRoom[roomID]))
	for c := range g.byRoom[roomID] {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		c.send(ev)
	}
}

// UnicastToUser delivers an event to one player's connection, if open.
func (g *Gateway) UnicastToUser(userID uuid.UUID, ev game.Event) {
	g.mu.RLock()
	c := g.byUser[userID]
	g.mu.RUnlock()
	if c != nil {
		c.send(ev)
	}
}

// register indexes a connection under its attached identity.
func (g *Gateway) register(c *connection, userID, roomID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.byRoom[roomID]
	if !ok {
		room = make(map[*connection]struct{})
		g.byRoom[roomID] = room
	}
	room[c] = struct{}{}
	g.byUser[userID] = c
}

// unregister removes a connection from the indexes.
func (g *Gateway) unregister(c *connection) {
	userID, roomID, attached := c.identity()
	if !attached && userID == uuid.Nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.byRoom[roomID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(g.byRoom, roomID)
		}
	}
	if g.byUser[userID] == c {
		delete(g.byUser, userID)
	}
}

// HandleWS upgrades the HTTP request and runs the connection's read loop
// until the transport closes.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Browser clients connect cross-origin in development.
	})
	if err != nil {
		g.log.WithError(err).Debug("websocket accept failed")
		return
	}

	c := &connection{ws: conn}

	// Optional signed identity token binds a stable user id up front.
	if token := r.URL.Query().Get("token"); token != "" {
		if id, err := auth.ParseIdentity(token, g.jwtSecret); err == nil {
			c.mu.Lock()
			c.userID = id.UserID
			c.username = id.Username
			c.mu.Unlock()
		} else {
			g.log.Debug("ignoring invalid identity token")
		}
	}

	g.readLoop(r.Context(), c)
}

// isCurrent reports whether c is still the connection indexed for userID.
// A reconnecting client opens a fresh socket that supersedes the old one in
// the index before the old socket's read loop notices the close.
func (g *Gateway) isCurrent(userID uuid.UUID, c *connection) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.byUser[userID] == c
}

// teardown runs when a connection's read loop exits. Transport loss is only
// routed into the engine when this socket is still the user's current one:
// a stale socket closing after its replacement registered must not mark the
// live session disconnected.
func (g *Gateway) teardown(c *connection) {
	userID, roomID, attached := c.identity()
	current := g.isCurrent(userID, c)
	g.unregister(c)
	if attached && current {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		g.engine.HandleDisconnect(dctx, roomID, userID)
		cancel()
	}
	if c.ws != nil {
		c.ws.Close(websocket.StatusNormalClosure, "")
	}
}

// readLoop processes inbound frames in arrival order until the connection
// drops, then routes the transport loss through the engine.
func (g *Gateway) readLoop(ctx context.Context, c *connection) {
	defer g.teardown(c)

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.send(game.Event{Type: game.EventError, Payload: map[string]interface{}{
				"code":    game.CodeValidation,
				"message": "malformed message",
			}})
			continue
		}
		g.dispatch(ctx, c, env)
	}
}

// dispatch routes one decoded command to the engine. Engine failures come
// back as unicast error events; the connection always stays open.
func (g *Gateway) dispatch(ctx context.Context, c *connection, env Envelope) {
	var err error
	switch env.Type {
	case CmdCreateRoom:
		err = g.handleCreateRoom(ctx, c, env.Payload)
	case CmdJoinRoom:
		err = g.handleJoinRoom(ctx, c, env.Payload)
	case CmdLeaveRoom:
		err = g.handleLeaveRoom(ctx, c)
	case CmdStartGame:
		err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
			return g.engine.StartGame(ctx, roomID, userID)
		})
	case CmdSubmitAnswer:
		var p submitAnswerPayload
		if err = decode(env.Payload, &p); err == nil {
			err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
				return g.engine.SubmitAnswer(ctx, roomID, userID, p.Answer)
			})
		}
	case CmdSkipWord:
		err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
			return g.engine.SkipWord(ctx, roomID, userID)
		})
	case CmdUseHint:
		var p useHintPayload
		if err = decode(env.Payload, &p); err == nil {
			err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
				return g.engine.UseHint(ctx, roomID, userID, p.HintType)
			})
		}
	case CmdPlayerReady:
		var p playerReadyPayload
		if err = decode(env.Payload, &p); err == nil {
			err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
				return g.engine.PlayerReady(ctx, roomID, userID, p.IsReady)
			})
		}
	case CmdUpdateSettings:
		var p updateSettingsPayload
		if err = decode(env.Payload, &p); err == nil {
			err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
				return g.engine.UpdateSettings(ctx, roomID, userID, p.Settings)
			})
		}
	case CmdRestartGame:
		err = g.withRoom(c, func(userID, roomID uuid.UUID) error {
			return g.engine.RestartGame(ctx, roomID, userID)
		})
	default:
		c.send(game.Event{Type: game.EventError, Payload: map[string]interface{}{
			"code":    game.CodeValidation,
			"message": "unknown command type",
		}})
		return
	}

	if err != nil {
		c.send(game.ErrorEvent(err))
	}
}

// decode unmarshals a command payload, mapping failures onto the
// validation error taxonomy.
func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return &game.EngineError{Code: game.CodeValidation, Message: "missing payload"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &game.EngineError{Code: game.CodeValidation, Message: "malformed payload"}
	}
	return nil
}

// withRoom runs fn with the connection's attached identity, rejecting
// commands from connections that never joined a room.
func (g *Gateway) withRoom(c *connection, fn func(userID, roomID uuid.UUID) error) error {
	userID, roomID, attached := c.identity()
	if !attached {
		return &game.EngineError{Code: game.CodeState, Message: "join a room first"}
	}
	return fn(userID, roomID)
}

// resolveUserID picks the connection's identity: token-bound id first, then
// a payload-provided id, then a freshly minted one.
func (c *connection) resolveUserID(payloadID string) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != uuid.Nil {
		return c.userID
	}
	if id, err := uuid.Parse(payloadID); err == nil && id != uuid.Nil {
		c.userID = id
		return id
	}
	c.userID = uuid.New()
	return c.userID
}

func (g *Gateway) handleCreateRoom(ctx context.Context, c *connection, raw json.RawMessage) error {
	var p createRoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if _, _, attached := c.identity(); attached {
		return &game.EngineError{Code: game.CodeState, Message: "already in a room"}
	}
	userID := c.resolveUserID(p.UserID)
	username := c.effectiveUsername(p.Username)

	res, err := g.engine.CreateRoom(ctx, userID, username, p.Mode, p.Difficulty, p.Settings)
	if err != nil {
		return err
	}
	c.attach(userID, res.Room.ID, username)
	g.register(c, userID, res.Room.ID)
	c.send(game.Event{Type: game.EventRoomCreated, Payload: map[string]interface{}{
		"room":    res.Room,
		"players": res.Players,
	}})
	return nil
}

func (g *Gateway) handleJoinRoom(ctx context.Context, c *connection, raw json.RawMessage) error {
	var p joinRoomPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	// A connection carries at most one room binding; switching rooms requires
	// an explicit leave so the old session gets its departure handling.
	if _, _, attached := c.identity(); attached {
		return &game.EngineError{Code: game.CodeState, Message: "already in a room"}
	}
	userID := c.resolveUserID(p.UserID)
	username := c.effectiveUsername(p.Username)

	res, err := g.engine.JoinRoom(ctx, p.RoomCode, userID, username)
	if err != nil {
		return err
	}
	c.attach(userID, res.Room.ID, res.Session.Username)
	g.register(c, userID, res.Room.ID)
	c.send(game.Event{Type: game.EventRoomJoined, Payload: map[string]interface{}{
		"room":        res.Room,
		"players":     res.Players,
		"reconnected": res.Reconnected,
	}})
	return nil
}

func (g *Gateway) handleLeaveRoom(ctx context.Context, c *connection) error {
	userID, roomID, attached := c.identity()
	if !attached {
		return &game.EngineError{Code: game.CodeState, Message: "not in a room"}
	}
	err := g.engine.LeaveRoom(ctx, roomID, userID)
	g.unregister(c)
	c.detach()
	return err
}

// effectiveUsername prefers the token-bound name over the payload one.
func (c *connection) effectiveUsername(payloadName string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.username != "" {
		return c.username
	}
	c.username = payloadName
	return payloadName
}

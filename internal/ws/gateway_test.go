// internal/ws/gateway_test.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordclash/server/internal/content"
	"github.com/wordclash/server/internal/game"
	"github.com/wordclash/server/internal/models"
	"github.com/wordclash/server/internal/store"
)

func newTestGateway() (*Gateway, *store.MemoryStore) {
	st := store.NewMemoryStore()
	e := game.NewEngine(game.DefaultConfig(), st, content.NewBank(1))
	return NewGateway(e, "test-secret"), st
}

func TestEnvelopeDecode(t *testing.T) {
	var env Envelope
	err := json.Unmarshal([]byte(`{"type":"submit_answer","payload":{"answer":"rhythm"}}`), &env)
	require.NoError(t, err)
	assert.Equal(t, CmdSubmitAnswer, env.Type)

	var p submitAnswerPayload
	require.NoError(t, decode(env.Payload, &p))
	assert.Equal(t, "rhythm", p.Answer)
}

func TestDecodeFailures(t *testing.T) {
	var p submitAnswerPayload

	err := decode(nil, &p)
	var ee *game.EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, game.CodeValidation, ee.Code)

	err = decode(json.RawMessage(`{"answer":`), &p)
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, game.CodeValidation, ee.Code)
}

func TestConnectionIdentity(t *testing.T) {
	c := &connection{}

	_, _, attached := c.identity()
	assert.False(t, attached)

	userID, roomID := uuid.New(), uuid.New()
	c.attach(userID, roomID, "alice")
	gotUser, gotRoom, attached := c.identity()
	assert.True(t, attached)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, roomID, gotRoom)

	c.detach()
	gotUser, gotRoom, attached = c.identity()
	assert.False(t, attached)
	assert.Equal(t, uuid.Nil, gotRoom)
	assert.Equal(t, userID, gotUser, "the user identity outlives the room binding")
}

func TestResolveUserID(t *testing.T) {
	// A token-bound id wins over everything.
	bound := uuid.New()
	c := &connection{userID: bound}
	assert.Equal(t, bound, c.resolveUserID(uuid.New().String()))

	// A payload id sticks for the connection's lifetime.
	fromPayload := uuid.New()
	c = &connection{}
	assert.Equal(t, fromPayload, c.resolveUserID(fromPayload.String()))
	assert.Equal(t, fromPayload, c.resolveUserID(uuid.New().String()))

	// With neither, a fresh id is minted once.
	c = &connection{}
	minted := c.resolveUserID("")
	assert.NotEqual(t, uuid.Nil, minted)
	assert.Equal(t, minted, c.resolveUserID(""))
}

func TestEffectiveUsername(t *testing.T) {
	c := &connection{username: "token-name"}
	assert.Equal(t, "token-name", c.effectiveUsername("payload-name"))

	c = &connection{}
	assert.Equal(t, "payload-name", c.effectiveUsername("payload-name"))
	assert.Equal(t, "payload-name", c.effectiveUsername("other"))
}

func TestWithRoomRequiresAttachment(t *testing.T) {
	g, _ := newTestGateway()
	c := &connection{}

	err := g.withRoom(c, func(uuid.UUID, uuid.UUID) error { return nil })
	var ee *game.EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, game.CodeState, ee.Code)

	c.attach(uuid.New(), uuid.New(), "alice")
	called := false
	require.NoError(t, g.withRoom(c, func(uuid.UUID, uuid.UUID) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestGatewayRegistration(t *testing.T) {
	g, _ := newTestGateway()
	userID, roomID := uuid.New(), uuid.New()
	c := &connection{}
	c.attach(userID, roomID, "alice")

	g.register(c, userID, roomID)
	g.mu.RLock()
	assert.Contains(t, g.byRoom[roomID], c)
	assert.Same(t, c, g.byUser[userID])
	g.mu.RUnlock()

	g.unregister(c)
	g.mu.RLock()
	assert.Empty(t, g.byRoom[roomID])
	assert.NotContains(t, g.byUser, userID)
	g.mu.RUnlock()
}

func TestStaleSocketTeardownKeepsLiveSession(t *testing.T) {
	g, st := newTestGateway()
	ctx := context.Background()

	userID := uuid.New()
	res, err := g.engine.CreateRoom(ctx, userID, "alice", models.ModeSpelling, models.DifficultyEasy, models.RoomSettings{})
	require.NoError(t, err)
	roomID := res.Room.ID

	old := &connection{}
	old.attach(userID, roomID, "alice")
	g.register(old, userID, roomID)

	// The replacement socket registers before the old one finishes closing.
	fresh := &connection{}
	fresh.attach(userID, roomID, "alice")
	g.register(fresh, userID, roomID)

	g.teardown(old)

	session, err := st.GetSession(ctx, roomID, userID)
	require.NoError(t, err)
	assert.True(t, session.IsConnected, "a superseded socket must not disconnect the live session")
	g.mu.RLock()
	assert.Same(t, fresh, g.byUser[userID])
	g.mu.RUnlock()

	// The current socket closing still routes the transport loss.
	g.teardown(fresh)
	session, err = st.GetSession(ctx, roomID, userID)
	require.NoError(t, err)
	assert.False(t, session.IsConnected)
}

func TestJoinRoomWhileAttached(t *testing.T) {
	g, st := newTestGateway()
	ctx := context.Background()

	resA, err := g.engine.CreateRoom(ctx, uuid.New(), "hostA", models.ModeSpelling, models.DifficultyEasy, models.RoomSettings{})
	require.NoError(t, err)
	resB, err := g.engine.CreateRoom(ctx, uuid.New(), "hostB", models.ModeSpelling, models.DifficultyEasy, models.RoomSettings{})
	require.NoError(t, err)

	aliceID := uuid.New()
	_, err = g.engine.JoinRoom(ctx, resA.Room.Code, aliceID, "alice")
	require.NoError(t, err)

	c := &connection{}
	c.attach(aliceID, resA.Room.ID, "alice")
	g.register(c, aliceID, resA.Room.ID)

	raw, err := json.Marshal(joinRoomPayload{RoomCode: resB.Room.Code, Username: "alice"})
	require.NoError(t, err)
	err = g.handleJoinRoom(ctx, c, raw)
	var ee *game.EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, game.CodeState, ee.Code)

	// Still bound to the first room; no ghost session in the second.
	_, gotRoom, attached := c.identity()
	assert.True(t, attached)
	assert.Equal(t, resA.Room.ID, gotRoom)
	_, err = st.GetSession(ctx, resB.Room.ID, aliceID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

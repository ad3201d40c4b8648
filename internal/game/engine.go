// internal/game/engine.go
package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wordclash/server/internal/cache"
	"github.com/wordclash/server/internal/content"
	"github.com/wordclash/server/internal/models"
	"github.com/wordclash/server/internal/store"
)

// Config holds the engine's tunable durations and limits.
type Config struct {
	MatchDuration       time.Duration // Fixed global match clock.
	TickInterval        time.Duration // Match clock tick period.
	DefaultTimeLimit    int           // Seconds per item when settings omit one.
	DefaultTotalRounds  int           // Rounds when settings omit a bound.
	MaxPlayers          int           // Default room capacity.
	AdvanceDelay        time.Duration // Pause before the next item so clients can show feedback.
	EliminationEndGrace time.Duration // Pause before game end after a decisive elimination.
	ReconnectGrace      time.Duration // How long a disconnected session survives.
	RoomTTL             time.Duration // Age after which idle rooms are swept.
	SweepInterval       time.Duration // Registry sweep period.
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		MatchDuration:       180 * time.Second,
		TickInterval:        time.Second,
		DefaultTimeLimit:    45,
		DefaultTotalRounds:  10,
		MaxPlayers:          8,
		AdvanceDelay:        2 * time.Second,
		EliminationEndGrace: 3 * time.Second,
		ReconnectGrace:      2 * time.Minute,
		RoomTTL:             time.Hour,
		SweepInterval:       5 * time.Minute,
	}
}

// Engine is the authoritative state machine for every room's game lifecycle.
// It owns all room, session, and hint state; the gateway and timers only
// route messages and identifiers.
type Engine struct {
	cfg      Config
	store    store.Store
	provider content.Provider
	registry *Registry
	hints    *HintLedger
	log      *logrus.Entry

	// Delivery callbacks injected by the connection gateway.
	BroadcastFn func(roomID uuid.UUID, ev Event)
	UnicastFn   func(userID uuid.UUID, ev Event)
}

// NewEngine wires an engine over a store and content provider.
func NewEngine(cfg Config, st store.Store, provider content.Provider) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    st,
		provider: provider,
		registry: NewRegistry(),
		hints:    NewHintLedger(),
		log:      logrus.WithField("component", "engine"),
	}
}

// Hints exposes the ledger for tests and diagnostics.
func (e *Engine) Hints() *HintLedger { return e.hints }

// broadcast delivers an event to every connection in a room.
func (e *Engine) broadcast(roomID uuid.UUID, ev Event) {
	if e.BroadcastFn != nil {
		e.BroadcastFn(roomID, ev)
	} else {
		e.log.Warnf("BroadcastFn is nil, dropping %s for room %s", ev.Type, roomID)
	}
}

// unicast delivers an event to a single player's connection.
func (e *Engine) unicast(userID uuid.UUID, ev Event) {
	if e.UnicastFn != nil {
		e.UnicastFn(userID, ev)
	} else {
		e.log.Warnf("UnicastFn is nil, dropping %s for user %s", ev.Type, userID)
	}
}

// logAction appends an audit record for the room. Published asynchronously;
// Redis absence is tolerated inside the cache package.
func (e *Engine) logAction(rt *roomRuntime, roomID, actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	rt.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.MatchActionRecord{
		RoomID:        roomID,
		ActionIndex:   rt.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.MatchActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMatchAction(ctx, rec); err != nil {
			e.log.WithError(err).Warnf("failed publishing action %d for room %s", rec.ActionIndex, rec.RoomID)
		}
	}(rec)
}

// roster loads the current player list for a room.
// Assumes the room runtime lock is held.
func (e *Engine) roster(ctx context.Context, room *models.Room) []PlayerSummary {
	sessions, err := e.store.ListSessions(ctx, room.ID)
	if err != nil {
		e.log.WithError(err).Warnf("failed listing sessions for room %s", room.ID)
		return nil
	}
	return summarizePlayers(sessions, room.HostID)
}

// JoinResult describes the outcome of CreateRoom/JoinRoom for the gateway.
type JoinResult struct {
	Room        *models.Room
	Players     []PlayerSummary
	Session     *models.PlayerSession
	Reconnected bool // Disconnected session restored.
	Rejoined    bool // Idempotent re-join of a live session.
}

// normalizeSettings fills defaults for omitted settings fields.
func (e *Engine) normalizeSettings(s models.RoomSettings) models.RoomSettings {
	if !s.CompetitionType.Valid() {
		s.CompetitionType = models.CompetitionElimination
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = e.cfg.DefaultTimeLimit
	}
	if s.TotalRounds <= 0 {
		s.TotalRounds = e.cfg.DefaultTotalRounds
	}
	return s
}

// CreateRoom allocates a room with a fresh unique code and registers the
// host's own session. The gateway unicasts the returned state as
// room_created.
func (e *Engine) CreateRoom(ctx context.Context, hostID uuid.UUID, username string, mode models.GameMode, difficulty models.Difficulty, settings models.RoomSettings) (*JoinResult, error) {
	if username == "" {
		return nil, errValidation("username is required")
	}
	if mode != models.ModeSpelling && mode != models.ModeGrammar {
		mode = models.ModeSpelling
	}
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		difficulty = models.DifficultyMedium
	}
	settings = e.normalizeSettings(settings)

	room := &models.Room{
		ID:             uuid.New(),
		HostID:         hostID,
		Mode:           mode,
		Difficulty:     difficulty,
		MaxPlayers:     e.cfg.MaxPlayers,
		CurrentPlayers: 1,
		Settings:       settings,
		CreatedAt:      time.Now(),
	}

	// Codes are random; retry the insert on the rare collision.
	var created bool
	for attempt := 0; attempt < 5; attempt++ {
		room.Code = NewRoomCode()
		err := e.store.CreateRoom(ctx, room)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, store.ErrDuplicateCode) {
			e.log.WithError(err).Error("room creation failed")
			return nil, errInternal("failed to create room")
		}
	}
	if !created {
		return nil, errInternal("failed to allocate a unique room code")
	}

	session := &models.PlayerSession{
		ID:          uuid.New(),
		RoomID:      room.ID,
		UserID:      hostID,
		Username:    username,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		// Roll the room back so no code is left orphaned.
		_ = e.store.DeleteRoom(ctx, room.ID)
		e.log.WithError(err).Error("host session creation failed")
		return nil, errInternal("failed to create room")
	}

	rt := e.registry.acquire(room.ID)
	rt.mu.Lock()
	e.logAction(rt, room.ID, hostID, "room_create", map[string]interface{}{"code": room.Code, "mode": mode})
	rt.mu.Unlock()

	e.log.Infof("room %s created by %s (%s)", room.Code, username, hostID)
	return &JoinResult{
		Room:    room,
		Players: []PlayerSummary{*sessionSummary(session, room.HostID)},
		Session: session,
	}, nil
}

func sessionSummary(s *models.PlayerSession, hostID uuid.UUID) *PlayerSummary {
	ps := summarizePlayers([]*models.PlayerSession{s}, hostID)
	return &ps[0]
}

// JoinRoom adds a player to a room by code. Re-sending join with the same
// identity is an idempotent re-join; joining over a disconnected session is
// a reconnection. New joins are rejected for full or already-active rooms.
func (e *Engine) JoinRoom(ctx context.Context, code string, userID uuid.UUID, username string) (*JoinResult, error) {
	if !ValidRoomCode(code) {
		return nil, errValidation("malformed room code %q", code)
	}
	probe, err := e.store.GetRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil, errNotFound("room not found")
		}
		return nil, errInternal("room lookup failed")
	}

	rt := e.registry.acquire(probe.ID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	// Reload under the room lock: the probe read raced other handlers.
	room, err := e.store.GetRoom(ctx, probe.ID)
	if err != nil {
		e.registry.detach(probe.ID)
		return nil, errNotFound("room not found")
	}

	existing, err := e.store.GetSession(ctx, room.ID, userID)
	if err == nil {
		if existing.IsConnected {
			// Idempotent (re)join: hand back state, no join broadcast.
			return &JoinResult{Room: room, Players: e.roster(ctx, room), Session: existing, Rejoined: true}, nil
		}

		// Reconnection within the grace window.
		existing.IsConnected = true
		existing.DisconnectedAt = nil
		if username != "" {
			existing.Username = username
		}
		if err := e.store.UpdateSession(ctx, existing); err != nil {
			return nil, errInternal("failed to restore session")
		}
		if t, ok := rt.removalTimers[userID]; ok {
			t.Stop()
			delete(rt.removalTimers, userID)
		}
		players := e.roster(ctx, room)
		e.broadcast(room.ID, Event{Type: EventPlayerReconnected, Payload: map[string]interface{}{
			"userId":   userID,
			"username": existing.Username,
			"players":  players,
		}})
		e.logAction(rt, room.ID, userID, "player_reconnect", nil)
		e.log.Infof("player %s reconnected to room %s", existing.Username, room.Code)
		return &JoinResult{Room: room, Players: players, Session: existing, Reconnected: true}, nil
	}

	if room.IsActive {
		return nil, errState("game already in progress")
	}
	if room.CurrentPlayers >= room.MaxPlayers {
		return nil, errCapacity("room is full")
	}
	if username == "" {
		return nil, errValidation("username is required")
	}

	session := &models.PlayerSession{
		ID:          uuid.New(),
		RoomID:      room.ID,
		UserID:      userID,
		Username:    username,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		return nil, errInternal("failed to join room")
	}
	room.CurrentPlayers++
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		return nil, errInternal("failed to join room")
	}

	players := e.roster(ctx, room)
	e.broadcast(room.ID, Event{Type: EventPlayerJoined, Payload: map[string]interface{}{
		"userId":   userID,
		"username": username,
		"players":  players,
	}})
	e.logAction(rt, room.ID, userID, "player_join", map[string]interface{}{"username": username})
	e.log.Infof("player %s joined room %s (%d/%d)", username, room.Code, room.CurrentPlayers, room.MaxPlayers)
	return &JoinResult{Room: room, Players: players, Session: session}, nil
}

// LeaveRoom removes a player's session outright (explicit leave, as opposed
// to a transport disconnect). Deletes the room when it becomes empty.
func (e *Engine) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return e.removePlayerLocked(ctx, rt, roomID, userID, EventPlayerLeft)
}

// removePlayerLocked deletes a session, shrinks or deletes the room, and
// broadcasts the given departure event. Assumes the runtime lock is held.
func (e *Engine) removePlayerLocked(ctx context.Context, rt *roomRuntime, roomID, userID uuid.UUID, departure EventType) error {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return errNotFound("room not found")
	}
	session, err := e.store.GetSession(ctx, roomID, userID)
	if err != nil {
		return errNotFound("no session in this room")
	}

	if err := e.store.DeleteSession(ctx, roomID, userID); err != nil {
		return errInternal("failed to leave room")
	}
	if t, ok := rt.removalTimers[userID]; ok {
		t.Stop()
		delete(rt.removalTimers, userID)
	}
	room.CurrentPlayers--
	if room.CurrentPlayers < 0 {
		room.CurrentPlayers = 0
	}

	if room.CurrentPlayers == 0 {
		e.deleteRoomLocked(ctx, rt, room)
		e.log.Infof("room %s deleted (last player %s left)", room.Code, session.Username)
		return nil
	}

	// Hand the room to the longest-standing player if the host departed.
	if room.HostID == userID {
		if remaining := e.orderedSessions(ctx, roomID); len(remaining) > 0 {
			room.HostID = remaining[0].UserID
		}
	}
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		return errInternal("failed to update room")
	}

	players := e.roster(ctx, room)
	e.broadcast(roomID, Event{Type: departure, Payload: map[string]interface{}{
		"userId":   userID,
		"username": session.Username,
		"hostId":   room.HostID,
		"players":  players,
	}})
	e.logAction(rt, roomID, userID, string(departure), nil)

	// A departure mid-game can leave a single contender.
	if room.IsActive && room.GameState != nil && room.GameState.CompetitionType == models.CompetitionElimination {
		e.checkEliminationEndLocked(ctx, rt, room)
	}
	return nil
}

// orderedSessions returns the room's sessions oldest-join first.
// Assumes the runtime lock is held.
func (e *Engine) orderedSessions(ctx context.Context, roomID uuid.UUID) []*models.PlayerSession {
	sessions, err := e.store.ListSessions(ctx, roomID)
	if err != nil {
		return nil
	}
	return sessions
}

// deleteRoomLocked removes the room record and purges every associated
// runtime resource atomically with it. Assumes the runtime lock is held.
func (e *Engine) deleteRoomLocked(ctx context.Context, rt *roomRuntime, room *models.Room) {
	rt.stopAllTimers()
	e.hints.ResetRoom(room.ID)
	if err := e.store.DeleteRoom(ctx, room.ID); err != nil && !errors.Is(err, store.ErrRoomNotFound) {
		e.log.WithError(err).Warnf("failed deleting room %s", room.ID)
	}
	e.registry.detach(room.ID)
}

// HandleDisconnect marks a player's session disconnected and schedules the
// delayed hard-removal check. Transport loss is a recoverable state, not an
// error: the session survives for the reconnect grace window.
func (e *Engine) HandleDisconnect(ctx context.Context, roomID, userID uuid.UUID) {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return
	}
	session, err := e.store.GetSession(ctx, roomID, userID)
	if err != nil || !session.IsConnected {
		return
	}

	now := time.Now()
	session.IsConnected = false
	session.DisconnectedAt = &now
	if err := e.store.UpdateSession(ctx, session); err != nil {
		e.log.WithError(err).Warnf("failed marking session disconnected in room %s", roomID)
		return
	}

	e.broadcast(roomID, Event{Type: EventPlayerDisconnected, Payload: map[string]interface{}{
		"userId":   userID,
		"username": session.Username,
		"players":  e.roster(ctx, room),
	}})
	e.logAction(rt, roomID, userID, "player_disconnect", nil)
	e.log.Infof("player %s disconnected from room %s", session.Username, room.Code)

	// Hard-removal check after the grace window.
	if prev, ok := rt.removalTimers[userID]; ok {
		prev.Stop()
	}
	rt.removalTimers[userID] = time.AfterFunc(e.cfg.ReconnectGrace, func() {
		e.expireDisconnected(roomID, userID)
	})
}

// expireDisconnected performs the hard removal if the player never came back.
func (e *Engine) expireDisconnected(roomID, userID uuid.UUID) {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	delete(rt.removalTimers, userID)
	session, err := e.store.GetSession(ctx, roomID, userID)
	if err != nil || session.IsConnected {
		return // Reconnected or already gone.
	}
	if err := e.removePlayerLocked(ctx, rt, roomID, userID, EventPlayerRemoved); err != nil {
		e.log.WithError(err).Warnf("failed removing expired session %s from room %s", userID, roomID)
	}
}

// PlayerReady toggles the ready flag on a player's lobby session.
func (e *Engine) PlayerReady(ctx context.Context, roomID, userID uuid.UUID, ready bool) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return errNotFound("room not found")
	}
	session, err := e.store.GetSession(ctx, roomID, userID)
	if err != nil {
		return errNotFound("no session in this room")
	}
	session.IsReady = ready
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return errInternal("failed to update session")
	}
	e.broadcast(roomID, Event{Type: EventPlayerReady, Payload: map[string]interface{}{
		"userId":  userID,
		"isReady": ready,
		"players": e.roster(ctx, room),
	}})
	return nil
}

// UpdateSettings replaces the room settings bag. Host only, lobby only.
func (e *Engine) UpdateSettings(ctx context.Context, roomID, userID uuid.UUID, settings models.RoomSettings) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return errNotFound("room not found")
	}
	if room.HostID != userID {
		return errAuthorization("only the host can change settings")
	}
	if room.IsActive {
		return errState("cannot change settings during a game")
	}

	room.Settings = e.normalizeSettings(settings)
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		return errInternal("failed to update settings")
	}
	e.broadcast(roomID, Event{Type: EventSettingsUpdated, Payload: map[string]interface{}{
		"settings": room.Settings,
	}})
	e.logAction(rt, roomID, userID, "settings_update", map[string]interface{}{
		"competitionType": room.Settings.CompetitionType,
		"timeLimit":       room.Settings.TimeLimit,
	})
	return nil
}

// StartSweeper runs the periodic registry sweep until ctx is cancelled.
func (e *Engine) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := e.SweepOnce(ctx); n > 0 {
					e.log.Infof("sweep removed %d expired room(s)", n)
				}
			}
		}
	}()
}

// SweepOnce deletes rooms older than the TTL that are empty or never
// started. Returns the number of rooms removed.
func (e *Engine) SweepOnce(ctx context.Context) int {
	rooms, err := e.store.ListRooms(ctx)
	if err != nil {
		e.log.WithError(err).Warn("sweep failed listing rooms")
		return 0
	}
	removed := 0
	cutoff := time.Now().Add(-e.cfg.RoomTTL)
	for _, room := range rooms {
		if room.CreatedAt.After(cutoff) {
			continue
		}
		neverStarted := !room.IsActive && room.GameState == nil
		if room.CurrentPlayers > 0 && !neverStarted {
			continue
		}
		rt := e.registry.acquire(room.ID)
		rt.mu.Lock()
		e.deleteRoomLocked(ctx, rt, room)
		rt.mu.Unlock()
		removed++
	}
	return removed
}

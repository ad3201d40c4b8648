// internal/game/match.go
package game

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wordclash/server/internal/cache"
	"github.com/wordclash/server/internal/models"
)

// StartGame transitions a room from lobby to active play. Host only. A
// content fetch failure is broadcast as a room error and leaves the lobby
// untouched; it never crashes the room.
func (e *Engine) StartGame(ctx context.Context, roomID, userID uuid.UUID) error {
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
		return errAuthorization("only the host can start the game")
	}
	if room.IsActive {
		return errState("game already in progress")
	}

	settings := e.normalizeSettings(room.Settings)
	room.Settings = settings

	item, err := e.provider.Fetch(ctx, room.Mode, room.Difficulty)
	if err != nil {
		e.log.WithError(err).Warnf("content fetch failed starting room %s", room.Code)
		ev := Event{Type: EventError, Payload: map[string]interface{}{
			"code":    CodeContentUnavailable,
			"message": "could not fetch content to start the game",
		}}
		e.broadcast(roomID, ev)
		return &EngineError{Code: CodeContentUnavailable, Message: "could not fetch content to start the game"}
	}

	e.hints.ResetRoom(roomID)

	totalRounds := settings.TotalRounds
	if settings.CompetitionType == models.CompetitionTimed {
		// Timed play is round-less; the match clock is the only bound.
		totalRounds = 0
	}
	globalSeconds := int(e.cfg.MatchDuration / time.Second)
	room.GameState = &models.GameState{
		CurrentRound:    1,
		TotalRounds:     totalRounds,
		CurrentItem:     item,
		TimeLeft:        settings.TimeLimit,
		CompetitionType: settings.CompetitionType,
		GlobalTimer:     globalSeconds,
		StartedAt:       time.Now(),
	}
	room.IsActive = true
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		room.IsActive = false
		room.GameState = nil
		return errInternal("failed to start game")
	}

	e.startTimersLocked(rt, room)

	e.broadcast(roomID, Event{Type: EventGameStarted, Payload: map[string]interface{}{
		"currentRound":    1,
		"totalRounds":     totalRounds,
		"item":            publicItem(item),
		"timeLeft":        settings.TimeLimit,
		"globalTimer":     globalSeconds,
		"competitionType": settings.CompetitionType,
		"players":         e.roster(ctx, room),
	}})
	e.logAction(rt, roomID, userID, "game_start", map[string]interface{}{
		"competitionType": settings.CompetitionType,
		"timeLimit":       settings.TimeLimit,
	})
	e.log.Infof("room %s started (%s, %ds per item)", room.Code, settings.CompetitionType, settings.TimeLimit)
	return nil
}

// startTimersLocked launches the match clock and the per-item round timer.
// Any previous match timer is cancelled first so a room never ticks twice.
// Assumes the runtime lock is held.
func (e *Engine) startTimersLocked(rt *roomRuntime, room *models.Room) {
	if rt.matchTimer != nil {
		rt.matchTimer.Stop()
	}
	roomID := room.ID
	seconds := room.GameState.GlobalTimer
	rt.matchTimer = startMatchTimer(seconds, e.cfg.TickInterval,
		func(remaining int) { e.onMatchTick(roomID, remaining) },
		func() { e.onMatchExpired(roomID) },
	)
	e.resetRoundTimerLocked(rt, room)
}

// resetRoundTimerLocked (re)arms the per-item expiry timer.
// Assumes the runtime lock is held.
func (e *Engine) resetRoundTimerLocked(rt *roomRuntime, room *models.Room) {
	if rt.roundTimer != nil {
		rt.roundTimer.Stop()
	}
	roomID := room.ID
	limit := time.Duration(room.Settings.TimeLimit) * time.Second
	rt.roundTimer = time.AfterFunc(limit, func() { e.onRoundTimeout(roomID) })
}

// onMatchTick persists and broadcasts the new match clock value.
func (e *Engine) onMatchTick(roomID uuid.UUID, remaining int) {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil || !room.IsActive || room.GameState == nil {
		return
	}
	room.GameState.GlobalTimer = remaining
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		e.log.WithError(err).Warnf("failed persisting match tick for room %s", roomID)
	}
	e.broadcast(roomID, Event{Type: EventTimerUpdate, Payload: map[string]interface{}{
		"globalTimer": remaining,
	}})
}

// onMatchExpired ends the game when the global clock reaches zero.
func (e *Engine) onMatchExpired(roomID uuid.UUID) {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.endGameLocked(ctx, rt, roomID)
}

// onRoundTimeout advances past an item nobody answered in time. No score
// penalty beyond the ones answer handling already applied.
func (e *Engine) onRoundTimeout(roomID uuid.UUID) {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.advanceTimer != nil {
		return // An advance is already pending from an answer.
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.advanceRoundLocked(ctx, rt, roomID)
}

// activeSession loads the submitting player's session and enforces the
// common in-game preconditions. Assumes the runtime lock is held.
func (e *Engine) activeSession(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, *models.PlayerSession, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, errNotFound("room not found")
	}
	if !room.IsActive || room.GameState == nil {
		return nil, nil, errState("no game in progress")
	}
	session, err := e.store.GetSession(ctx, roomID, userID)
	if err != nil {
		return nil, nil, errNotFound("no session in this room")
	}
	if session.IsEliminated {
		return nil, nil, errState("you have been eliminated")
	}
	return room, session, nil
}

// SubmitAnswer scores a player's submission against the current item,
// applies elimination rules, and schedules round advancement.
func (e *Engine) SubmitAnswer(ctx context.Context, roomID, userID uuid.UUID, answer string) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, session, err := e.activeSession(ctx, roomID, userID)
	if err != nil {
		return err
	}
	gs := room.GameState
	if gs.CurrentItem == nil {
		return errInternal("no current item")
	}

	target := gs.CurrentItem.Answer()
	correct := CheckAnswer(answer, target)

	session.TotalAttempts++
	points := 0
	if correct {
		points = ScoreCorrect(e.hints.Flags(roomID, userID))
		session.Score += points
		session.CorrectCount++
		session.Streak++
		if session.Streak > session.BestStreak {
			session.BestStreak = session.Streak
		}
	} else {
		session.Streak = 0
	}

	eliminated := false
	if !correct && gs.CompetitionType == models.CompetitionElimination {
		now := time.Now()
		session.IsEliminated = true
		session.EliminatedAt = &now
		eliminated = true
	}

	if err := e.store.UpdateSession(ctx, session); err != nil {
		return errInternal("failed to record answer")
	}

	e.broadcast(roomID, Event{Type: EventAnswerSubmitted, Payload: map[string]interface{}{
		"userId":        userID,
		"username":      session.Username,
		"answer":        strings.TrimSpace(answer),
		"isCorrect":     correct,
		"correctAnswer": target,
		"points":        points,
		"totalScore":    session.Score,
		"streak":        session.Streak,
	}})
	e.logAction(rt, roomID, userID, "answer_submit", map[string]interface{}{
		"isCorrect": correct,
		"points":    points,
	})

	if eliminated {
		e.broadcast(roomID, Event{Type: EventPlayerEliminated, Payload: map[string]interface{}{
			"userId":   userID,
			"username": session.Username,
			"players":  e.roster(ctx, room),
		}})
		e.logAction(rt, roomID, userID, "player_eliminated", nil)
		if e.checkEliminationEndLocked(ctx, rt, room) {
			return nil
		}
	}

	if correct {
		e.scheduleAdvanceLocked(rt, roomID)
	}
	return nil
}

// SkipWord records a skipped item for the player: zero points, no
// elimination, and the round advances after the usual feedback delay.
func (e *Engine) SkipWord(ctx context.Context, roomID, userID uuid.UUID) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, session, err := e.activeSession(ctx, roomID, userID)
	if err != nil {
		return err
	}
	gs := room.GameState
	if gs.CurrentItem == nil {
		return errInternal("no current item")
	}

	session.TotalAttempts++
	session.Streak = 0
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return errInternal("failed to record skip")
	}

	e.broadcast(roomID, Event{Type: EventAnswerSubmitted, Payload: map[string]interface{}{
		"userId":        userID,
		"username":      session.Username,
		"skipped":       true,
		"isCorrect":     false,
		"correctAnswer": gs.CurrentItem.Answer(),
		"points":        0,
		"totalScore":    session.Score,
		"streak":        0,
	}})
	e.logAction(rt, roomID, userID, "word_skip", nil)

	e.scheduleAdvanceLocked(rt, roomID)
	return nil
}

// UseHint consumes a hint tier for the current item and unicasts the
// revealed content to the requesting player only. The score deduction is
// applied lazily when the answer is scored.
func (e *Engine) UseHint(ctx context.Context, roomID, userID uuid.UUID, tier HintTier) error {
	rt, ok := e.registry.lookup(roomID)
	if !ok {
		return errNotFound("room not found")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, session, err := e.activeSession(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !room.Settings.HintsEnabled {
		return errState("hints are disabled in this room")
	}
	if !tier.Valid() {
		return errValidation("unknown hint type %q", tier)
	}
	gs := room.GameState
	if gs.CurrentItem == nil {
		return errInternal("no current item")
	}

	if e.hints.Use(roomID, userID, tier) {
		session.HintsUsed++
		if err := e.store.UpdateSession(ctx, session); err != nil {
			return errInternal("failed to record hint")
		}
	}

	e.unicast(userID, Event{Type: EventHintRevealed, Payload: map[string]interface{}{
		"hintType": tier,
		"content":  hintContent(gs.CurrentItem, tier),
	}})
	e.logAction(rt, roomID, userID, "hint_use", map[string]interface{}{"hintType": tier})
	return nil
}

// hintContent extracts the reveal text for a tier from the current item.
func hintContent(item *models.ContentItem, tier HintTier) string {
	answer := item.Answer()
	switch tier {
	case HintFirstLetter:
		if answer == "" {
			return ""
		}
		return strings.ToUpper(answer[:1])
	case HintDefinition:
		if item.Mode == models.ModeGrammar {
			return item.Question
		}
		return item.Definition
	case HintSentence:
		if item.Mode == models.ModeGrammar {
			return item.Sentence
		}
		return item.ExampleUsage
	}
	return ""
}

// scheduleAdvanceLocked arms the short feedback delay before the next item.
// A second trigger while one is pending is a no-op. Assumes the runtime lock
// is held.
func (e *Engine) scheduleAdvanceLocked(rt *roomRuntime, roomID uuid.UUID) {
	if rt.advanceTimer != nil {
		return
	}
	rt.advanceTimer = time.AfterFunc(e.cfg.AdvanceDelay, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		rt.advanceTimer = nil
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.advanceRoundLocked(ctx, rt, roomID)
	})
}

// advanceRoundLocked moves the room to its next item, or ends the game when
// the round bound or match clock is exhausted. A content failure here ends
// the game gracefully instead of stranding the room without an item.
// Assumes the runtime lock is held.
func (e *Engine) advanceRoundLocked(ctx context.Context, rt *roomRuntime, roomID uuid.UUID) {
	if rt.endTimer != nil {
		return // The game end is already pending; no further items.
	}
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil || !room.IsActive || room.GameState == nil {
		return
	}
	gs := room.GameState

	switch gs.CompetitionType {
	case models.CompetitionTimed:
		if gs.GlobalTimer <= 0 {
			e.endGameLocked(ctx, rt, roomID)
			return
		}
	case models.CompetitionElimination, models.CompetitionTeam, models.CompetitionRelay:
		if gs.TotalRounds > 0 && gs.CurrentRound >= gs.TotalRounds {
			e.endGameLocked(ctx, rt, roomID)
			return
		}
	}

	e.hints.ResetRoom(roomID)

	if gs.CompetitionType != models.CompetitionTimed {
		gs.CurrentRound++
	}

	item, err := e.provider.Fetch(ctx, room.Mode, room.Difficulty)
	if err != nil {
		e.log.WithError(err).Warnf("content fetch failed advancing room %s, ending game", room.Code)
		e.broadcast(roomID, Event{Type: EventError, Payload: map[string]interface{}{
			"code":    CodeContentUnavailable,
			"message": "could not fetch the next item; ending the game",
		}})
		e.endGameLocked(ctx, rt, roomID)
		return
	}

	gs.CurrentItem = item
	gs.TimeLeft = room.Settings.TimeLimit
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		e.log.WithError(err).Warnf("failed persisting round advance for room %s", roomID)
	}

	e.resetRoundTimerLocked(rt, room)

	e.broadcast(roomID, Event{Type: EventNextRound, Payload: map[string]interface{}{
		"currentRound": gs.CurrentRound,
		"totalRounds":  gs.TotalRounds,
		"item":         publicItem(item),
		"timeLeft":     gs.TimeLeft,
		"globalTimer":  gs.GlobalTimer,
	}})
	e.logAction(rt, roomID, uuid.Nil, "round_advance", map[string]interface{}{"round": gs.CurrentRound})
}

// checkEliminationEndLocked ends the game, after a short grace so clients
// can render the elimination, when at most one contender remains. Reports
// whether the end was scheduled. Assumes the runtime lock is held.
func (e *Engine) checkEliminationEndLocked(ctx context.Context, rt *roomRuntime, room *models.Room) bool {
	sessions, err := e.store.ListSessions(ctx, room.ID)
	if err != nil {
		return false
	}
	remaining := 0
	for _, s := range sessions {
		if !s.IsEliminated {
			remaining++
		}
	}
	if remaining > 1 {
		return false
	}
	if rt.endTimer != nil {
		return true // Already scheduled.
	}
	roomID := room.ID
	rt.endTimer = time.AfterFunc(e.cfg.EliminationEndGrace, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		rt.endTimer = nil
		endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.endGameLocked(endCtx, rt, roomID)
	})
	return true
}

// endGameLocked finalizes the match: stops timers, clears hint state, folds
// session results into persistent profiles, returns the room to the lobby
// state, and broadcasts the final standings. Idempotent, so racing triggers
// produce exactly one game_ended broadcast. Assumes the runtime lock is held.
func (e *Engine) endGameLocked(ctx context.Context, rt *roomRuntime, roomID uuid.UUID) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil || !room.IsActive {
		return
	}

	rt.stopActiveTimers()
	e.hints.ResetRoom(roomID)

	sessions, err := e.store.ListSessions(ctx, roomID)
	if err != nil {
		e.log.WithError(err).Warnf("failed listing sessions ending room %s", roomID)
		sessions = nil
	}

	for _, s := range sessions {
		s.IsComplete = true
		s.IsReady = false
		if err := e.store.UpdateSession(ctx, s); err != nil {
			e.log.WithError(err).Warnf("failed finalizing session %s in room %s", s.UserID, roomID)
		}
		e.foldResult(ctx, s)
	}

	room.IsActive = false
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		e.log.WithError(err).Warnf("failed marking room %s inactive", roomID)
	}

	standings := finalStandings(sessions)
	e.broadcast(roomID, Event{Type: EventGameEnded, Payload: map[string]interface{}{
		"standings": standings,
		"players":   summarizePlayers(sessions, room.HostID),
	}})
	e.logAction(rt, roomID, uuid.Nil, "game_end", map[string]interface{}{"standings": standings})
	e.log.Infof("room %s game ended", room.Code)
}

// foldResult merges one session's match result into the player's persistent
// profile and the global leaderboard.
func (e *Engine) foldResult(ctx context.Context, s *models.PlayerSession) {
	stats, err := e.store.GetStats(ctx, s.UserID)
	if err != nil {
		stats = &models.UserStats{UserID: s.UserID, Username: s.Username}
	}
	stats.Username = s.Username
	stats.ApplyResult(s.Score, s.CorrectCount, s.TotalAttempts)
	if err := e.store.SaveStats(ctx, stats); err != nil {
		e.log.WithError(err).Warnf("failed saving stats for user %s", s.UserID)
	}
	cache.RecordResult(ctx, s.UserID, s.Username, s.Score)
}

// Standing is one row of the final scoreboard.
type Standing struct {
	Rank         int       `json:"rank"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	BestStreak   int       `json:"bestStreak"`
	IsEliminated bool      `json:"isEliminated"`
}

// finalStandings orders sessions by score, ties broken by correct count.
func finalStandings(sessions []*models.PlayerSession) []Standing {
	ordered := make([]*models.PlayerSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].CorrectCount > ordered[j].CorrectCount
	})
	out := make([]Standing, len(ordered))
	for i, s := range ordered {
		out[i] = Standing{
			Rank:         i + 1,
			UserID:       s.UserID,
			Username:     s.Username,
			Score:        s.Score,
			CorrectCount: s.CorrectCount,
			BestStreak:   s.BestStreak,
			IsEliminated: s.IsEliminated,
		}
	}
	return out
}

// RestartGame returns an ended (or in-flight) game to the lobby with every
// session's match state zeroed. Host only.
func (e *Engine) RestartGame(ctx context.Context, roomID, userID uuid.UUID) error {
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
		return errAuthorization("only the host can restart the game")
	}

	rt.stopActiveTimers()
	e.hints.ResetRoom(roomID)

	sessions, err := e.store.ListSessions(ctx, roomID)
	if err != nil {
		return errInternal("failed to restart game")
	}
	for _, s := range sessions {
		s.ResetForRestart()
		if err := e.store.UpdateSession(ctx, s); err != nil {
			return errInternal("failed to restart game")
		}
	}

	room.IsActive = false
	room.GameState = nil
	if err := e.store.UpdateRoom(ctx, room); err != nil {
		return errInternal("failed to restart game")
	}

	e.broadcast(roomID, Event{Type: EventGameRestarted, Payload: map[string]interface{}{
		"players": e.roster(ctx, room),
	}})
	e.logAction(rt, roomID, userID, "game_restart", nil)
	e.log.Infof("room %s restarted", room.Code)
	return nil
}

// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wordclash/server/internal/models"
)

// PostgresStore implements Store on a pgx connection pool. Room settings and
// game state are kept as JSONB columns since they are opaque to SQL queries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and verifies the connection.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// EnsureSchema creates the tables this store needs if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			code TEXT UNIQUE NOT NULL,
			host_id UUID NOT NULL,
			mode TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			max_players INT NOT NULL,
			current_players INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			settings JSONB NOT NULL DEFAULT '{}',
			game_state JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS player_sessions (
			id UUID PRIMARY KEY,
			room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			username TEXT NOT NULL,
			score INT NOT NULL DEFAULT 0,
			correct_count INT NOT NULL DEFAULT 0,
			total_attempts INT NOT NULL DEFAULT 0,
			streak INT NOT NULL DEFAULT 0,
			best_streak INT NOT NULL DEFAULT 0,
			hints_used INT NOT NULL DEFAULT 0,
			elapsed_time INT NOT NULL DEFAULT 0,
			is_ready BOOLEAN NOT NULL DEFAULT FALSE,
			is_complete BOOLEAN NOT NULL DEFAULT FALSE,
			is_connected BOOLEAN NOT NULL DEFAULT TRUE,
			is_eliminated BOOLEAN NOT NULL DEFAULT FALSE,
			eliminated_at TIMESTAMPTZ,
			disconnected_at TIMESTAMPTZ,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (room_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			games_played INT NOT NULL DEFAULT 0,
			total_score INT NOT NULL DEFAULT 0,
			best_score INT NOT NULL DEFAULT 0,
			words_correct INT NOT NULL DEFAULT 0,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// CreateRoom inserts a room record.
func (p *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	settings, gameState, err := marshalRoomBlobs(room)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO rooms (id, code, host_id, mode, difficulty, max_players, current_players, is_active, settings, game_state, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		room.ID, room.Code, room.HostID, room.Mode, room.Difficulty,
		room.MaxPlayers, room.CurrentPlayers, room.IsActive, settings, gameState, room.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetRoom returns a room by id.
func (p *PostgresStore) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return p.scanRoom(p.pool.QueryRow(ctx, selectRoom+` WHERE id = $1`, id))
}

// GetRoomByCode returns a room by its shareable code.
func (p *PostgresStore) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	return p.scanRoom(p.pool.QueryRow(ctx, selectRoom+` WHERE code = $1`, code))
}

// UpdateRoom replaces the mutable columns of a room record.
func (p *PostgresStore) UpdateRoom(ctx context.Context, room *models.Room) error {
	settings, gameState, err := marshalRoomBlobs(room)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE rooms SET host_id=$2, max_players=$3, current_players=$4, is_active=$5, settings=$6, game_state=$7
		 WHERE id = $1`,
		room.ID, room.HostID, room.MaxPlayers, room.CurrentPlayers, room.IsActive, settings, gameState)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes a room; sessions cascade.
func (p *PostgresStore) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// ListRooms returns all live rooms.
func (p *PostgresStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rows, err := p.pool.Query(ctx, selectRoom)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		room, err := p.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

const selectRoom = `SELECT id, code, host_id, mode, difficulty, max_players, current_players, is_active, settings, game_state, created_at FROM rooms`

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *PostgresStore) scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	var settings []byte
	var gameState []byte
	err := row.Scan(&room.ID, &room.Code, &room.HostID, &room.Mode, &room.Difficulty,
		&room.MaxPlayers, &room.CurrentPlayers, &room.IsActive, &settings, &gameState, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &room.Settings); err != nil {
			return nil, fmt.Errorf("decode room settings: %w", err)
		}
	}
	if len(gameState) > 0 {
		room.GameState = &models.GameState{}
		if err := json.Unmarshal(gameState, room.GameState); err != nil {
			return nil, fmt.Errorf("decode game state: %w", err)
		}
	}
	return &room, nil
}

func marshalRoomBlobs(room *models.Room) (settings, gameState []byte, err error) {
	settings, err = json.Marshal(room.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("encode room settings: %w", err)
	}
	if room.GameState != nil {
		gameState, err = json.Marshal(room.GameState)
		if err != nil {
			return nil, nil, fmt.Errorf("encode game state: %w", err)
		}
	}
	return settings, gameState, nil
}

// CreateSession inserts a session row, replacing any stale row for the same
// (room, user) pair.
func (p *PostgresStore) CreateSession(ctx context.Context, s *models.PlayerSession) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO player_sessions (id, room_id, user_id, username, score, correct_count, total_attempts,
		 streak, best_streak, hints_used, elapsed_time, is_ready, is_complete, is_connected, is_eliminated,
		 eliminated_at, disconnected_at, joined_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		 ON CONFLICT (room_id, user_id) DO UPDATE SET
		 id=EXCLUDED.id, username=EXCLUDED.username, score=EXCLUDED.score,
		 correct_count=EXCLUDED.correct_count, total_attempts=EXCLUDED.total_attempts,
		 streak=EXCLUDED.streak, best_streak=EXCLUDED.best_streak, hints_used=EXCLUDED.hints_used,
		 elapsed_time=EXCLUDED.elapsed_time, is_ready=EXCLUDED.is_ready, is_complete=EXCLUDED.is_complete,
		 is_connected=EXCLUDED.is_connected, is_eliminated=EXCLUDED.is_eliminated,
		 eliminated_at=EXCLUDED.eliminated_at, disconnected_at=EXCLUDED.disconnected_at,
		 joined_at=EXCLUDED.joined_at`,
		s.ID, s.RoomID, s.UserID, s.Username, s.Score, s.CorrectCount, s.TotalAttempts,
		s.Streak, s.BestStreak, s.HintsUsed, s.ElapsedTime, s.IsReady, s.IsComplete,
		s.IsConnected, s.IsEliminated, s.EliminatedAt, s.DisconnectedAt, s.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for (room, user).
func (p *PostgresStore) GetSession(ctx context.Context, roomID, userID uuid.UUID) (*models.PlayerSession, error) {
	return p.scanSession(p.pool.QueryRow(ctx, selectSession+` WHERE room_id = $1 AND user_id = $2`, roomID, userID))
}

// UpdateSession replaces the mutable columns of a session row.
func (p *PostgresStore) UpdateSession(ctx context.Context, s *models.PlayerSession) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE player_sessions SET username=$3, score=$4, correct_count=$5, total_attempts=$6,
		 streak=$7, best_streak=$8, hints_used=$9, elapsed_time=$10, is_ready=$11, is_complete=$12,
		 is_connected=$13, is_eliminated=$14, eliminated_at=$15, disconnected_at=$16
		 WHERE room_id = $1 AND user_id = $2`,
		s.RoomID, s.UserID, s.Username, s.Score, s.CorrectCount, s.TotalAttempts,
		s.Streak, s.BestStreak, s.HintsUsed, s.ElapsedTime, s.IsReady, s.IsComplete,
		s.IsConnected, s.IsEliminated, s.EliminatedAt, s.DisconnectedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session row.
func (p *PostgresStore) DeleteSession(ctx context.Context, roomID, userID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM player_sessions WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns all sessions for a room, oldest join first.
func (p *PostgresStore) ListSessions(ctx context.Context, roomID uuid.UUID) ([]*models.PlayerSession, error) {
	rows, err := p.pool.Query(ctx, selectSession+` WHERE room_id = $1 ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.PlayerSession
	for rows.Next() {
		s, err := p.scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const selectSession = `SELECT id, room_id, user_id, username, score, correct_count, total_attempts,
 streak, best_streak, hints_used, elapsed_time, is_ready, is_complete, is_connected, is_eliminated,
 eliminated_at, disconnected_at, joined_at FROM player_sessions`

func (p *PostgresStore) scanSession(row rowScanner) (*models.PlayerSession, error) {
	var s models.PlayerSession
	err := row.Scan(&s.ID, &s.RoomID, &s.UserID, &s.Username, &s.Score, &s.CorrectCount,
		&s.TotalAttempts, &s.Streak, &s.BestStreak, &s.HintsUsed, &s.ElapsedTime,
		&s.IsReady, &s.IsComplete, &s.IsConnected, &s.IsEliminated,
		&s.EliminatedAt, &s.DisconnectedAt, &s.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

// GetStats returns the persistent profile for a user.
func (p *PostgresStore) GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var u models.UserStats
	err := p.pool.QueryRow(ctx,
		`SELECT user_id, username, games_played, total_score, best_score, words_correct, accuracy, updated_at
		 FROM user_stats WHERE user_id = $1`, userID).
		Scan(&u.UserID, &u.Username, &u.GamesPlayed, &u.TotalScore, &u.BestScore,
			&u.WordsCorrect, &u.Accuracy, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &u, nil
}

// SaveStats upserts the persistent profile for a user.
func (p *PostgresStore) SaveStats(ctx context.Context, stats *models.UserStats) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO user_stats (user_id, username, games_played, total_score, best_score, words_correct, accuracy, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (user_id) DO UPDATE SET
		 username=EXCLUDED.username, games_played=EXCLUDED.games_played, total_score=EXCLUDED.total_score,
		 best_score=EXCLUDED.best_score, words_correct=EXCLUDED.words_correct,
		 accuracy=EXCLUDED.accuracy, updated_at=EXCLUDED.updated_at`,
		stats.UserID, stats.Username, stats.GamesPlayed, stats.TotalScore,
		stats.BestScore, stats.WordsCorrect, stats.Accuracy, stats.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

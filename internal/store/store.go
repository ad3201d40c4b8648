// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wordclash/server/internal/models"
)

// Sentinel errors shared by all store implementations.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateCode   = errors.New("room code already exists")
)

// RoomStore is the durable room record abstraction consumed by the engine.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	UpdateRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
}

// SessionStore is the per-player, per-room session record abstraction.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.PlayerSession) error
	GetSession(ctx context.Context, roomID, userID uuid.UUID) (*models.PlayerSession, error)
	UpdateSession(ctx context.Context, s *models.PlayerSession) error
	DeleteSession(ctx context.Context, roomID, userID uuid.UUID) error
	ListSessions(ctx context.Context, roomID uuid.UUID) ([]*models.PlayerSession, error)
}

// UserStore holds the persistent cross-match player profiles.
type UserStore interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
	SaveStats(ctx context.Context, stats *models.UserStats) error
}

// Store bundles the three record stores behind one value so the engine takes
// a single dependency.
type Store interface {
	RoomStore
	SessionStore
	UserStore
}

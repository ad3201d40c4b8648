// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wordclash/server/internal/models"
)

// sessionKey identifies a session by (room, user).
type sessionKey struct {
	roomID uuid.UUID
	userID uuid.UUID
}

// MemoryStore is a mutex-guarded in-memory Store. It is the default backend
// and the one used by tests. All returned records are copies so callers never
// alias store-internal state.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[uuid.UUID]*models.Room
	byCode   map[string]uuid.UUID
	sessions map[sessionKey]*models.PlayerSession
	users    map[uuid.UUID]*models.UserStats
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[uuid.UUID]*models.Room),
		byCode:   make(map[string]uuid.UUID),
		sessions: make(map[sessionKey]*models.PlayerSession),
		users:    make(map[uuid.UUID]*models.UserStats),
	}
}

func copyRoom(r *models.Room) *models.Room {
	cp := *r
	if r.GameState != nil {
		gs := *r.GameState
		cp.GameState = &gs
	}
	return &cp
}

func copySession(s *models.PlayerSession) *models.PlayerSession {
	cp := *s
	return &cp
}

// CreateRoom stores a new room record. Fails if the code is already taken.
func (m *MemoryStore) CreateRoom(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byCode[room.Code]; exists {
		return ErrDuplicateCode
	}
	m.rooms[room.ID] = copyRoom(room)
	m.byCode[room.Code] = room.ID
	return nil
}

// GetRoom returns a room by id.
func (m *MemoryStore) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return copyRoom(room), nil
}

// GetRoomByCode returns a room by its shareable code.
func (m *MemoryStore) GetRoomByCode(_ context.Context, code string) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return copyRoom(m.rooms[id]), nil
}

// UpdateRoom replaces a stored room record.
func (m *MemoryStore) UpdateRoom(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return ErrRoomNotFound
	}
	m.rooms[room.ID] = copyRoom(room)
	return nil
}

// DeleteRoom removes a room and all sessions scoped to it.
func (m *MemoryStore) DeleteRoom(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}
	delete(m.byCode, room.Code)
	delete(m.rooms, id)
	for key := range m.sessions {
		if key.roomID == id {
			delete(m.sessions, key)
		}
	}
	return nil
}

// ListRooms returns all live room records.
func (m *MemoryStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, copyRoom(room))
	}
	return out, nil
}

// CreateSession stores a new player session.
func (m *MemoryStore) CreateSession(_ context.Context, s *models.PlayerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey{s.RoomID, s.UserID}] = copySession(s)
	return nil
}

// GetSession returns the session for (room, user).
func (m *MemoryStore) GetSession(_ context.Context, roomID, userID uuid.UUID) (*models.PlayerSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey{roomID, userID}]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

// UpdateSession replaces a stored session record.
func (m *MemoryStore) UpdateSession(_ context.Context, s *models.PlayerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{s.RoomID, s.UserID}
	if _, ok := m.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[key] = copySession(s)
	return nil
}

// DeleteSession removes the session for (room, user).
func (m *MemoryStore) DeleteSession(_ context.Context, roomID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{roomID, userID}
	if _, ok := m.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// ListSessions returns all sessions for a room, ordered by join time.
func (m *MemoryStore) ListSessions(_ context.Context, roomID uuid.UUID) ([]*models.PlayerSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.PlayerSession, 0)
	for key, s := range m.sessions {
		if key.roomID == roomID {
			out = append(out, copySession(s))
		}
	}
	// Oldest-first for stable rosters.
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// GetStats returns the persistent profile for a user.
func (m *MemoryStore) GetStats(_ context.Context, userID uuid.UUID) (*models.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *stats
	return &cp, nil
}

// SaveStats upserts the persistent profile for a user.
func (m *MemoryStore) SaveStats(_ context.Context, stats *models.UserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *stats
	m.users[stats.UserID] = &cp
	return nil
}

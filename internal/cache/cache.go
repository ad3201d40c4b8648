// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. Nil when Redis is not configured; every
// publisher checks before use so the cache layer is strictly best-effort.
var Rdb *redis.Client

// Init connects the shared client and verifies it with a ping.
func Init(ctx context.Context, redisURL string) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	return nil
}

// MatchActionRecord is one entry in a room's match audit trail.
type MatchActionRecord struct {
	RoomID        uuid.UUID              `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// matchActionsKey returns the Redis list key for a room's audit trail.
func matchActionsKey(roomID uuid.UUID) string {
	return "wordclash:match_actions:" + roomID.String()
}

// PublishMatchAction appends an action record to the room's audit list. The
// list expires with the room TTL so abandoned rooms do not accumulate.
func PublishMatchAction(ctx context.Context, rec MatchActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match action: %w", err)
	}
	key := matchActionsKey(rec.RoomID)
	pipe := Rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish match action: %w", err)
	}
	return nil
}

// leaderboardKey is the global score leaderboard sorted set.
const leaderboardKey = "wordclash:leaderboard"

// RecordResult folds a finished match score into the global leaderboard.
// Best-effort: failures are logged and swallowed.
func RecordResult(ctx context.Context, userID uuid.UUID, username string, score int) {
	if Rdb == nil || score <= 0 {
		return
	}
	member := userID.String() + ":" + username
	if err := Rdb.ZIncrBy(ctx, leaderboardKey, float64(score), member).Err(); err != nil {
		logrus.WithError(err).Warn("failed to update leaderboard")
	}
}

// TopScores returns up to n leaderboard entries, highest total first.
func TopScores(ctx context.Context, n int64) ([]redis.Z, error) {
	if Rdb == nil {
		return nil, nil
	}
	return Rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
}

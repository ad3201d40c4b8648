// internal/content/provider.go
package content

import (
	"context"
	"errors"

	"github.com/wordclash/server/internal/models"
)

// ErrUnavailable is returned when no content can be produced for a request.
// The engine treats it as a non-fatal room error (broadcast, never a crash).
var ErrUnavailable = errors.New("content unavailable")

// Provider supplies a pseudo-random content item for a mode and difficulty
// tier. The difficulty is a hint; providers may serve an adjacent tier when
// the requested one is exhausted.
type Provider interface {
	Fetch(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) (*models.ContentItem, error)
}

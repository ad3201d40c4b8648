// internal/content/api_provider.go
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wordclash/server/internal/models"
)

// wordLengthForTier maps difficulty tiers to requested word lengths.
var wordLengthForTier = map[models.Difficulty]int{
	models.DifficultyEasy:   5,
	models.DifficultyMedium: 7,
	models.DifficultyHard:   10,
}

// APIProvider fetches spelling words from a remote random-word API, falling
// back to the embedded bank when the API is unreachable or the mode is
// grammar (which the remote API cannot serve).
type APIProvider struct {
	BaseURL  string
	Client   *http.Client
	Fallback *Bank
}

// NewAPIProvider creates a provider against the given base URL with a short
// request timeout.
func NewAPIProvider(baseURL string, fallback *Bank) *APIProvider {
	return &APIProvider{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: 5 * time.Second},
		Fallback: fallback,
	}
}

// Fetch requests one random word of a tier-appropriate length. Grammar items
// and any API failure are served from the fallback bank.
func (p *APIProvider) Fetch(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) (*models.ContentItem, error) {
	if mode != models.ModeSpelling {
		return p.Fallback.Fetch(ctx, mode, difficulty)
	}

	length := wordLengthForTier[difficulty]
	if length == 0 {
		length = 7
	}
	url := fmt.Sprintf("%s/word?length=%d", p.BaseURL, length)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p.Fallback.Fetch(ctx, mode, difficulty)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("word API request failed, using fallback bank")
		return p.Fallback.Fetch(ctx, mode, difficulty)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("word API returned status %d, using fallback bank", resp.StatusCode)
		return p.Fallback.Fetch(ctx, mode, difficulty)
	}

	var words []string
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil || len(words) == 0 {
		logrus.Warn("word API returned no usable words, using fallback bank")
		return p.Fallback.Fetch(ctx, mode, difficulty)
	}

	return &models.ContentItem{
		ID:         uuid.New(),
		Mode:       models.ModeSpelling,
		Difficulty: difficulty,
		Word:       words[0],
	}, nil
}

// internal/content/api_provider_test.go
package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordclash/server/internal/models"
)

func TestAPIProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("length"))
		w.Write([]byte(`["maestro"]`))
	}))
	defer srv.Close()

	p := NewAPIProvider(srv.URL, NewBank(1))
	item, err := p.Fetch(context.Background(), models.ModeSpelling, models.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, "maestro", item.Word)
	assert.Equal(t, models.DifficultyMedium, item.Difficulty)
}

func TestAPIProviderFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewAPIProvider(srv.URL, NewBank(1))
	item, err := p.Fetch(context.Background(), models.ModeSpelling, models.DifficultyEasy)
	require.NoError(t, err)
	assert.NotEmpty(t, item.Word, "fallback bank must serve the item")
	assert.NotEmpty(t, item.Definition)
}

func TestAPIProviderGrammarUsesBank(t *testing.T) {
	// The remote API only serves words; grammar always comes from the bank.
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := NewAPIProvider(srv.URL, NewBank(1))
	item, err := p.Fetch(context.Background(), models.ModeGrammar, models.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, models.ModeGrammar, item.Mode)
	assert.False(t, called)
}

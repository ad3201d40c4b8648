// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityTokenRoundTrip(t *testing.T) {
	id := Identity{UserID: uuid.New(), Username: "alice"}

	token, err := NewIdentityToken(id, "secret")
	require.NoError(t, err)

	parsed, err := ParseIdentity(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id.UserID, parsed.UserID)
	assert.Equal(t, "alice", parsed.Username)
}

func TestParseIdentityRejectsBadInput(t *testing.T) {
	id := Identity{UserID: uuid.New(), Username: "alice"}
	token, err := NewIdentityToken(id, "secret")
	require.NoError(t, err)

	_, err = ParseIdentity(token, "wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseIdentity("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseIdentity("", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseIdentity(token, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

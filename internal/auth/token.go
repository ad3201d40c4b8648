// internal/auth/token.go
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated player identity carried by a websocket token.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

var ErrInvalidToken = errors.New("invalid identity token")

// ParseIdentity verifies an HMAC-signed identity token and extracts the
// player identity from its "sub" and "name" claims.
func ParseIdentity(tokenString, secret string) (*Identity, error) {
	if tokenString == "" || secret == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	return &Identity{UserID: userID, Username: name}, nil
}

// NewIdentityToken mints a signed identity token. Used by tests and by
// operators issuing stable identities to clients.
func NewIdentityToken(id Identity, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id.UserID.String(),
		"name": id.Username,
	})
	return token.SignedString([]byte(secret))
}

package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var _ domain.SessionIdentity = (*TokenIdentity)(nil)

// TokenIdentity reads the user ID out of the configured session token.
// The signature is never checked here: the platform API is the
// verifier, and the subject is only used locally to judge whether
// cached data belongs to the active session.
type TokenIdentity struct {
	token  string
	parser *jwt.Parser
}

func NewTokenIdentity(token string) *TokenIdentity {
	return &TokenIdentity{
		token:  token,
		parser: jwt.NewParser(),
	}
}

func (t *TokenIdentity) CurrentUserID() (string, error) {
	if t.token == "" {
		return "", fmt.Errorf("%w: no session token configured", domain.ErrUnauthenticated)
	}

	claims := jwt.MapClaims{}
	if _, _, err := t.parser.ParseUnverified(t.token, claims); err != nil {
		return "", fmt.Errorf("%w: parse session token: %v", domain.ErrUnauthenticated, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: session token has no subject", domain.ErrUnauthenticated)
	}

	return sub, nil
}

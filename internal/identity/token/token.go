// Package token issues opaque bearer tokens for token-login sessions.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/google/uuid"
)

var ErrInvalidDuration = errors.New("token: max duration must be positive")

// Generator is stateless: a token is trusted because the cookie carrying it
// is signed, not because it is recorded anywhere.
type Generator struct {
	maxDuration time.Duration
	now         func() time.Time
}

func NewGenerator(maxDuration time.Duration) (*Generator, error) {
	if maxDuration <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Generator{maxDuration: maxDuration, now: time.Now}, nil
}

// WithClock overrides the clock used to compute expiry.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate issues a 256 bit token for userID valid for the configured
// duration.
func (g *Generator) Generate(userID uuid.UUID, rememberMe bool) (session.TokenLogin, error) {
	return g.GenerateFor(userID, g.maxDuration, rememberMe)
}

// GenerateFor issues a token valid for maxDuration.
func (g *Generator) GenerateFor(userID uuid.UUID, maxDuration time.Duration, rememberMe bool) (session.TokenLogin, error) {
	if maxDuration <= 0 {
		return session.TokenLogin{}, ErrInvalidDuration
	}
	tok, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return session.TokenLogin{}, fmt.Errorf("token: %w", err)
	}
	return session.TokenLogin{
		UserID:     userID,
		Token:      tok,
		Expires:    g.now().UTC().Add(maxDuration),
		RememberMe: rememberMe,
	}, nil
}

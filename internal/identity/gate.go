// Package identity resolves the authenticated actor for every operation.
// It is the only place session tokens are interpreted; everything below it
// works with an explicit domain.Actor.
package identity

import (
	"context"
	"fmt"

	"messaging/internal/domain"
	"messaging/internal/security"
)

// Gate turns an opaque session token into a resolved actor.
type Gate struct {
	tokens *security.TokenService
	users  domain.UserRepository
}

func NewGate(tokens *security.TokenService, users domain.UserRepository) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// ResolveActor validates the token and returns the actor it identifies.
// An empty token fails with ErrUnauthenticated; a token that parses but
// does not map to an active user fails with ErrInvalidSession so callers
// can log and retry the two cases differently. Pure lookup, no side effects.
func (g *Gate) ResolveActor(ctx context.Context, token string) (domain.Actor, error) {
	if token == "" {
		return domain.Actor{}, domain.ErrUnauthenticated
	}

	userID, err := g.tokens.ParseSubject(token)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("look up token subject: %w", err)
	}
	if user == nil || !user.IsActive {
		return domain.Actor{}, domain.ErrInvalidSession
	}

	return domain.Actor{UserID: user.ID, Role: user.Role}, nil
}

// Package auth defines the identity collaborator contract. The core only
// ever needs a verified user id to scope store queries; session lifecycle
// stays with the provider.
package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated user as reported by the provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

var ErrInvalidToken = errors.New("invalid or expired token")

// Provider verifies bearer tokens and resolves user ids to identities.
type Provider interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
	UserByID(ctx context.Context, id string) (Identity, error)
}

// Static is a fixed token-to-identity map for development and tests.
type Static struct {
	tokens map[string]Identity
}

func NewStatic(tokens map[string]Identity) *Static {
	return &Static{tokens: tokens}
}

func (s *Static) VerifyToken(_ context.Context, token string) (Identity, error) {
	id, ok := s.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

func (s *Static) UserByID(_ context.Context, userID string) (Identity, error) {
	for _, id := range s.tokens {
		if id.ID == userID {
			return id, nil
		}
	}
	return Identity{}, ErrInvalidToken
}

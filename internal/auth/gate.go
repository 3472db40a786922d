package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/repositories"
)

// UserLookup loads the live user record behind a token subject.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenValidator verifies session tokens and returns their subject.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Policy names the access check an operation requires.
type Policy int

const (
	// PolicyNone admits anonymous callers.
	PolicyNone Policy = iota
	// PolicyAuthenticated admits any caller with a valid token for a live user.
	PolicyAuthenticated
	// PolicyApprovedOrAdmin admits approved users and admins.
	PolicyApprovedOrAdmin
	// PolicyAdmin admits admins only.
	PolicyAdmin
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyAuthenticated:
		return "authenticated"
	case PolicyApprovedOrAdmin:
		return "approved_or_admin"
	case PolicyAdmin:
		return "admin"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Gate resolves request identities and enforces role policies.
type Gate struct {
	Users  UserLookup
	Tokens TokenValidator
}

// NewGate constructs a Gate.
func NewGate(users UserLookup, tokens TokenValidator) *Gate {
	return &Gate{Users: users, Tokens: tokens}
}

// ResolveIdentity maps a bearer token to the identity of a live user. Tokens
// whose subject no longer exists are rejected like invalid tokens.
func (g *Gate) ResolveIdentity(ctx context.Context, token string) (models.Identity, error) {
	if g == nil || g.Users == nil || g.Tokens == nil {
		return models.Identity{}, errors.New("authorization gate is not configured")
	}

	subject, err := g.Tokens.Validate(token)
	if err != nil {
		return models.Identity{}, ErrUnauthenticated
	}

	user, err := g.Users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Identity{}, ErrUnauthenticated
		}
		return models.Identity{}, fmt.Errorf("load identity: %w", err)
	}

	return models.IdentityFor(user), nil
}

// Authorize checks identity against policy. Callers pass the zero Identity for
// anonymous requests.
func Authorize(identity models.Identity, policy Policy) error {
	switch policy {
	case PolicyNone:
		return nil
	case PolicyAuthenticated:
		if identity.ID == "" {
			return ErrUnauthenticated
		}
		return nil
	case PolicyApprovedOrAdmin:
		if identity.ID == "" {
			return ErrUnauthenticated
		}
		return RequireApprovedOrAdmin(identity)
	case PolicyAdmin:
		if identity.ID == "" {
			return ErrUnauthenticated
		}
		return RequireAdmin(identity)
	default:
		return ErrForbidden
	}
}

// RequireAdmin passes only admins.
func RequireAdmin(identity models.Identity) error {
	if !identity.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireApprovedOrAdmin passes approved users and admins.
func RequireApprovedOrAdmin(identity models.Identity) error {
	if identity.IsApproved || identity.IsAdmin {
		return nil
	}
	return ErrForbidden
}

// RequireAdminNotSelf passes admins acting on someone other than themselves.
// It keeps an admin from revoking their own access.
func RequireAdminNotSelf(identity models.Identity, targetID string) error {
	if err := RequireAdmin(identity); err != nil {
		return err
	}
	if identity.ID == targetID {
		return ErrForbidden
	}
	return nil
}

type identityKey struct{}

// WithIdentity stores the resolved identity on the context.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	if ctx == nil {
		return models.Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok && identity.ID != ""
}

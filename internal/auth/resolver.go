package auth

import (
	"errors"

	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"
)

// PrincipalStore looks principals up by username. It returns
// apperrors.ErrUserNotFound when no such user exists.
type PrincipalStore interface {
	GetUserByUsername(username string) (*models.User, error)
}

// Resolver turns a bearer token into the principal making the request.
type Resolver struct {
	tokens *TokenService
	users  PrincipalStore
}

// NewResolver creates a Resolver.
func NewResolver(tokens *TokenService, users PrincipalStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve validates token and loads its subject. Token failures become
// ErrInvalidToken, a vanished subject ErrPrincipalNotFound and a disabled one
// ErrInactiveAccount; the original cause stays reachable through Unwrap.
// The returned principal never carries the password hash.
func (r *Resolver) Resolve(token string) (*models.User, error) {
	claims, err := r.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	user, err := r.users.GetUserByUsername(claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrPrincipalNotFound, err)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}

	principal := *user
	principal.Password = ""
	return &principal, nil
}

// FailureReason classifies an authentication error for logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, apperrors.ErrPrincipalNotFound):
		return "user_not_found"
	case errors.Is(err, apperrors.ErrInactiveAccount):
		return "inactive"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "missing_credentials"
	default:
		return "other"
	}
}

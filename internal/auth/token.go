package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTTL is the fixed lifetime of an access token.
	TokenTTL = 24 * time.Hour
	issuer   = "gatehouse"
)

// Token validation failures. Callers map all of them to a single 401; the
// distinction is kept for logs and metrics.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrExpiredToken   = errors.New("token expired")
)

// Claims is the payload of an access token. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Keyring holds the HMAC secrets tokens may be signed with, indexed by key id.
// Only the active key signs; the others still verify during rotation.
type Keyring struct {
	activeID string
	keys     map[string][]byte
}

// NewKeyring creates a Keyring whose active key is secrets[activeID].
func NewKeyring(activeID string, secrets map[string]string) (*Keyring, error) {
	if activeID == "" {
		return nil, errors.New("active key id is required")
	}
	keys := make(map[string][]byte, len(secrets))
	for kid, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("secret for key %q is empty", kid)
		}
		keys[kid] = []byte(secret)
	}
	if _, ok := keys[activeID]; !ok {
		return nil, fmt.Errorf("active key %q has no secret", activeID)
	}
	return &Keyring{activeID: activeID, keys: keys}, nil
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// TokenService issues and validates stateless HS256 bearer tokens.
type TokenService struct {
	keys *Keyring
	now  func() time.Time
}

// NewTokenService creates a TokenService backed by keys.
func NewTokenService(keys *Keyring, opts ...TokenOption) *TokenService {
	s := &TokenService{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for username that expires TokenTTL from now.
func (s *TokenService) Issue(username string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", time.Time{}, errors.New("username is required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(TokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = s.keys.activeID
	signed, err := token.SignedString(s.keys.keys[s.keys.activeID])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature, algorithm and expiry of tokenString and
// returns its claims. Failures are ErrMalformedToken, ErrBadSignature or
// ErrExpiredToken, wrapping the parser's error.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFor,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrBadSignature
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	return claims, nil
}

// keyFor selects the verification secret named by the kid header. Tokens
// without a kid are checked against the active key.
func (s *TokenService) keyFor(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		kid = s.keys.activeID
	}
	key, ok := s.keys.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret  = "0123456789abcdef0123456789abcdef"
	otherSecret = "fedcba9876543210fedcba9876543210"
)

func newTestTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	keys, err := NewKeyring("primary", map[string]string{"primary": testSecret})
	if err != nil {
		t.Fatalf("failed to build keyring: %v", err)
	}
	return NewTokenService(keys, opts...)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	token, expiresAt, err := svc.Issue("bruce.wayne")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := time.Until(expiresAt); ttl < TokenTTL-time.Minute || ttl > TokenTTL {
		t.Errorf("expected expiry ~24h ahead, got %v", ttl)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("expected fresh token to validate, got %v", err)
	}
	if claims.Subject != "bruce.wayne" {
		t.Errorf("expected subject bruce.wayne, got %s", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestTokenService_IssueRequiresUsername(t *testing.T) {
	svc := newTestTokenService(t)
	if _, _, err := svc.Issue("  "); err == nil {
		t.Fatal("expected error for blank username")
	}
}

func TestTokenService_Expired(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-TokenTTL - time.Minute) }
	issuer := newTestTokenService(t, WithClock(past))
	token, _, err := issuer.Issue("bruce.wayne")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = newTestTokenService(t).Validate(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Now().Truncate(time.Second)
	svc := newTestTokenService(t, WithClock(func() time.Time { return issuedAt }))
	token, _, err := svc.Issue("lucius.fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	justBefore := newTestTokenService(t, WithClock(func() time.Time { return issuedAt.Add(TokenTTL - time.Second) }))
	if _, err := justBefore.Validate(token); err != nil {
		t.Errorf("expected token valid one second before expiry, got %v", err)
	}

	atExpiry := newTestTokenService(t, WithClock(func() time.Time { return issuedAt.Add(TokenTTL) }))
	if _, err := atExpiry.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken at expiry, got %v", err)
	}
}

func TestTokenService_Forgery(t *testing.T) {
	svc := newTestTokenService(t)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "bruce.wayne",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	t.Run("different_secret", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(otherSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(forged); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("alg_none", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(forged); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("mismatched_algorithm", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(forged); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("tampered_payload", func(t *testing.T) {
		token, _, err := svc.Issue("alfred.pennyworth")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parts := strings.Split(token, ".")
		impostor, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(otherSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		parts[1] = strings.Split(impostor, ".")[1]
		if _, err := svc.Validate(strings.Join(parts, ".")); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})

	t.Run("unknown_key_id", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tok.Header["kid"] = "retired"
		forged, err := tok.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(forged); !errors.Is(err, ErrBadSignature) {
			t.Errorf("expected ErrBadSignature, got %v", err)
		}
	})
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokenService(t)

	for _, token := range []string{"", "not-a-token", "a.b.c", "e30.e30"} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Validate(%q): expected ErrMalformedToken, got %v", token, err)
		}
	}

	t.Run("missing_subject", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		signed, err := tok.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(signed); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("expected ErrMalformedToken, got %v", err)
		}
	})

	t.Run("missing_expiry", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  issuer,
			Subject: "bruce.wayne",
		}})
		signed, err := tok.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := svc.Validate(signed); err == nil {
			t.Error("expected token without exp to be rejected")
		}
	})
}

func TestTokenService_KeyRotation(t *testing.T) {
	oldKeys, err := NewKeyring("2025", map[string]string{"2025": otherSecret})
	if err != nil {
		t.Fatalf("failed to build keyring: %v", err)
	}
	oldToken, _, err := NewTokenService(oldKeys).Issue("lucius.fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rotated, err := NewKeyring("2026", map[string]string{"2026": testSecret, "2025": otherSecret})
	if err != nil {
		t.Fatalf("failed to build keyring: %v", err)
	}
	svc := NewTokenService(rotated)

	if _, err := svc.Validate(oldToken); err != nil {
		t.Errorf("expected token signed with previous key to validate, got %v", err)
	}

	newToken, _, err := svc.Issue("lucius.fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(newToken, &Claims{})
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if parsed.Header["kid"] != "2026" {
		t.Errorf("expected new tokens signed with active key 2026, got %v", parsed.Header["kid"])
	}

	retired, err := NewKeyring("2026", map[string]string{"2026": testSecret})
	if err != nil {
		t.Fatalf("failed to build keyring: %v", err)
	}
	if _, err := NewTokenService(retired).Validate(oldToken); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected retired key to be rejected, got %v", err)
	}
}

func TestNewKeyring(t *testing.T) {
	if _, err := NewKeyring("", map[string]string{"a": testSecret}); err == nil {
		t.Error("expected error for empty active id")
	}
	if _, err := NewKeyring("a", map[string]string{"b": testSecret}); err == nil {
		t.Error("expected error when active key is missing")
	}
	if _, err := NewKeyring("a", map[string]string{"a": ""}); err == nil {
		t.Error("expected error for empty secret")
	}
}

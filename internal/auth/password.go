// Package auth implements credential hashing, bearer token issuance and
// validation, the role-to-access-level policy, and identity resolution.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hash input errors.
var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = fmt.Errorf("password cannot exceed %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

const (
	argon2Prefix = "$argon2id$"

	// Legacy hash parameter ceilings, in KiB and passes.
	maxArgon2Memory     = 1 << 20
	maxArgon2Iterations = 64
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Verify reports whether password matches hash. It never errors: a
	// malformed hash or a cancelled context is simply a mismatch.
	Verify(ctx context.Context, password, hash string) bool
	// NeedsUpgrade reports whether hash should be replaced by a fresh Hash.
	NeedsUpgrade(hash string) bool
}

// HasherConfig tunes a Hasher.
type HasherConfig struct {
	Cost         int
	Workers      int
	AcceptArgon2 bool
}

// Hasher hashes with bcrypt and, when configured, verifies legacy argon2id
// PHC strings. Every operation runs under a weighted semaphore so at most
// Workers hashes are computed at once.
type Hasher struct {
	cost         int
	acceptArgon2 bool
	slots        *semaphore.Weighted
}

var _ PasswordHasher = (*Hasher)(nil)

// NewHasher creates a Hasher. Zero values select bcrypt.DefaultCost and
// GOMAXPROCS workers.
func NewHasher(cfg HasherConfig) *Hasher {
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost {
		cfg.Cost = bcrypt.MinCost
	}
	if cfg.Cost > bcrypt.MaxCost {
		cfg.Cost = bcrypt.MaxCost
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Hasher{
		cost:         cfg.Cost,
		acceptArgon2: cfg.AcceptArgon2,
		slots:        semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks password against a bcrypt hash, or an argon2id hash when
// legacy verification is enabled.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	if hash == "" {
		return false
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	if strings.HasPrefix(hash, argon2Prefix) {
		if !h.acceptArgon2 {
			return false
		}
		ok, err := verifyArgon2id(password, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsUpgrade is true for any non-bcrypt hash and for bcrypt hashes below
// the configured cost.
func (h *Hasher) NeedsUpgrade(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

// verifyArgon2id checks password against $argon2id$v=19$m=..,t=..,p=..$salt$hash.
func verifyArgon2id(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("parsing parameters: %w", err)
	}
	if threads == 0 || threads > 255 || iterations == 0 || iterations > maxArgon2Iterations {
		return false, fmt.Errorf("invalid argon2 parameters")
	}
	if memory < 8*threads || memory > maxArgon2Memory {
		return false, fmt.Errorf("argon2 memory %d KiB out of range", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding hash: %w", err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return false, fmt.Errorf("invalid hash length %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

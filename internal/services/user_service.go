package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/logger"
	"gatehouse/internal/models"
	"gatehouse/internal/pagination"

	"gorm.io/gorm"
)

// userService handles user-related business logic.
type userService struct {
	db     *gorm.DB
	hasher auth.PasswordHasher
	audit  AuditServicer

	decoyMu   sync.Mutex
	decoyHash string
}

var _ auth.PrincipalStore = (*userService)(nil)

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, hasher auth.PasswordHasher, audit AuditServicer) UserServicer {
	return &userService{db: db, hasher: hasher, audit: audit}
}

// CreateUser registers a new principal. Only security administrators may
// register users.
func (s *userService) CreateUser(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if err := auth.Require(actor, auth.LevelSecurityAdmin); err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}
	if !input.Role.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be one of employee, manager, security_admin")
	}

	// Soft-deleted rows still hold their unique index entries.
	var count int64
	if err := s.db.Unscoped().Model(&models.User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUser
	}

	hashed, err := s.hasher.Hash(ctx, input.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:    input.Username,
		Email:       input.Email,
		FullName:    input.FullName,
		Password:    hashed,
		Role:        input.Role,
		Department:  input.Department,
		IsActive:    true,
		AccessLevel: auth.LevelFor(input.Role),
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateUser
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(actor, "Created User: "+user.Username, nil, LocationSecurityPortal, models.AccessStatusSuccess)
	return user, nil
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords yield the same error.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Unknown users pay for a verify too, so timing does not reveal them.
			s.hasher.Verify(ctx, password, s.decoy(ctx))
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(ctx, password, user.Password) {
		s.audit.Record(user, "Failed Login", nil, LocationSecurityPortal, models.AccessStatusDenied)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}

	if s.hasher.NeedsUpgrade(user.Password) {
		s.upgradeHash(ctx, user, password)
	}

	s.audit.Record(user, "System Login", nil, LocationSecurityPortal, models.AccessStatusSuccess)
	return user, nil
}

// decoy returns a hash at the current parameters for verifying against when
// no user matches.
func (s *userService) decoy(ctx context.Context) string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()
	if s.decoyHash == "" {
		hashed, err := s.hasher.Hash(ctx, "gatehouse-decoy-password")
		if err != nil {
			logger.Get().Warnw("failed to build decoy password hash", "error", err)
			return ""
		}
		s.decoyHash = hashed
	}
	return s.decoyHash
}

// upgradeHash rehashes password at the current parameters. Failure leaves the
// old hash in place.
func (s *userService) upgradeHash(ctx context.Context, user *models.User, password string) {
	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		logger.Get().Warnw("failed to rehash password", "error", err, "username", user.Username)
		return
	}
	if err := s.db.Model(user).Update("password", hashed).Error; err != nil {
		logger.Get().Warnw("failed to store upgraded password hash", "error", err, "username", user.Username)
		return
	}
	logger.Get().Infow("upgraded password hash", "username", user.Username)
}

// GetUserByUsername retrieves a user by username, active or not.
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns up to limit users ordered by username. Requires manager level.
func (s *userService) ListUsers(actor *models.User, limit int) ([]models.User, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := s.db.Order("username ASC").Limit(pagination.Clamp(limit, MaxUsers)).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return users, nil
}

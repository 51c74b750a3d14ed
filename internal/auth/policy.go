package auth

import (
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"
)

// Access levels, totally ordered: a higher level may do everything a lower one may.
const (
	LevelEmployee      = 1
	LevelManager       = 2
	LevelSecurityAdmin = 3
)

// accessLevels is the only place roles are translated into access levels.
var accessLevels = map[models.Role]int{
	models.RoleEmployee:      LevelEmployee,
	models.RoleManager:       LevelManager,
	models.RoleSecurityAdmin: LevelSecurityAdmin,
}

// LevelFor returns the access level granted by role, or 0 for an unknown role.
func LevelFor(role models.Role) int {
	return accessLevels[role]
}

// Require returns nil when principal holds at least minLevel, ErrForbidden
// when it does not, and ErrUnauthorized when there is no principal at all.
func Require(principal *models.User, minLevel int) error {
	if principal == nil {
		return apperrors.ErrUnauthorized
	}
	if principal.AccessLevel < minLevel {
		return apperrors.ErrForbidden
	}
	return nil
}

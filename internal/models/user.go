package models

// Role is a principal's organisational role. It determines the access level.
type Role string

const (
	RoleEmployee      Role = "employee"
	RoleManager       Role = "manager"
	RoleSecurityAdmin Role = "security_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleSecurityAdmin:
		return true
	}
	return false
}

// User represents an authenticated principal of the portal.
type User struct {
	Base
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	FullName    string `gorm:"not null" json:"full_name"`
	Password    string `gorm:"not null" json:"-"`
	Role        Role   `gorm:"not null" json:"role"`
	Department  string `json:"department"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
	AccessLevel int    `gorm:"not null" json:"access_level"`
}

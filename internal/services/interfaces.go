package services

import (
	"context"
	"time"

	"gatehouse/internal/models"
)

// List bounds applied by the record services.
const (
	MaxUsers      = 100
	MaxAccessLogs = 100
	MaxAlerts     = 50

	recentAccessLimit    = 5
	dashboardAlertsLimit = 10
)

// CreateUserInput carries the fields of a new principal. Access level is
// derived from Role and never accepted from the caller.
type CreateUserInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Role       models.Role
	Department string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ListUsers(actor *models.User, limit int) ([]models.User, error)
}

// ResourceInput carries the editable fields of a resource. Updates replace
// every field.
type ResourceInput struct {
	Name            string
	Type            string
	Category        string
	Location        string
	Status          models.ResourceStatus
	AssignedTo      *string
	Description     string
	AcquisitionDate time.Time
	LastMaintenance *time.Time
}

// ResourceServicer defines the contract for resource-related business logic.
type ResourceServicer interface {
	CreateResource(actor *models.User, input ResourceInput) (*models.Resource, error)
	ListResources() ([]models.Resource, error)
	GetResource(id string) (*models.Resource, error)
	UpdateResource(actor *models.User, id string, input ResourceInput) (*models.Resource, error)
	DeleteResource(actor *models.User, id string) error
}

// AccessLogInput carries a directly submitted access event.
type AccessLogInput struct {
	UserID     string
	UserName   string
	Action     string
	ResourceID *string
	Location   string
	Status     models.AccessStatus
}

// AccessLogServicer defines the contract for access log business logic.
type AccessLogServicer interface {
	RecordAccess(actor *models.User, input AccessLogInput) (*models.AccessLog, error)
	ListAccessLogs(actor *models.User, limit int) ([]models.AccessLog, error)
}

// AlertInput carries the fields of a new security alert.
type AlertInput struct {
	Title    string
	Message  string
	Severity models.AlertSeverity
	Location string
}

// AlertServicer defines the contract for security alert business logic.
type AlertServicer interface {
	CreateAlert(actor *models.User, input AlertInput) (*models.SecurityAlert, error)
	ListAlerts(limit int) ([]models.SecurityAlert, error)
	UpdateAlertStatus(actor *models.User, id string, status models.AlertStatus) (*models.SecurityAlert, error)
}

// Security levels reported by the dashboard.
const (
	SecurityLevelNormal = "NORMAL"
	SecurityLevelHigh   = "HIGH"
)

// DashboardCounts holds the aggregate totals shown on the dashboard.
type DashboardCounts struct {
	TotalResources       int64  `json:"total_resources"`
	ActiveResources      int64  `json:"active_resources"`
	MaintenanceResources int64  `json:"maintenance_resources"`
	TotalUsers           int64  `json:"total_users"`
	ActiveAlerts         int64  `json:"active_alerts"`
	SecurityLevel        string `json:"security_level"`
}

// DashboardStats is the dashboard payload.
type DashboardStats struct {
	Stats        DashboardCounts        `json:"stats"`
	RecentAccess []models.AccessLog     `json:"recent_access"`
	ActiveAlerts []models.SecurityAlert `json:"active_alerts"`
}

// DashboardServicer defines the contract for dashboard aggregation.
type DashboardServicer interface {
	GetStats() (*DashboardStats, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Record(actor *models.User, action string, resourceID *string, location string, status models.AccessStatus)
}

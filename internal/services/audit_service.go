package services

import (
	"gatehouse/internal/logger"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models"

	"gorm.io/gorm"
)

// Audit locations used by the services.
const (
	LocationSystem         = "System"
	LocationSecurityPortal = "Security Portal"
)

// auditService appends access log entries on behalf of other services.
type auditService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, m *metrics.Metrics) AuditServicer {
	return &auditService{db: db, metrics: m}
}

// Record appends one access log entry for actor. The write is independent of
// the operation being audited: errors are logged and counted but never
// propagate.
func (s *auditService) Record(actor *models.User, action string, resourceID *string, location string, status models.AccessStatus) {
	if actor == nil {
		return
	}

	entry := &models.AccessLog{
		UserID:     actor.Username,
		UserName:   actor.FullName,
		Action:     action,
		ResourceID: resourceID,
		Location:   location,
		Status:     status,
	}

	if err := s.db.Create(entry).Error; err != nil {
		s.metrics.AuditFailure()
		logger.Get().Errorw("failed to create access log entry",
			"error", err,
			"user_id", actor.Username,
			"action", action,
			"location", location,
		)
	}
}

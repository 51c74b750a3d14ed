package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"
	"gatehouse/internal/notify"
	"gatehouse/internal/pagination"
	"gatehouse/internal/uuid"

	"gorm.io/gorm"
)

// alertService handles security alert business logic.
type alertService struct {
	db       *gorm.DB
	audit    AuditServicer
	notifier notify.AlertNotifier
	now      func() time.Time
}

// NewAlertService creates a new AlertServicer. A nil notifier discards events.
func NewAlertService(db *gorm.DB, audit AuditServicer, notifier notify.AlertNotifier) AlertServicer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &alertService{db: db, audit: audit, notifier: notifier, now: time.Now}
}

// CreateAlert raises a new active alert. Requires manager level.
func (s *alertService) CreateAlert(actor *models.User, input AlertInput) (*models.SecurityAlert, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !input.Severity.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "severity must be one of low, medium, high, critical")
	}

	alert := &models.SecurityAlert{
		Title:    input.Title,
		Message:  input.Message,
		Severity: input.Severity,
		Location: input.Location,
		Status:   models.AlertStatusActive,
	}
	if err := s.db.Create(alert).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(actor, "Created Security Alert: "+alert.Title, nil, alert.Location, models.AccessStatusSuccess)
	s.notifier.AlertChanged(notify.AlertEvent{Event: notify.EventCreated, Actor: actor.Username, At: alert.CreatedAt, Alert: alert})
	return alert, nil
}

// ListAlerts returns up to limit alerts, newest first.
func (s *alertService) ListAlerts(limit int) ([]models.SecurityAlert, error) {
	alerts := []models.SecurityAlert{}
	if err := s.db.Scopes(pagination.Newest("created_at", pagination.Clamp(limit, MaxAlerts))).Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alerts, nil
}

// UpdateAlertStatus moves an alert to status. Entering resolved stamps
// resolved_at in the same statement; reopening keeps the previous stamp.
// Requires manager level.
func (s *alertService) UpdateAlertStatus(actor *models.User, id string, status models.AlertStatus) (*models.SecurityAlert, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.ErrInvalidAlertStatus
	}

	alert, err := s.getAlert(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if status == models.AlertStatusResolved {
		updates["resolved_at"] = s.now().UTC()
	}

	result := s.db.Model(alert).Updates(updates)
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrAlertNotFound
	}

	updated, err := s.getAlert(id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(actor, fmt.Sprintf("Updated Security Alert: %s (%s)", updated.Title, status), nil, updated.Location, models.AccessStatusSuccess)
	s.notifier.AlertChanged(notify.AlertEvent{Event: notify.EventStatusChanged, Actor: actor.Username, At: updated.UpdatedAt, Alert: updated})
	return updated, nil
}

func (s *alertService) getAlert(id string) (*models.SecurityAlert, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrAlertNotFound
	}

	var alert models.SecurityAlert
	if err := s.db.Where("id = ?", id).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &alert, nil
}

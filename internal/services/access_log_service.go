package services

import (
	"strings"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/logger"
	"gatehouse/internal/models"
	"gatehouse/internal/pagination"

	"gorm.io/gorm"
)

// accessLogService handles access log business logic.
type accessLogService struct {
	db *gorm.DB
}

// NewAccessLogService creates a new AccessLogServicer.
func NewAccessLogService(db *gorm.DB) AccessLogServicer {
	return &accessLogService{db: db}
}

// RecordAccess appends a submitted access event. Any authenticated principal
// may record events; the submitted identity is stored as given.
func (s *accessLogService) RecordAccess(actor *models.User, input AccessLogInput) (*models.AccessLog, error) {
	if err := auth.Require(actor, auth.LevelEmployee); err != nil {
		return nil, err
	}

	input.UserID = strings.TrimSpace(input.UserID)
	input.Action = strings.TrimSpace(input.Action)
	if input.UserID == "" || input.Action == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user_id and action are required")
	}
	if input.Status == "" {
		input.Status = models.AccessStatusSuccess
	}
	if !input.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be one of success, denied, warning")
	}

	if input.UserID != actor.Username {
		logger.Get().Warnw("access log submitted for another user",
			"caller", actor.Username,
			"user_id", input.UserID,
			"action", input.Action,
		)
	}

	entry := &models.AccessLog{
		UserID:     input.UserID,
		UserName:   input.UserName,
		Action:     input.Action,
		ResourceID: input.ResourceID,
		Location:   input.Location,
		Status:     input.Status,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// ListAccessLogs returns up to limit entries, newest first. Requires manager level.
func (s *accessLogService) ListAccessLogs(actor *models.User, limit int) ([]models.AccessLog, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}

	logs := []models.AccessLog{}
	if err := s.db.Scopes(pagination.Newest("timestamp", pagination.Clamp(limit, MaxAccessLogs))).Find(&logs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return logs, nil
}

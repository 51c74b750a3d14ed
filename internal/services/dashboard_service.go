package services

import (
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"
	"gatehouse/internal/pagination"

	"gorm.io/gorm"
)

// dashboardService aggregates portal-wide figures.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

// GetStats returns resource, user and alert totals, the most recent access
// events and the open alerts.
func (s *dashboardService) GetStats() (*DashboardStats, error) {
	var counts DashboardCounts

	queries := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&counts.TotalResources, s.db.Model(&models.Resource{})},
		{&counts.ActiveResources, s.db.Model(&models.Resource{}).Where("status = ?", models.ResourceStatusActive)},
		{&counts.MaintenanceResources, s.db.Model(&models.Resource{}).Where("status = ?", models.ResourceStatusMaintenance)},
		{&counts.TotalUsers, s.db.Model(&models.User{})},
		{&counts.ActiveAlerts, s.db.Model(&models.SecurityAlert{}).Where("status = ?", models.AlertStatusActive)},
	}
	for _, q := range queries {
		if err := q.query.Count(q.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	counts.SecurityLevel = SecurityLevelNormal
	if counts.ActiveAlerts > 0 {
		counts.SecurityLevel = SecurityLevelHigh
	}

	recent := []models.AccessLog{}
	if err := s.db.Scopes(pagination.Newest("timestamp", recentAccessLimit)).Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	alerts := []models.SecurityAlert{}
	if err := s.db.
		Where("status IN ?", []models.AlertStatus{models.AlertStatusActive, models.AlertStatusInvestigating}).
		Scopes(pagination.Newest("created_at", dashboardAlertsLimit)).
		Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &DashboardStats{Stats: counts, RecentAccess: recent, ActiveAlerts: alerts}, nil
}

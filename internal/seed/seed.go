// Package seed populates an empty database with the portal's demo data.
package seed

import (
	"context"
	"fmt"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/logger"
	"gatehouse/internal/models"

	"gorm.io/gorm"
)

type defaultUser struct {
	username, email, fullName, password, department string
	role                                            models.Role
}

var defaultUsers = []defaultUser{
	{"bruce.wayne", "bruce@wayneindustries.com", "Bruce Wayne", "batman123", "Executive", models.RoleSecurityAdmin},
	{"lucius.fox", "lucius@wayneindustries.com", "Lucius Fox", "foxtech123", "R&D", models.RoleManager},
	{"alfred.pennyworth", "alfred@wayneindustries.com", "Alfred Pennyworth", "alfred123", "Security", models.RoleEmployee},
}

func strPtr(s string) *string { return &s }

func defaultResources() []models.Resource {
	return []models.Resource{
		{
			Name:            "Tumbler",
			Type:            "vehicle",
			Category:        "Armored Vehicle",
			Location:        "Cave Garage Level B3",
			Status:          models.ResourceStatusActive,
			AssignedTo:      strPtr("bruce.wayne"),
			Description:     "Advanced armored vehicle with stealth capabilities",
			AcquisitionDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			CreatedBy:       "bruce.wayne",
		},
		{
			Name:            "Batsuit Mark VII",
			Type:            "equipment",
			Category:        "Protective Gear",
			Location:        "Equipment Vault A",
			Status:          models.ResourceStatusActive,
			AssignedTo:      strPtr("bruce.wayne"),
			Description:     "Advanced tactical protection suit with integrated systems",
			AcquisitionDate: time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC),
			CreatedBy:       "lucius.fox",
		},
		{
			Name:            "Perimeter Sensors Array",
			Type:            "security_device",
			Category:        "Surveillance",
			Location:        "Building Perimeter",
			Status:          models.ResourceStatusActive,
			Description:     "Advanced motion detection and surveillance system",
			AcquisitionDate: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC),
			CreatedBy:       "lucius.fox",
		},
	}
}

func defaultAccessLogs(now time.Time) []models.AccessLog {
	return []models.AccessLog{
		{
			UserID:    "bruce.wayne",
			UserName:  "Bruce Wayne",
			Action:    "Accessed Cave Garage",
			Location:  "Cave Garage Level B3",
			Status:    models.AccessStatusSuccess,
			Timestamp: now.Add(-2 * time.Hour),
		},
		{
			UserID:    "lucius.fox",
			UserName:  "Lucius Fox",
			Action:    "Equipment Inspection",
			Location:  "R&D Lab",
			Status:    models.AccessStatusSuccess,
			Timestamp: now.Add(-4 * time.Hour),
		},
	}
}

func defaultAlerts() []models.SecurityAlert {
	return []models.SecurityAlert{
		{
			Title:    "Unauthorized Access Attempt",
			Message:  "Failed login attempts detected from external IP",
			Severity: models.AlertSeverityMedium,
			Location: "Main Entrance",
			Status:   models.AlertStatusInvestigating,
		},
		{
			Title:    "Equipment Maintenance Due",
			Message:  "Perimeter sensors require scheduled maintenance",
			Severity: models.AlertSeverityLow,
			Location: "Building Perimeter",
			Status:   models.AlertStatusActive,
		},
	}
}

// Seeder writes the default data set.
type Seeder struct {
	db     *gorm.DB
	hasher auth.PasswordHasher
	now    func() time.Time
}

// New creates a Seeder.
func New(db *gorm.DB, hasher auth.PasswordHasher) *Seeder {
	return &Seeder{db: db, hasher: hasher, now: time.Now}
}

// Run writes the default data when the users table is empty and reports
// whether it did. Everything is written in one transaction.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		logger.Named("seed").Infow("skipping default data, users already present", "users", count)
		return false, nil
	}

	users := make([]models.User, 0, len(defaultUsers))
	for _, u := range defaultUsers {
		hash, err := s.hasher.Hash(ctx, u.password)
		if err != nil {
			return false, fmt.Errorf("hashing password for %s: %w", u.username, err)
		}
		users = append(users, models.User{
			Username:    u.username,
			Email:       u.email,
			FullName:    u.fullName,
			Password:    hash,
			Role:        u.role,
			Department:  u.department,
			IsActive:    true,
			AccessLevel: auth.LevelFor(u.role),
		})
	}

	resources := defaultResources()
	logs := defaultAccessLogs(s.now().UTC())
	alerts := defaultAlerts()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("creating users: %w", err)
		}
		if err := tx.Create(&resources).Error; err != nil {
			return fmt.Errorf("creating resources: %w", err)
		}
		if err := tx.Create(&logs).Error; err != nil {
			return fmt.Errorf("creating access logs: %w", err)
		}
		if err := tx.Create(&alerts).Error; err != nil {
			return fmt.Errorf("creating alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Named("seed").Infow("default data created",
		"users", len(users),
		"resources", len(resources),
		"access_logs", len(logs),
		"alerts", len(alerts),
	)
	return true, nil
}

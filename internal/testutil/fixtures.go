package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with the given role and a unique username.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()), role)
}

// CreateTestUserWithUsername creates an active user with the given username and role.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:    username,
		Email:       username + "@test.com",
		FullName:    "Test " + username,
		Password:    string(hash),
		Role:        role,
		Department:  "Testing",
		IsActive:    true,
		AccessLevel: auth.LevelFor(role),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestResource creates an active resource owned by createdBy.
func CreateTestResource(t *testing.T, db *gorm.DB, createdBy string) *models.Resource {
	t.Helper()
	return CreateTestResourceWithStatus(t, db, createdBy, models.ResourceStatusActive)
}

// CreateTestResourceWithStatus creates a resource in the given status.
func CreateTestResourceWithStatus(t *testing.T, db *gorm.DB, createdBy string, status models.ResourceStatus) *models.Resource {
	t.Helper()

	resource := &models.Resource{
		Name:            fmt.Sprintf("Test Resource %d", nextID()),
		Type:            "equipment",
		Category:        "Protective Gear",
		Location:        "Equipment Vault A",
		Status:          status,
		Description:     "fixture",
		AcquisitionDate: time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:       createdBy,
	}
	if err := db.Create(resource).Error; err != nil {
		t.Fatalf("failed to create test resource: %v", err)
	}
	return resource
}

// CreateTestAccessLog creates an access log entry at the given time.
func CreateTestAccessLog(t *testing.T, db *gorm.DB, username, action string, at time.Time) *models.AccessLog {
	t.Helper()

	entry := &models.AccessLog{
		UserID:    username,
		UserName:  "Test " + username,
		Action:    action,
		Location:  "Main Entrance",
		Status:    models.AccessStatusSuccess,
		Timestamp: at,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test access log: %v", err)
	}
	return entry
}

// CreateTestAlert creates a security alert in the given status.
func CreateTestAlert(t *testing.T, db *gorm.DB, status models.AlertStatus) *models.SecurityAlert {
	t.Helper()

	alert := &models.SecurityAlert{
		Title:    fmt.Sprintf("Test Alert %d", nextID()),
		Message:  "fixture",
		Severity: models.AlertSeverityMedium,
		Location: "Main Entrance",
		Status:   status,
	}
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to create test alert: %v", err)
	}
	return alert
}

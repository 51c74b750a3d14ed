package testutil

import (
	"errors"
	"testing"

	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"

	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAccessLogged checks that exactly one access log entry by username
// with the given action exists and returns it.
func AssertAccessLogged(t *testing.T, db *gorm.DB, username, action string) *models.AccessLog {
	t.Helper()

	var entries []models.AccessLog
	if err := db.Where("user_id = ? AND action = ?", username, action).Find(&entries).Error; err != nil {
		t.Fatalf("failed to query access logs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 %q entry for %s, got %d", action, username, len(entries))
	}
	return &entries[0]
}

// AssertNotLogged fails the test if any access log entry has the given action.
func AssertNotLogged(t *testing.T, db *gorm.DB, action string) {
	t.Helper()

	var count int64
	if err := db.Model(&models.AccessLog{}).Where("action = ?", action).Count(&count).Error; err != nil {
		t.Fatalf("failed to count access logs: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no %q entries, got %d", action, count)
	}
}

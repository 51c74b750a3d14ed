package services

import (
	"context"
	"testing"

	"gatehouse/internal/auth"
	"gatehouse/internal/models"
	"gatehouse/internal/notify"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestHasher() *auth.Hasher {
	return auth.NewHasher(auth.HasherConfig{Cost: bcrypt.MinCost, Workers: 2})
}

// countingHasher counts verifications against a non-empty hash.
type countingHasher struct {
	*auth.Hasher
	verified int
}

func (h *countingHasher) Verify(ctx context.Context, password, hash string) bool {
	if hash != "" {
		h.verified++
	}
	return h.Hasher.Verify(ctx, password, hash)
}

// recordingNotifier captures alert events.
type recordingNotifier struct {
	events []notify.AlertEvent
}

func (n *recordingNotifier) AlertChanged(event notify.AlertEvent) {
	n.events = append(n.events, event)
}

// accessLogs returns every access log entry with the given action.
func accessLogs(t *testing.T, db *gorm.DB, action string) []models.AccessLog {
	t.Helper()
	var logs []models.AccessLog
	if err := db.Where("action = ?", action).Find(&logs).Error; err != nil {
		t.Fatalf("failed to query access logs: %v", err)
	}
	return logs
}

// Package notify fans security alert changes out to external subscribers.
package notify

import (
	"time"

	"gatehouse/internal/models"
)

// Alert event kinds.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
)

// AlertEvent describes a change to a security alert.
type AlertEvent struct {
	Event string                `json:"event"`
	Actor string                `json:"actor"`
	At    time.Time             `json:"at"`
	Alert *models.SecurityAlert `json:"alert"`
}

// AlertNotifier publishes alert events. Implementations must not block the
// caller for long and never fail the originating request.
type AlertNotifier interface {
	AlertChanged(event AlertEvent)
}

// Nop discards every event.
type Nop struct{}

// AlertChanged implements AlertNotifier.
func (Nop) AlertChanged(AlertEvent) {}

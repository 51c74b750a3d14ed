package models

import "time"

// AlertSeverity grades a security alert.
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityLow, AlertSeverityMedium, AlertSeverityHigh, AlertSeverityCritical:
		return true
	}
	return false
}

// AlertStatus is the triage state of a security alert.
type AlertStatus string

const (
	AlertStatusActive        AlertStatus = "active"
	AlertStatusInvestigating AlertStatus = "investigating"
	AlertStatusResolved      AlertStatus = "resolved"
)

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusInvestigating, AlertStatusResolved:
		return true
	}
	return false
}

// SecurityAlert is a raised security event awaiting triage.
// ResolvedAt is stamped when the alert enters the resolved state and is kept
// if the alert is later reopened.
type SecurityAlert struct {
	Base
	Title      string        `gorm:"not null" json:"title"`
	Message    string        `json:"message"`
	Severity   AlertSeverity `gorm:"not null" json:"severity"`
	Location   string        `json:"location"`
	Status     AlertStatus   `gorm:"not null;default:'active';index" json:"status"`
	ResolvedAt *time.Time    `json:"resolved_at"`
}

package models

import "time"

// ResourceStatus is the lifecycle state of a tracked resource.
type ResourceStatus string

const (
	ResourceStatusActive      ResourceStatus = "active"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
	ResourceStatusInactive    ResourceStatus = "inactive"
	ResourceStatusAssigned    ResourceStatus = "assigned"
)

// Valid reports whether s is a known resource status.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusActive, ResourceStatusMaintenance, ResourceStatusInactive, ResourceStatusAssigned:
		return true
	}
	return false
}

// Resource is a tracked physical or security asset (vehicle, equipment, sensor).
type Resource struct {
	Base
	Name            string         `gorm:"not null" json:"name"`
	Type            string         `gorm:"not null" json:"type"`
	Category        string         `json:"category"`
	Location        string         `json:"location"`
	Status          ResourceStatus `gorm:"not null;default:'active';index" json:"status"`
	AssignedTo      *string        `json:"assigned_to"`
	Description     string         `json:"description"`
	AcquisitionDate time.Time      `json:"acquisition_date"`
	LastMaintenance *time.Time     `json:"last_maintenance"`
	CreatedBy       string         `gorm:"not null" json:"created_by"`
}

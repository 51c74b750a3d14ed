package services

import (
	"errors"
	"strings"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/models"
	"gatehouse/internal/uuid"

	"gorm.io/gorm"
)

// resourceService handles resource-related business logic.
type resourceService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewResourceService creates a new ResourceServicer.
func NewResourceService(db *gorm.DB, audit AuditServicer) ResourceServicer {
	return &resourceService{db: db, audit: audit}
}

// CreateResource creates a resource owned by actor. Requires manager level.
func (s *resourceService) CreateResource(actor *models.User, input ResourceInput) (*models.Resource, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	resource := &models.Resource{CreatedBy: actor.Username}
	apply(resource, input)

	if err := s.db.Create(resource).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(actor, "Created Resource: "+resource.Name, &resource.ID, LocationSystem, models.AccessStatusSuccess)
	return resource, nil
}

// ListResources returns every resource, newest first.
func (s *resourceService) ListResources() ([]models.Resource, error) {
	resources := []models.Resource{}
	if err := s.db.Order("created_at DESC").Find(&resources).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resources, nil
}

// GetResource retrieves a resource by ID.
func (s *resourceService) GetResource(id string) (*models.Resource, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrResourceNotFound
	}

	var resource models.Resource
	if err := s.db.Where("id = ?", id).First(&resource).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &resource, nil
}

// UpdateResource replaces the editable fields of a resource. Requires manager
// level. An unknown id fails before anything is written.
func (s *resourceService) UpdateResource(actor *models.User, id string, input ResourceInput) (*models.Resource, error) {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return nil, err
	}

	resource, err := s.GetResource(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	apply(resource, input)
	updates := map[string]interface{}{
		"name":             resource.Name,
		"type":             resource.Type,
		"category":         resource.Category,
		"location":         resource.Location,
		"status":           resource.Status,
		"assigned_to":      resource.AssignedTo,
		"description":      resource.Description,
		"acquisition_date": resource.AcquisitionDate,
		"last_maintenance": resource.LastMaintenance,
	}
	if err := s.db.Model(resource).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(actor, "Updated Resource: "+resource.Name, &resource.ID, LocationSystem, models.AccessStatusSuccess)
	return s.GetResource(id)
}

// DeleteResource soft-deletes a resource. Requires manager level.
func (s *resourceService) DeleteResource(actor *models.User, id string) error {
	if err := auth.Require(actor, auth.LevelManager); err != nil {
		return err
	}

	resource, err := s.GetResource(id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(resource).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(actor, "Deleted Resource: "+resource.Name, &resource.ID, LocationSystem, models.AccessStatusSuccess)
	return nil
}

// validate normalizes input and checks its enumerated and referenced fields.
func (s *resourceService) validate(input *ResourceInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.TrimSpace(input.Type)
	if input.Name == "" || input.Type == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name and type are required")
	}
	if input.Status == "" {
		input.Status = models.ResourceStatusActive
	}
	if !input.Status.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be one of active, maintenance, inactive, assigned")
	}

	if input.AssignedTo != nil {
		assignee := strings.TrimSpace(*input.AssignedTo)
		if assignee == "" {
			input.AssignedTo = nil
			return nil
		}
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", assignee).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return apperrors.ErrUnknownAssignee
		}
		input.AssignedTo = &assignee
	}
	return nil
}

func apply(resource *models.Resource, input ResourceInput) {
	resource.Name = input.Name
	resource.Type = input.Type
	resource.Category = input.Category
	resource.Location = input.Location
	resource.Status = input.Status
	resource.AssignedTo = input.AssignedTo
	resource.Description = input.Description
	resource.AcquisitionDate = input.AcquisitionDate
	resource.LastMaintenance = input.LastMaintenance
}

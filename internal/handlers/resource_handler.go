package handlers

import (
	"net/http"
	"time"

	"gatehouse/internal/models"
	"gatehouse/internal/services"

	"github.com/gin-gonic/gin"
)

// ResourceHandler handles resource-related requests.
type ResourceHandler struct {
	resourceService services.ResourceServicer
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resourceService services.ResourceServicer) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// ResourceRequest represents the request payload for creating or replacing a resource.
type ResourceRequest struct {
	Name            string                `json:"name" binding:"required,max=200"`
	Type            string                `json:"type" binding:"required,max=100"`
	Category        string                `json:"category" binding:"max=100"`
	Location        string                `json:"location" binding:"max=200"`
	Status          models.ResourceStatus `json:"status" binding:"omitempty,resource_status" swaggertype:"string" enums:"active,maintenance,inactive,assigned"`
	AssignedTo      *string               `json:"assigned_to" binding:"omitempty,max=64"`
	Description     string                `json:"description" binding:"max=2000"`
	AcquisitionDate *time.Time            `json:"acquisition_date" binding:"required"`
	LastMaintenance *time.Time            `json:"last_maintenance"`
}

func (r ResourceRequest) input() services.ResourceInput {
	return services.ResourceInput{
		Name:            r.Name,
		Type:            r.Type,
		Category:        r.Category,
		Location:        r.Location,
		Status:          r.Status,
		AssignedTo:      r.AssignedTo,
		Description:     r.Description,
		AcquisitionDate: r.AcquisitionDate.UTC(),
		LastMaintenance: r.LastMaintenance,
	}
}

// ListResources returns every resource.
// @Summary     List resources
// @Tags        resources
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Resource "Resources"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /resources [get]
func (h *ResourceHandler) ListResources(c *gin.Context) {
	if _, err := getPrincipal(c); err != nil {
		respondWithError(c, err)
		return
	}

	resources, err := h.resourceService.ListResources()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources)
}

// GetResource returns a single resource.
// @Summary     Get a resource
// @Tags        resources
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Resource ID"
// @Success     200 {object} models.Resource "Resource"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Resource not found"
// @Router      /resources/{id} [get]
func (h *ResourceHandler) GetResource(c *gin.Context) {
	if _, err := getPrincipal(c); err != nil {
		respondWithError(c, err)
		return
	}

	resource, err := h.resourceService.GetResource(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

// CreateResource creates a resource owned by the caller.
// @Summary     Create a resource
// @Description Requires manager level or above. Records a "Created Resource" access log entry
// @Tags        resources
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ResourceRequest true "Resource details"
// @Success     201 {object} models.Resource "Resource created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Router      /resources [post]
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	resource, err := h.resourceService.CreateResource(principal, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

// UpdateResource replaces a resource's editable fields.
// @Summary     Update a resource
// @Description Requires manager level or above. Records an "Updated Resource" access log entry
// @Tags        resources
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Resource ID"
// @Param       request body ResourceRequest true "Resource details"
// @Success     200 {object} models.Resource "Resource updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Failure     404 {object} ErrorResponse "Resource not found"
// @Router      /resources/{id} [put]
func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	resource, err := h.resourceService.UpdateResource(principal, c.Param("id"), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

// DeleteResource removes a resource.
// @Summary     Delete a resource
// @Description Requires manager level or above. Records a "Deleted Resource" access log entry
// @Tags        resources
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Resource ID"
// @Success     200 {object} MessageResponse "Resource deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Failure     404 {object} ErrorResponse "Resource not found"
// @Router      /resources/{id} [delete]
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.resourceService.DeleteResource(principal, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Resource deleted successfully"})
}

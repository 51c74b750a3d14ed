package handlers

import (
	"net/http"

	"gatehouse/internal/models"
	"gatehouse/internal/pagination"
	"gatehouse/internal/services"

	"github.com/gin-gonic/gin"
)

// AccessLogHandler handles access log requests.
type AccessLogHandler struct {
	accessLogService services.AccessLogServicer
}

// NewAccessLogHandler creates a new AccessLogHandler.
func NewAccessLogHandler(accessLogService services.AccessLogServicer) *AccessLogHandler {
	return &AccessLogHandler{accessLogService: accessLogService}
}

// AccessLogRequest represents a directly submitted access event.
type AccessLogRequest struct {
	UserID     string              `json:"user_id" binding:"required,max=64"`
	UserName   string              `json:"user_name" binding:"max=200"`
	Action     string              `json:"action" binding:"required,max=500"`
	ResourceID *string             `json:"resource_id" binding:"omitempty,max=64"`
	Location   string              `json:"location" binding:"max=200"`
	Status     models.AccessStatus `json:"status" binding:"omitempty,access_status" swaggertype:"string" enums:"success,denied,warning"`
}

// ListAccessLogs returns the most recent access log entries.
// @Summary     List access logs
// @Description Newest first. Requires manager level or above
// @Tags        access-logs
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum number of entries (max 100)"
// @Success     200 {array}  models.AccessLog "Access log entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Router      /access-logs [get]
func (h *AccessLogHandler) ListAccessLogs(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req pagination.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	req.Defaults(services.MaxAccessLogs, services.MaxAccessLogs)

	logs, err := h.accessLogService.ListAccessLogs(principal, req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// CreateAccessLog records an access event.
// @Summary     Record an access event
// @Description Open to any authenticated user
// @Tags        access-logs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AccessLogRequest true "Access event"
// @Success     201 {object} models.AccessLog "Entry recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /access-logs [post]
func (h *AccessLogHandler) CreateAccessLog(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AccessLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	entry, err := h.accessLogService.RecordAccess(principal, services.AccessLogInput{
		UserID:     req.UserID,
		UserName:   req.UserName,
		Action:     req.Action,
		ResourceID: req.ResourceID,
		Location:   req.Location,
		Status:     req.Status,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

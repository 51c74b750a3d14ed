package handlers

import (
	"net/http"

	"gatehouse/internal/models"
	"gatehouse/internal/pagination"
	"gatehouse/internal/services"

	"github.com/gin-gonic/gin"
)

// AlertHandler handles security alert requests.
type AlertHandler struct {
	alertService services.AlertServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.AlertServicer) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// AlertRequest represents the request payload for raising an alert.
type AlertRequest struct {
	Title    string               `json:"title" binding:"required,max=200"`
	Message  string               `json:"message" binding:"max=2000"`
	Severity models.AlertSeverity `json:"severity" binding:"required,alert_severity" swaggertype:"string" enums:"low,medium,high,critical"`
	Location string               `json:"location" binding:"max=200"`
}

// AlertUpdateResponse is returned after a status change.
type AlertUpdateResponse struct {
	Message string                `json:"message"`
	Alert   *models.SecurityAlert `json:"alert"`
}

// ListAlerts returns the most recent alerts.
// @Summary     List security alerts
// @Description Newest first
// @Tags        security-alerts
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum number of alerts (max 50)"
// @Success     200 {array}  models.SecurityAlert "Alerts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /security-alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	if _, err := getPrincipal(c); err != nil {
		respondWithError(c, err)
		return
	}

	var req pagination.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	req.Defaults(services.MaxAlerts, services.MaxAlerts)

	alerts, err := h.alertService.ListAlerts(req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// CreateAlert raises a security alert.
// @Summary     Raise a security alert
// @Description Requires manager level or above
// @Tags        security-alerts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AlertRequest true "Alert details"
// @Success     201 {object} models.SecurityAlert "Alert created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Router      /security-alerts [post]
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	alert, err := h.alertService.CreateAlert(principal, services.AlertInput{
		Title:    req.Title,
		Message:  req.Message,
		Severity: req.Severity,
		Location: req.Location,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// UpdateAlertStatus changes an alert's status.
// @Summary     Update alert status
// @Description Requires manager level or above. Moving to resolved stamps resolved_at
// @Tags        security-alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true "Alert ID"
// @Param       status query string true "New status" Enums(active, investigating, resolved)
// @Success     200 {object} AlertUpdateResponse "Alert updated"
// @Failure     400 {object} ErrorResponse "Invalid status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Insufficient permissions"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Router      /security-alerts/{id} [put]
func (h *AlertHandler) UpdateAlertStatus(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alert, err := h.alertService.UpdateAlertStatus(principal, c.Param("id"), models.AlertStatus(c.Query("status")))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, AlertUpdateResponse{Message: "Alert updated successfully", Alert: alert})
}

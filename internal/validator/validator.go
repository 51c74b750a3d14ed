// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"gatehouse/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the enum validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("resource_status", validateResourceStatus)
	_ = v.RegisterValidation("access_status", validateAccessStatus)
	_ = v.RegisterValidation("alert_severity", validateAlertSeverity)
	_ = v.RegisterValidation("alert_status", validateAlertStatus)
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateResourceStatus(fl validator.FieldLevel) bool {
	return models.ResourceStatus(fl.Field().String()).Valid()
}

func validateAccessStatus(fl validator.FieldLevel) bool {
	return models.AccessStatus(fl.Field().String()).Valid()
}

func validateAlertSeverity(fl validator.FieldLevel) bool {
	return models.AlertSeverity(fl.Field().String()).Valid()
}

func validateAlertStatus(fl validator.FieldLevel) bool {
	return models.AlertStatus(fl.Field().String()).Valid()
}

package middleware

import (
	"errors"
	"strings"

	"gatehouse/internal/auth"
	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/logger"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// PrincipalResolver turns a bearer token into the principal it identifies.
type PrincipalResolver interface {
	Resolve(token string) (*models.User, error)
}

// Authenticate resolves the bearer token on every request and stores the
// principal in the context. Every rejection is a 401; the underlying reason
// is only logged and counted.
func Authenticate(resolver PrincipalResolver, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, m, apperrors.ErrUnauthorized, "missing_credentials", nil)
			return
		}

		principal, err := resolver.Resolve(token)
		if err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.StatusCode >= 500 {
				_ = c.Error(err)
				c.Abort()
				return
			}
			reject(c, m, appErr, auth.FailureReason(err), err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// GetPrincipal returns the principal stored by Authenticate.
func GetPrincipal(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := v.(*models.User)
	return principal, ok && principal != nil
}

// SetPrincipal stores principal in the context. Used by tests that bypass
// token resolution.
func SetPrincipal(c *gin.Context, principal *models.User) {
	c.Set(principalKey, principal)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c *gin.Context, m *metrics.Metrics, appErr *apperrors.AppError, reason string, cause error) {
	m.AuthFailure(reason)
	fields := []interface{}{
		"reason", reason,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
	}
	if cause != nil {
		fields = append(fields, "error", cause.Error())
	}
	logger.Get().Warnw("authentication failed", fields...)
	abortWithAppError(c, appErr)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gatehouse/internal/middleware"
	"gatehouse/internal/models"
	"gatehouse/internal/services"
	"gatehouse/internal/validator"

	"github.com/gin-gonic/gin"
)

// --- mock services ---

type mockUserService struct {
	createUserFn    func(actor *models.User, input services.CreateUserInput) (*models.User, error)
	authenticateFn  func(username, password string) (*models.User, error)
	getByUsernameFn func(username string) (*models.User, error)
	listUsersFn     func(actor *models.User, limit int) ([]models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, actor *models.User, input services.CreateUserInput) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(actor, input)
	}
	return &models.User{Username: input.Username}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(username, password)
	}
	return &models.User{Username: username}, nil
}

func (m *mockUserService) GetUserByUsername(username string) (*models.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(username)
	}
	return &models.User{Username: username}, nil
}

func (m *mockUserService) ListUsers(actor *models.User, limit int) ([]models.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(actor, limit)
	}
	return []models.User{}, nil
}

type mockResourceService struct {
	createFn func(actor *models.User, input services.ResourceInput) (*models.Resource, error)
	listFn   func() ([]models.Resource, error)
	getFn    func(id string) (*models.Resource, error)
	updateFn func(actor *models.User, id string, input services.ResourceInput) (*models.Resource, error)
	deleteFn func(actor *models.User, id string) error
}

func (m *mockResourceService) CreateResource(actor *models.User, input services.ResourceInput) (*models.Resource, error) {
	if m.createFn != nil {
		return m.createFn(actor, input)
	}
	return &models.Resource{Name: input.Name}, nil
}

func (m *mockResourceService) ListResources() ([]models.Resource, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return []models.Resource{}, nil
}

func (m *mockResourceService) GetResource(id string) (*models.Resource, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &models.Resource{Base: models.Base{ID: id}}, nil
}

func (m *mockResourceService) UpdateResource(actor *models.User, id string, input services.ResourceInput) (*models.Resource, error) {
	if m.updateFn != nil {
		return m.updateFn(actor, id, input)
	}
	return &models.Resource{Base: models.Base{ID: id}, Name: input.Name}, nil
}

func (m *mockResourceService) DeleteResource(actor *models.User, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(actor, id)
	}
	return nil
}

type mockAccessLogService struct {
	recordFn func(actor *models.User, input services.AccessLogInput) (*models.AccessLog, error)
	listFn   func(actor *models.User, limit int) ([]models.AccessLog, error)
}

func (m *mockAccessLogService) RecordAccess(actor *models.User, input services.AccessLogInput) (*models.AccessLog, error) {
	if m.recordFn != nil {
		return m.recordFn(actor, input)
	}
	return &models.AccessLog{UserID: input.UserID, Action: input.Action}, nil
}

func (m *mockAccessLogService) ListAccessLogs(actor *models.User, limit int) ([]models.AccessLog, error) {
	if m.listFn != nil {
		return m.listFn(actor, limit)
	}
	return []models.AccessLog{}, nil
}

type mockAlertService struct {
	createFn       func(actor *models.User, input services.AlertInput) (*models.SecurityAlert, error)
	listFn         func(limit int) ([]models.SecurityAlert, error)
	updateStatusFn func(actor *models.User, id string, status models.AlertStatus) (*models.SecurityAlert, error)
}

func (m *mockAlertService) CreateAlert(actor *models.User, input services.AlertInput) (*models.SecurityAlert, error) {
	if m.createFn != nil {
		return m.createFn(actor, input)
	}
	return &models.SecurityAlert{Title: input.Title, Severity: input.Severity, Status: models.AlertStatusActive}, nil
}

func (m *mockAlertService) ListAlerts(limit int) ([]models.SecurityAlert, error) {
	if m.listFn != nil {
		return m.listFn(limit)
	}
	return []models.SecurityAlert{}, nil
}

func (m *mockAlertService) UpdateAlertStatus(actor *models.User, id string, status models.AlertStatus) (*models.SecurityAlert, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(actor, id, status)
	}
	return &models.SecurityAlert{Base: models.Base{ID: id}, Status: status}, nil
}

type mockDashboardService struct {
	getStatsFn func() (*services.DashboardStats, error)
}

func (m *mockDashboardService) GetStats() (*services.DashboardStats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn()
	}
	return &services.DashboardStats{Stats: services.DashboardCounts{SecurityLevel: services.SecurityLevelNormal}}, nil
}

type mockTokenIssuer struct {
	issueFn func(username string) (string, time.Time, error)
}

func (m *mockTokenIssuer) Issue(username string) (string, time.Time, error) {
	if m.issueFn != nil {
		return m.issueFn(username)
	}
	return "signed-token-for-" + username, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func testPrincipal(role models.Role, level int) *models.User {
	return &models.User{
		Base:        models.Base{ID: "0190a000-0000-7000-8000-000000000001"},
		Username:    string(role) + "-user",
		Role:        role,
		AccessLevel: level,
		IsActive:    true,
	}
}

func injectPrincipal(principal *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal != nil {
			middleware.SetPrincipal(c, principal)
		}
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models"
	"gatehouse/internal/notify"
	"gatehouse/internal/seed"
	"gatehouse/internal/services"
	"gatehouse/internal/testutil"
	"gatehouse/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	testMetricKey = "scrape-key"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

type publishedEvent struct {
	topic   string
	payload []byte
}

// testApp holds the full application stack backed by an isolated in-memory SQLite.
type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	keys   *auth.Keyring

	mu        sync.Mutex
	published []publishedEvent
}

type appOptions struct {
	loginBurst int
}

func setupApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	if opts.loginBurst == 0 {
		opts.loginBurst = 100
	}

	db := testutil.SetupTestDB(t)
	hasher := auth.NewHasher(auth.HasherConfig{Cost: bcrypt.MinCost, Workers: 2})
	if _, err := seed.New(db, hasher).Run(context.Background()); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	keys, err := auth.NewKeyring("primary", map[string]string{"primary": testSecret})
	if err != nil {
		t.Fatalf("failed to build keyring: %v", err)
	}
	tokens := auth.NewTokenService(keys)
	m := metrics.New()

	app := &testApp{db: db, keys: keys}
	notifier := notify.NewMQTTNotifier("gatehouse/alerts", func(topic string, payload []byte) error {
		app.mu.Lock()
		defer app.mu.Unlock()
		app.published = append(app.published, publishedEvent{topic: topic, payload: payload})
		return nil
	}, m)

	audit := services.NewAuditService(db, m)
	users := services.NewUserService(db, hasher, audit)
	app.router = New(Deps{
		Users:              users,
		Resources:          services.NewResourceService(db, audit),
		AccessLogs:         services.NewAccessLogService(db),
		Alerts:             services.NewAlertService(db, audit, notifier),
		Dashboard:          services.NewDashboardService(db),
		Tokens:             tokens,
		Resolver:           auth.NewResolver(tokens, users),
		Metrics:            m,
		LoginRatePerMinute: 60,
		LoginBurst:         opts.loginBurst,
		MetricsAPIKey:      testMetricKey,
		CORSAllowedOrigins: []string{"*"},
	})
	return app
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := app.request("POST", "/api/auth/login", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["access_token"].(string)
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var result []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

const tumblerBody = `{"name":"Tumbler II","type":"vehicle","category":"Armored Vehicle",` +
	`"location":"Cave Garage Level B3","acquisition_date":"2024-01-01T00:00:00Z"}`

func TestHealth(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	rec := app.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["status"] != "online" || result["service"] != "Gatehouse Security Portal" {
		t.Errorf("unexpected health payload %v", result)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestResourceFlow_CreateIsAudited(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	token := app.login(t, "bruce.wayne", "batman123")

	rec := app.request("POST", "/api/resources", tumblerBody, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := parseJSON(t, rec)
	if created["created_by"] != "bruce.wayne" {
		t.Errorf("expected created_by bruce.wayne, got %v", created["created_by"])
	}
	if created["status"] != "active" {
		t.Errorf("expected default status active, got %v", created["status"])
	}
	id := created["id"].(string)

	rec = app.request("GET", "/api/resources", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	listed := parseJSONArray(t, rec)
	if len(listed) != 4 || listed[0]["id"] != id || listed[0]["created_by"] != "bruce.wayne" {
		t.Errorf("expected the new resource first in a list of 4, got %d entries", len(listed))
	}

	rec = app.request("GET", "/api/access-logs", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	found := false
	for _, entry := range parseJSONArray(t, rec) {
		if entry["action"] == "Created Resource: Tumbler II" {
			found = true
		}
	}
	if !found {
		t.Error("expected a Created Resource entry in the access log listing")
	}
	entry := testutil.AssertAccessLogged(t, app.db, "bruce.wayne", "Created Resource: Tumbler II")
	if entry.ResourceID == nil || *entry.ResourceID != id || entry.Location != "System" {
		t.Errorf("unexpected audit entry %+v", entry)
	}
	testutil.AssertAccessLogged(t, app.db, "bruce.wayne", "System Login")

	rec = app.request("PUT", "/api/resources/"+id,
		strings.Replace(tumblerBody, `"location":"Cave Garage Level B3"`, `"location":"Hangar","status":"maintenance"`, 1), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := parseJSON(t, rec)
	if updated["location"] != "Hangar" || updated["status"] != "maintenance" {
		t.Errorf("unexpected update result %v", updated)
	}

	rec = app.request("DELETE", "/api/resources/"+id, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	if parseJSON(t, rec)["message"] != "Resource deleted successfully" {
		t.Error("unexpected delete confirmation")
	}

	rec = app.request("GET", "/api/resources/"+id, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestResourceFlow_EmployeeIsForbidden(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	token := app.login(t, "alfred.pennyworth", "alfred123")

	rec := app.request("POST", "/api/resources", tumblerBody, token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}

	var count int64
	app.db.Model(&models.Resource{}).Where("name = ?", "Tumbler II").Count(&count)
	if count != 0 {
		t.Error("forbidden create must not persist")
	}
	testutil.AssertNotLogged(t, app.db, "Created Resource: Tumbler II")

	// Reads stay open to every level.
	rec = app.request("GET", "/api/resources", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(parseJSONArray(t, rec)); n != 3 {
		t.Errorf("expected 3 seeded resources, got %d", n)
	}

	rec = app.request("GET", "/api/access-logs", "", token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on access log list, got %d", rec.Code)
	}
}

func TestDashboardFlow(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	token := app.login(t, "lucius.fox", "foxtech123")

	rec := app.request("GET", "/api/dashboard/stats", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	stats := result["stats"].(map[string]interface{})
	if stats["security_level"] != "HIGH" {
		t.Errorf("expected HIGH with a seeded active alert, got %v", stats["security_level"])
	}
	if stats["total_resources"] != float64(3) || stats["total_users"] != float64(3) || stats["active_alerts"] != float64(1) {
		t.Errorf("unexpected counts %v", stats)
	}
	if n := len(result["recent_access"].([]interface{})); n != 3 {
		t.Errorf("expected 3 recent entries (2 seeded + login), got %d", n)
	}
	if n := len(result["active_alerts"].([]interface{})); n != 2 {
		t.Errorf("expected 2 open alerts, got %d", n)
	}

	var active models.SecurityAlert
	if err := app.db.Where("status = ?", models.AlertStatusActive).First(&active).Error; err != nil {
		t.Fatalf("expected an active alert: %v", err)
	}
	rec = app.request("PUT", "/api/security-alerts/"+active.ID+"?status=resolved", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	alert := parseJSON(t, rec)["alert"].(map[string]interface{})
	if alert["resolved_at"] == nil {
		t.Error("expected resolved_at to be stamped")
	}

	rec = app.request("GET", "/api/dashboard/stats", "", token)
	stats = parseJSON(t, rec)["stats"].(map[string]interface{})
	if stats["security_level"] != "NORMAL" {
		t.Errorf("expected NORMAL once no alert is active, got %v", stats["security_level"])
	}
}

func TestAlertFlow_PublishesEvents(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	token := app.login(t, "lucius.fox", "foxtech123")

	rec := app.request("POST", "/api/security-alerts",
		`{"title":"Perimeter breach","message":"Fence cut","severity":"critical","location":"North Wall"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := parseJSON(t, rec)["id"].(string)

	rec = app.request("PUT", "/api/security-alerts/"+id+"?status=investigating", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = app.request("PUT", "/api/security-alerts/"+id+"?status=closed", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if len(app.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(app.published))
	}
	for _, ev := range app.published {
		if ev.topic != "gatehouse/alerts/critical" {
			t.Errorf("unexpected topic %q", ev.topic)
		}
	}
	var last map[string]interface{}
	if err := json.Unmarshal(app.published[1].payload, &last); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if last["event"] != "status_changed" || last["actor"] != "lucius.fox" {
		t.Errorf("unexpected event payload %v", last)
	}
}

func TestAuthFlow_RegisterLoginRoundTrip(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	admin := app.login(t, "bruce.wayne", "batman123")
	body := `{"username":"barbara.gordon","email":"Barbara@Wayneindustries.com","full_name":"Barbara Gordon",` +
		`"password":"oracle123","role":"manager","department":"Intelligence"}`

	rec := app.request("POST", "/api/auth/register", body, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)
	if user["access_level"] != float64(2) {
		t.Errorf("expected access level 2, got %v", user["access_level"])
	}
	if _, leaked := user["password"]; leaked {
		t.Error("password must not be serialized")
	}

	token := app.login(t, "barbara.gordon", "oracle123")
	rec = app.request("GET", "/api/users/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	me := parseJSON(t, rec)
	if me["username"] != "barbara.gordon" || me["email"] != "barbara@wayneindustries.com" {
		t.Errorf("unexpected profile %v", me)
	}

	t.Run("duplicate is rejected", func(t *testing.T) {
		rec := app.request("POST", "/api/auth/register", body, admin)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "DUPLICATE_USER" {
			t.Errorf("expected DUPLICATE_USER, got %s", code)
		}
	})

	t.Run("overlong password is a validation error", func(t *testing.T) {
		long := strings.Replace(body, "oracle123", strings.Repeat("o", 100), 1)
		long = strings.Replace(long, "barbara.gordon", "jim.gordon", 1)
		rec := app.request("POST", "/api/auth/register", strings.Replace(long, "Barbara@", "jim@", 1), admin)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "INVALID_INPUT" {
			t.Errorf("expected INVALID_INPUT, got %s", code)
		}
	})

	t.Run("manager cannot register", func(t *testing.T) {
		rec := app.request("POST", "/api/auth/register",
			strings.Replace(body, "barbara.gordon", "dick.grayson", 1), token)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.request("POST", "/api/auth/login", `{"username":"barbara.gordon","password":"joker123"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
			t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
		}
	})
}

func TestAuthFlow_RejectsBadTokens(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	claims := jwt.RegisteredClaims{
		Issuer:    "gatehouse",
		Subject:   "bruce.wayne",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-server-secret-at-all-0000"))
	if err != nil {
		t.Fatalf("failed to forge token: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	past := auth.NewTokenService(app.keys, auth.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) }))
	expired, _, err := past.Issue("bruce.wayne")
	if err != nil {
		t.Fatalf("failed to issue expired token: %v", err)
	}
	ghost, _, err := auth.NewTokenService(app.keys).Issue("joker")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	for name, token := range map[string]string{
		"forged signature": forged,
		"none algorithm":   unsigned,
		"expired":          expired,
		"unknown subject":  ghost,
		"garbage":          "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			rec := app.request("GET", "/api/users/me", "", token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("missing header", func(t *testing.T) {
		rec := app.request("GET", "/api/dashboard/stats", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		token := app.login(t, "alfred.pennyworth", "alfred123")
		app.db.Model(&models.User{}).Where("username = ?", "alfred.pennyworth").Update("is_active", false)

		rec := app.request("GET", "/api/users/me", "", token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestLoginRateLimit(t *testing.T) {
	app := setupApp(t, appOptions{loginBurst: 2})
	defer testutil.TeardownTestDB(t, app.db)

	for i := 0; i < 2; i++ {
		rec := app.request("POST", "/api/auth/login", `{"username":"bruce.wayne","password":"wrong"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := app.request("POST", "/api/auth/login", `{"username":"bruce.wayne","password":"batman123"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(t, appOptions{})
	defer testutil.TeardownTestDB(t, app.db)

	app.request("GET", "/api/health", "", "")

	t.Run("requires the service key", func(t *testing.T) {
		rec := app.request("GET", "/metrics", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("exposes request counters", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		req.Header.Set("X-API-Key", testMetricKey)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"} 1`) {
			t.Errorf("expected health request counter in exposition:\n%s", rec.Body.String())
		}
	})
}

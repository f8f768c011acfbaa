package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	"github.com/mr1hm/go-campus-alerts/internal/auth"
	"github.com/mr1hm/go-campus-alerts/internal/metrics"
	"github.com/mr1hm/go-campus-alerts/internal/models"
	"github.com/mr1hm/go-campus-alerts/internal/repository"
)

type testServer struct {
	router *gin.Engine
	auth   *auth.Service
	db     *repository.SQLiteDB
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New()
	alertSvc := alerting.NewService(db, m)
	authSvc := auth.NewService(db, auth.NewTokens("test-secret-0123456789", time.Hour))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(alertSvc, authSvc, m).RegisterRoutes(router)

	return &testServer{router: router, auth: authSvc, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates a user through the API and returns its token.
func (s *testServer) register(t *testing.T, email string, loc models.Location) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/register", "", auth.RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
		Location: loc,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, w.Code, w.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse register response: %v", err)
	}
	if resp.User.Role != models.RoleUser {
		t.Fatalf("expected registered role user, got %s", resp.User.Role)
	}
	return resp.Token
}

func (s *testServer) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	token := s.register(t, email, models.Location{State: "Delhi"})
	if _, err := s.auth.Promote(context.Background(), email, models.RoleSuperAdmin); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	return token
}

func decodeAlerts(t *testing.T, w *httptest.ResponseRecorder) []models.Alert {
	t.Helper()

	var alerts []models.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("failed to parse alerts: %v (%s)", err, w.Body.String())
	}
	return alerts
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

// Role changes made by another process (campusctl promote) write straight
// to the database; the next request must see them.
func TestGetAlerts_RoleChangedInDatabase(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	admin := s.registerAdmin(t, "admin@example.com")
	user := s.register(t, "kerala@example.com", models.Location{State: "Kerala"})

	w := s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{
		"title":         "Cyclone",
		"description":   "Stay indoors",
		"targetRegions": map[string]any{"states": []string{"Telangana"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", user, nil)); len(got) != 0 {
		t.Fatalf("before promotion: expected no alerts, got %v", got)
	}

	u, err := s.db.GetUserByEmail(ctx, "kerala@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if err := s.db.SetRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		t.Fatalf("set role failed: %v", err)
	}
	if got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", user, nil)); len(got) != 1 {
		t.Errorf("after promotion: expected 1 alert, got %v", got)
	}

	if err := s.db.SetRole(ctx, u.ID, models.RoleUser); err != nil {
		t.Fatalf("set role failed: %v", err)
	}
	if got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", user, nil)); len(got) != 0 {
		t.Errorf("after demotion: expected no alerts, got %v", got)
	}
	if w := s.do(t, http.MethodPost, "/api/alerts", user, map[string]any{"title": "x", "description": "y"}); w.Code != http.StatusForbidden {
		t.Errorf("after demotion: expected 403 on create, got %d", w.Code)
	}
}

func TestFloodScenario(t *testing.T) {
	s := setupTestServer(t)

	admin := s.registerAdmin(t, "admin@example.com")
	userA := s.register(t, "a@example.com", models.Location{State: "Telangana", District: "Hyderabad"})
	userB := s.register(t, "b@example.com", models.Location{State: "Kerala"})

	w := s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{
		"title":         "Flood",
		"description":   "Move to higher ground",
		"severity":      "warning",
		"targetScope":   "state",
		"targetRegions": map[string]any{"states": []string{"Telangana"}, "districts": []string{}, "cities": []string{}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var flood models.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &flood); err != nil {
		t.Fatalf("failed to parse alert: %v", err)
	}
	if !flood.Active || flood.Source != alerting.DefaultSource {
		t.Errorf("unexpected created alert: %+v", flood)
	}

	got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", userA, nil))
	if len(got) != 1 || got[0].ID != flood.ID {
		t.Errorf("user A: expected [%s], got %v", flood.ID, got)
	}
	got = decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", userB, nil))
	if len(got) != 0 {
		t.Errorf("user B: expected no alerts, got %v", got)
	}

	w = s.do(t, http.MethodPut, "/api/alerts/"+flood.ID, admin, map[string]bool{"active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	for name, token := range map[string]string{"A": userA, "B": userB} {
		got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", token, nil))
		if len(got) != 0 {
			t.Errorf("user %s: expected no alerts after deactivation, got %v", name, got)
		}
	}

	got = decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts?include_inactive=true", admin, nil))
	if len(got) != 1 || got[0].Active {
		t.Errorf("admin history: expected one inactive alert, got %v", got)
	}
}

func TestGetAlerts_GlobalNewestFirst(t *testing.T) {
	s := setupTestServer(t)

	admin := s.registerAdmin(t, "admin@example.com")
	user := s.register(t, "u@example.com", models.Location{State: "Goa"})

	for _, title := range []string{"First", "Second"} {
		w := s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{"title": title, "description": "d"})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", w.Code)
		}
	}

	got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts", user, nil))
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].Title != "Second" || got[1].Title != "First" {
		t.Errorf("expected newest first, got %s, %s", got[0].Title, got[1].Title)
	}
}

func TestAuthorization(t *testing.T) {
	s := setupTestServer(t)
	user := s.register(t, "u@example.com", models.Location{State: "Goa"})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"list without token", http.MethodGet, "/api/alerts", "", nil, http.StatusUnauthorized},
		{"list with garbage token", http.MethodGet, "/api/alerts", "not-a-jwt", nil, http.StatusUnauthorized},
		{"create as user", http.MethodPost, "/api/alerts", user, map[string]any{"title": "t", "description": "d"}, http.StatusForbidden},
		{"update as user", http.MethodPut, "/api/alerts/x", user, map[string]bool{"active": false}, http.StatusForbidden},
		{"get one as user", http.MethodGet, "/api/alerts/x", user, nil, http.StatusForbidden},
		{"me without token", http.MethodGet, "/api/auth/me", "", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateAlert_ValidationError(t *testing.T) {
	s := setupTestServer(t)
	admin := s.registerAdmin(t, "admin@example.com")

	w := s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{"title": "", "severity": "critical"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	for _, field := range []string{"title", "description", "severity"} {
		if _, ok := resp.Fields[field]; !ok {
			t.Errorf("expected field %q in %v", field, resp.Fields)
		}
	}

	got := decodeAlerts(t, s.do(t, http.MethodGet, "/api/alerts?include_inactive=true", admin, nil))
	if len(got) != 0 {
		t.Errorf("expected nothing stored, got %v", got)
	}
}

func TestUpdateAlert(t *testing.T) {
	s := setupTestServer(t)
	admin := s.registerAdmin(t, "admin@example.com")

	w := s.do(t, http.MethodPut, "/api/alerts/missing", admin, map[string]bool{"active": false})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown alert, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{"title": "t", "description": "d"})
	var created models.Alert
	json.Unmarshal(w.Body.Bytes(), &created)

	w = s.do(t, http.MethodPut, "/api/alerts/"+created.ID, admin, map[string]string{"title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without active field, got %d", w.Code)
	}

	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPut, "/api/alerts/"+created.ID, admin, map[string]bool{"active": false})
		if w.Code != http.StatusOK {
			t.Fatalf("deactivate call %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w = s.do(t, http.MethodGet, "/api/alerts/"+created.ID, admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var got models.Alert
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Active {
		t.Error("expected alert to stay inactive")
	}
}

func TestAuthFlow(t *testing.T) {
	s := setupTestServer(t)
	s.register(t, "Asha@Example.com", models.Location{State: "Telangana", City: "Hyderabad"})

	w := s.do(t, http.MethodPost, "/api/auth/register", "", auth.RegisterInput{
		Name: "Again", Email: "asha@example.com", Password: "password123",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 for duplicate email, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "asha@example.com", Password: "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for bad password, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "asha@example.com", Password: "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var session sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to parse login response: %v", err)
	}

	w = s.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("profile must not expose the password hash: %s", w.Body.String())
	}
	var me models.User
	json.Unmarshal(w.Body.Bytes(), &me)
	if me.Location.City != "Hyderabad" {
		t.Errorf("expected stored location, got %+v", me.Location)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	admin := s.registerAdmin(t, "admin@example.com")
	s.do(t, http.MethodPost, "/api/alerts", admin, map[string]any{"title": "t", "description": "d", "severity": "emergency"})

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `campus_alerts_alerts_created_total{severity="emergency"} 1`) {
		t.Errorf("expected created counter in exposition, got:\n%s", w.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected [200 200 429], got %v", codes)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected a separate bucket for another client, got %d", w.Code)
	}
}

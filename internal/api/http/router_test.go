package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/observability"
	"github.com/spec-kit/task-service/internal/repository"
	"github.com/spec-kit/task-service/internal/service"
)

const testAdminKey = "admin-secret"

type testServer struct {
	t   *testing.T
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	users := repository.NewMemoryUserRepository()
	tasks := repository.NewMemoryTaskRepository(users)

	authCfg := config.AuthConfig{
		JWTSecret:      "test-secret",
		AdminKey:       testAdminKey,
		BcryptCost:     bcrypt.MinCost,
		CookieName:     "token",
		CookieSecure:   true,
		CookieSameSite: "None",
	}
	authService := service.NewAuthService(authCfg, users)
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   tasks,
		UserRepo:   users,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Logger:     logger,
	})
	guard := auth.NewAccessGuard(authService.TokenManager(), users, auth.NewMemoryRevocationStore(), authCfg.CookieName, logger)
	cookies := auth.CookieSettings{Name: authCfg.CookieName, Secure: authCfg.CookieSecure, SameSite: authCfg.CookieSameSite}

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0, []string{"http://localhost:5173"})
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("task-service", "test", nil, nil),
		Users:   handlers.NewUsersHandler(authService, guard, cookies),
		Tasks:   handlers.NewTasksHandler(taskService),
		Guard:   guard,
		Metrics: metrics,
	})
	return &testServer{t: t, app: app}
}

type response struct {
	status  int
	body    map[string]any
	cookies []*http.Cookie
}

func (s *testServer) do(method, path string, body any, token string) response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, cookies: resp.Cookies()}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.body)
	}
	return out
}

func (r response) token() string {
	for _, c := range r.cookies {
		if c.Name == "token" {
			return c.Value
		}
	}
	return ""
}

func (r response) object(key string) map[string]any {
	obj, _ := r.body[key].(map[string]any)
	return obj
}

func (r response) list(key string) []any {
	items, _ := r.body[key].([]any)
	return items
}

func expectStatus(t *testing.T, r response, want int) {
	t.Helper()
	if r.status != want {
		t.Fatalf("expected status %d, got %d: %v", want, r.status, r.body)
	}
}

// register creates an account and returns its session token and id.
func (s *testServer) register(name, email, role, adminKey string) (string, string) {
	s.t.Helper()
	r := s.do("POST", "/user/register", map[string]string{
		"name": name, "email": email, "password": "secret-pw", "role": role, "adminKey": adminKey,
	}, "")
	expectStatus(s.t, r, http.StatusCreated)
	if r.token() == "" {
		s.t.Fatalf("register must set the session cookie")
	}
	return r.token(), r.object("user")["id"].(string)
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	r := s.do("POST", "/user/login", map[string]string{"email": email, "password": "secret-pw"}, "")
	expectStatus(s.t, r, http.StatusOK)
	return r.token()
}

func (s *testServer) createTask(adminToken, assignee, dueDate string) string {
	s.t.Helper()
	r := s.do("POST", "/task/create", map[string]string{
		"title": "Task due " + dueDate, "description": "details", "priority": "medium",
		"dueDate": dueDate, "assignedTo": assignee,
	}, adminToken)
	expectStatus(s.t, r, http.StatusCreated)
	return r.object("task")["id"].(string)
}

func TestEndToEnd_AssignAndComplete(t *testing.T) {
	s := newTestServer(t)
	s.register("Admin", "admin@example.com", "admin", testAdminKey)
	_, userID := s.register("Una", "una@example.com", "", "")

	adminToken := s.login("admin@example.com")
	taskID := s.createTask(adminToken, userID, "2026-11-01")

	userToken := s.login("una@example.com")
	my := s.do("GET", "/task/my", nil, userToken)
	expectStatus(t, my, http.StatusOK)
	items := my.list("tasks")
	if len(items) != 1 || items[0].(map[string]any)["id"] != taskID {
		t.Fatalf("expected the task in /task/my, got %v", my.body)
	}

	status := s.do("PATCH", "/task/status/"+taskID, map[string]string{"status": "completed"}, userToken)
	expectStatus(t, status, http.StatusOK)

	got := s.do("GET", "/task/"+taskID, nil, adminToken)
	expectStatus(t, got, http.StatusOK)
	task := got.object("task")
	if task["status"] != "completed" {
		t.Fatalf("expected completed, got %v", task["status"])
	}
	assignee, _ := task["assignedTo"].(map[string]any)
	if assignee["name"] != "Una" {
		t.Fatalf("expected resolved assignee name, got %v", task["assignedTo"])
	}
	assigner, _ := task["assignedBy"].(map[string]any)
	if assigner["email"] != "admin@example.com" {
		t.Fatalf("expected resolved assigner, got %v", task["assignedBy"])
	}
}

func TestDeletedTaskIsNotFound(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	userToken, userID := s.register("Una", "una@example.com", "user", "")
	taskID := s.createTask(adminToken, userID, "2026-11-01")

	expectStatus(t, s.do("DELETE", "/task/delete/"+taskID, nil, adminToken), http.StatusOK)
	for _, token := range []string{adminToken, userToken} {
		r := s.do("GET", "/task/"+taskID, nil, token)
		expectStatus(t, r, http.StatusNotFound)
		if r.body["success"] != false || r.body["message"] != "Task not found" {
			t.Fatalf("unexpected error body %v", r.body)
		}
	}
}

func TestRegister_AdminKeyRequired(t *testing.T) {
	s := newTestServer(t)
	for _, key := range []string{"", "wrong"} {
		r := s.do("POST", "/user/register", map[string]string{
			"name": "Eve", "email": "eve@example.com", "password": "secret-pw", "role": "admin", "adminKey": key,
		}, "")
		expectStatus(t, r, http.StatusForbidden)
		if r.token() != "" {
			t.Fatalf("rejected registration must not open a session")
		}
	}
	r := s.do("POST", "/user/login", map[string]string{"email": "eve@example.com", "password": "secret-pw"}, "")
	expectStatus(t, r, http.StatusUnauthorized)
}

func TestRegister_DuplicateAndMissingFields(t *testing.T) {
	s := newTestServer(t)
	s.register("Una", "una@example.com", "", "")

	dup := s.do("POST", "/user/register", map[string]string{"name": "U2", "email": "una@example.com", "password": "x"}, "")
	expectStatus(t, dup, http.StatusBadRequest)

	missing := s.do("POST", "/user/register", map[string]string{"email": "new@example.com"}, "")
	expectStatus(t, missing, http.StatusBadRequest)
	if missing.body["code"] != "VALIDATION_FAILED" {
		t.Fatalf("expected validation code, got %v", missing.body)
	}
}

func TestLogin_SameMessageForUnknownEmailAndWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register("Una", "una@example.com", "", "")

	wrong := s.do("POST", "/user/login", map[string]string{"email": "una@example.com", "password": "nope"}, "")
	unknown := s.do("POST", "/user/login", map[string]string{"email": "ghost@example.com", "password": "secret-pw"}, "")
	expectStatus(t, wrong, http.StatusUnauthorized)
	expectStatus(t, unknown, http.StatusUnauthorized)
	if wrong.body["message"] != unknown.body["message"] {
		t.Fatalf("messages differ: %v vs %v", wrong.body["message"], unknown.body["message"])
	}

	expectStatus(t, s.do("POST", "/user/login", map[string]string{"email": "una@example.com"}, ""), http.StatusBadRequest)
}

func TestNonAdminCannotCreate(t *testing.T) {
	s := newTestServer(t)
	userToken, userID := s.register("Una", "una@example.com", "", "")

	bodies := []any{
		nil,
		map[string]string{},
		map[string]string{"title": "t", "description": "d", "priority": "low", "dueDate": "2026-11-01", "assignedTo": userID},
		map[string]string{"priority": "bogus"},
	}
	for _, body := range bodies {
		expectStatus(t, s.do("POST", "/task/create", body, userToken), http.StatusForbidden)
	}
	expectStatus(t, s.do("GET", "/task/all", nil, userToken), http.StatusForbidden)
	expectStatus(t, s.do("PUT", "/task/update/whatever", map[string]string{"title": "x"}, userToken), http.StatusForbidden)
	expectStatus(t, s.do("DELETE", "/task/delete/whatever", nil, userToken), http.StatusForbidden)
}

func TestStrangerCannotReadOrChangeStatus(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	_, ownerID := s.register("Owner", "owner@example.com", "", "")
	strangerToken, _ := s.register("Stranger", "stranger@example.com", "", "")
	taskID := s.createTask(adminToken, ownerID, "2026-11-01")

	expectStatus(t, s.do("GET", "/task/"+taskID, nil, strangerToken), http.StatusForbidden)
	for _, status := range []string{"completed", "pending", "archived"} {
		expectStatus(t, s.do("PATCH", "/task/status/"+taskID, map[string]string{"status": status}, strangerToken), http.StatusForbidden)
	}
}

func TestInvalidStatusLeavesTaskUnchanged(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	ownerToken, ownerID := s.register("Owner", "owner@example.com", "", "")
	taskID := s.createTask(adminToken, ownerID, "2026-11-01")

	for _, token := range []string{ownerToken, adminToken} {
		r := s.do("PATCH", "/task/status/"+taskID, map[string]string{"status": "archived"}, token)
		expectStatus(t, r, http.StatusBadRequest)
	}
	got := s.do("GET", "/task/"+taskID, nil, ownerToken)
	if got.object("task")["status"] != "pending" {
		t.Fatalf("expected pending, got %v", got.object("task")["status"])
	}
}

func TestTaskPagination(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	_, ownerID := s.register("Owner", "owner@example.com", "", "")
	for i := 1; i <= 25; i++ {
		s.createTask(adminToken, ownerID, fmt.Sprintf("2026-11-%02d", i))
	}

	page3 := s.do("GET", "/task/all?page=3&limit=10", nil, adminToken)
	expectStatus(t, page3, http.StatusOK)
	if n := len(page3.list("tasks")); n != 5 {
		t.Fatalf("expected 5 tasks on page 3, got %d", n)
	}
	pagination := page3.object("pagination")
	if pagination["totalPages"] != float64(3) || pagination["totalTasks"] != float64(25) || pagination["currentPage"] != float64(3) {
		t.Fatalf("unexpected pagination %v", pagination)
	}
	first := page3.list("tasks")[0].(map[string]any)
	if first["title"] != "Task due 2026-11-21" {
		t.Fatalf("expected ascending due date order, got %v first", first["title"])
	}

	far := s.do("GET", "/task/all?page=100&limit=10", nil, adminToken)
	expectStatus(t, far, http.StatusOK)
	if items := far.list("tasks"); items == nil || len(items) != 0 {
		t.Fatalf("expected an empty list, got %v", far.body["tasks"])
	}

	huge := s.do("GET", "/task/all?page=1000000000000000000&limit=10", nil, adminToken)
	expectStatus(t, huge, http.StatusOK)
	if items := huge.list("tasks"); items == nil || len(items) != 0 {
		t.Fatalf("expected an empty list for a huge page, got %v", huge.body["tasks"])
	}

	wide := s.do("GET", "/task/all?limit=9223372036854775807", nil, adminToken)
	expectStatus(t, wide, http.StatusOK)
	if n, pages := len(wide.list("tasks")), wide.object("pagination")["totalPages"]; n != 25 || pages != float64(1) {
		t.Fatalf("expected 25 tasks on 1 page, got %d tasks and %v pages", n, pages)
	}

	defaults := s.do("GET", "/task/my?page=abc&limit=-4", nil, s.login("owner@example.com"))
	expectStatus(t, defaults, http.StatusOK)
	if p := defaults.object("pagination"); p["currentPage"] != float64(1) || p["pageSize"] != float64(10) {
		t.Fatalf("expected default paging, got %v", p)
	}
}

func TestUpdateTask_ExplicitPresence(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	_, ownerID := s.register("Owner", "owner@example.com", "", "")
	_, otherID := s.register("Other", "other@example.com", "", "")
	taskID := s.createTask(adminToken, ownerID, "2026-11-01")

	r := s.do("PUT", "/task/update/"+taskID, map[string]any{"description": ""}, adminToken)
	expectStatus(t, r, http.StatusOK)
	task := r.object("task")
	if task["description"] != "" || task["title"] != "Task due 2026-11-01" {
		t.Fatalf("unexpected task after update %v", task)
	}

	expectStatus(t, s.do("PUT", "/task/update/"+taskID, map[string]any{"priority": "urgent"}, adminToken), http.StatusBadRequest)
	expectStatus(t, s.do("PUT", "/task/update/"+taskID, map[string]any{"assignedTo": "00000000-0000-0000-0000-000000000000"}, adminToken), http.StatusNotFound)
	expectStatus(t, s.do("PUT", "/task/update/missing", map[string]any{"title": "x"}, adminToken), http.StatusNotFound)

	moved := s.do("PUT", "/task/update/"+taskID, map[string]any{"assignedTo": otherID}, adminToken)
	expectStatus(t, moved, http.StatusOK)
	if ref, _ := moved.object("task")["assignedTo"].(map[string]any); ref["id"] != otherID {
		t.Fatalf("expected reassignment, got %v", moved.object("task")["assignedTo"])
	}
}

func TestCreateTask_UnknownAssignee(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register("Admin", "admin@example.com", "admin", testAdminKey)
	r := s.do("POST", "/task/create", map[string]string{
		"title": "t", "description": "d", "priority": "low", "dueDate": "2026-11-01",
		"assignedTo": "00000000-0000-0000-0000-000000000000",
	}, adminToken)
	expectStatus(t, r, http.StatusNotFound)
}

func TestProfileLogoutAndRevocation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Una", "una@example.com", "", "")

	unauth := s.do("GET", "/user/profile", nil, "")
	expectStatus(t, unauth, http.StatusUnauthorized)
	if unauth.body["success"] != false {
		t.Fatalf("expected error envelope, got %v", unauth.body)
	}
	expectStatus(t, s.do("GET", "/user/profile", nil, "garbage"), http.StatusUnauthorized)

	profile := s.do("GET", "/user/profile", nil, token)
	expectStatus(t, profile, http.StatusOK)
	user := profile.object("user")
	if user["email"] != "una@example.com" || user["role"] != "user" {
		t.Fatalf("unexpected profile %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("profile must not expose the password hash")
	}

	logout := s.do("POST", "/user/logout", nil, token)
	expectStatus(t, logout, http.StatusOK)
	var cleared *http.Cookie
	for _, c := range logout.cookies {
		if c.Name == "token" {
			cleared = c
		}
	}
	if cleared == nil || cleared.Value != "" {
		t.Fatalf("logout must overwrite the cookie with an empty value, got %+v", cleared)
	}
	expectStatus(t, s.do("GET", "/user/profile", nil, token), http.StatusUnauthorized)

	expectStatus(t, s.do("POST", "/user/logout", nil, ""), http.StatusOK)
}

func TestBearerTokenAccepted(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Una", "una@example.com", "", "")

	req := httptest.NewRequest("GET", "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUserListRequiresSession(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Una", "una@example.com", "", "")
	s.register("Vic", "vic@example.com", "", "")

	expectStatus(t, s.do("GET", "/user/list", nil, ""), http.StatusUnauthorized)

	r := s.do("GET", "/user/list?limit=1&page=2", nil, token)
	expectStatus(t, r, http.StatusOK)
	users := r.list("users")
	if len(users) != 1 || users[0].(map[string]any)["email"] != "vic@example.com" {
		t.Fatalf("unexpected users %v", r.body)
	}
	if p := r.object("pagination"); p["totalUsers"] != float64(2) || p["totalPages"] != float64(2) {
		t.Fatalf("unexpected pagination %v", p)
	}
}

func TestUnknownRouteAndHealth(t *testing.T) {
	s := newTestServer(t)

	missing := s.do("GET", "/nope", nil, "")
	expectStatus(t, missing, http.StatusNotFound)
	if missing.body["code"] != "NOT_FOUND" {
		t.Fatalf("expected JSON error envelope, got %v", missing.body)
	}

	live := s.do("GET", "/health/live", nil, "")
	expectStatus(t, live, http.StatusOK)
	ready := s.do("GET", "/health/ready", nil, "")
	expectStatus(t, ready, http.StatusOK)
	deps := ready.object("dependencies")
	if deps["postgres"] != "disabled" || deps["redis"] != "disabled" {
		t.Fatalf("unexpected readiness %v", ready.body)
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0, nil)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusInternalServerError || body["message"] != "internal server error" {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}
}

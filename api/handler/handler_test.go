package handler_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/password"
	"github.com/fastygo/taskboard/pkg/token"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type mailbox struct {
	mu     sync.Mutex
	emails []usecase.Email
}

func (m *mailbox) QueueEmail(_ context.Context, email usecase.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
	return nil
}

func (m *mailbox) lastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.emails) == 0 {
		return ""
	}
	return m.emails[len(m.emails)-1].Body
}

type staticStatus struct{ status monitor.Status }

func (s staticStatus) GetStatus() monitor.Status { return s.status }

type server struct {
	handle fasthttp.RequestHandler
	mail   *mailbox
}

func newServer(t *testing.T, today string) *server {
	t.Helper()
	now, err := time.Parse(time.RFC3339, today+"T12:00:00Z")
	require.NoError(t, err)

	users := memory.NewUserRepository()
	mail := &mailbox{}
	tokens := token.NewManager(token.Config{Secret: "0123456789abcdef0123456789abcdef", Issuer: "taskboard-test"})
	auth := authUC.New(users, memory.NewSessionRepository(), tokens, password.NewHasher(bcrypt.MinCost), mail,
		authUC.Config{FrontendURL: "https://todo.example.com"}, nil)
	tasks := taskUC.New(memory.NewTaskRepository(), nil, taskUC.WithClock(func() time.Time { return now }))
	profiles := profileUC.New(users, nil)

	adapter := httpcontext.NewAdapter(time.Second)
	r := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(auth, adapter, nil),
		Profile: handler.NewProfileHandler(profiles, adapter, nil),
		Task:    handler.NewTaskHandler(tasks, adapter, nil),
		Health:  handler.NewHealthHandler(staticStatus{monitor.Status{PostgreSQL: true, Redis: true, Outbox: true}}, adapter, nil),
	}, middleware.BearerAuth(auth, nil), nil)

	return &server{handle: r.Handler, mail: mail}
}

type response struct {
	status int
	body   []byte
	header *fasthttp.ResponseHeader
}

func (r response) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r response) message(t *testing.T) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	r.decode(t, &out)
	return out.Message
}

func (s *server) do(t *testing.T, method, uri, bearer string, body interface{}) response {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if bearer != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+bearer)
	}
	switch b := body.(type) {
	case nil:
	case string:
		req.SetBodyString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req.SetBody(raw)
	}
	req.Header.SetContentType("application/json")

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.handle(&ctx)

	header := &fasthttp.ResponseHeader{}
	ctx.Response.Header.CopyTo(header)
	return response{
		status: ctx.Response.StatusCode(),
		body:   append([]byte(nil), ctx.Response.Body()...),
		header: header,
	}
}

func (s *server) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, "POST", "/api/auth/register", "", map[string]string{"username": email, "password": "s3cretpass"})
	require.Equal(t, fasthttp.StatusCreated, res.status, string(res.body))

	res = s.do(t, "POST", "/api/auth/token", "", map[string]string{"username": email, "password": "s3cretpass"})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	var pair struct {
		Access string `json:"access"`
	}
	res.decode(t, &pair)
	require.NotEmpty(t, pair.Access)
	return pair.Access
}

type taskJSON struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Deadline       string  `json:"deadline"`
	Status         string  `json:"status"`
	CompletionDate *string `json:"completion_date"`
}

func TestRegisterEndpoint(t *testing.T) {
	s := newServer(t, "2025-01-05")

	res := s.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "alice@example.com", "password": "s3cretpass"})
	assert.Equal(t, fasthttp.StatusCreated, res.status)
	assert.Equal(t, "User created successfully", res.message(t))

	res = s.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "ALICE@example.com", "password": "s3cretpass"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Email already registered", res.message(t))

	res = s.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "not-an-email", "password": "s3cretpass"})
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "bob@example.com", "password": "short"})
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, "POST", "/api/auth/register", "", "{not json")
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status)
}

func TestLoginEndpoint(t *testing.T) {
	s := newServer(t, "2025-01-05")
	s.registerAndLogin(t, "alice@example.com")

	res := s.do(t, "POST", "/api/auth/token", "", map[string]string{"username": "alice@example.com", "password": "wrongpass"})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)

	res = s.do(t, "POST", "/api/auth/token", "", map[string]string{"username": "alice@example.com", "password": "s3cretpass"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	var pair struct {
		Refresh string `json:"refresh"`
	}
	res.decode(t, &pair)

	res = s.do(t, "POST", "/api/auth/token/refresh", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, fasthttp.StatusOK, res.status)
	var access struct {
		Access string `json:"access"`
	}
	res.decode(t, &access)
	assert.NotEmpty(t, access.Access)

	res = s.do(t, "POST", "/api/auth/logout", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, fasthttp.StatusNoContent, res.status)

	res = s.do(t, "POST", "/api/auth/token/refresh", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s := newServer(t, "2025-01-05")

	for _, bearer := range []string{"", "garbage"} {
		res := s.do(t, "GET", "/api/tasks", bearer, nil)
		assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
		assert.Contains(t, string(res.header.Peek(fasthttp.HeaderWWWAuthenticate)), "Bearer")
	}

	res := s.do(t, "GET", "/api/profile", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestTaskLifecycleEndpoints(t *testing.T) {
	s := newServer(t, "2025-01-05")
	access := s.registerAndLogin(t, "alice@example.com")

	res := s.do(t, "GET", "/api/tasks", access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.body))

	res = s.do(t, "POST", "/api/tasks", access, map[string]string{"title": "Buy milk", "deadline": "2025-01-10"})
	require.Equal(t, fasthttp.StatusCreated, res.status, string(res.body))
	var created taskJSON
	res.decode(t, &created)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "2025-01-10", created.Deadline)
	assert.Equal(t, "IN_PROGRESS", created.Status)
	assert.Nil(t, created.CompletionDate)

	uri := "/api/tasks/" + jsonNumber(created.ID)
	res = s.do(t, "PUT", uri, access, map[string]string{"status": "COMPLETED"})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	var done taskJSON
	res.decode(t, &done)
	assert.Equal(t, "COMPLETED", done.Status)
	require.NotNil(t, done.CompletionDate)
	assert.Equal(t, "2025-01-05", *done.CompletionDate)
	assert.Equal(t, "Buy milk", done.Title)

	res = s.do(t, "GET", "/api/tasks?status=COMPLETED", access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var completed []taskJSON
	res.decode(t, &completed)
	require.Len(t, completed, 1)

	res = s.do(t, "GET", "/api/tasks?status=IN_PROGRESS", access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.body))

	res = s.do(t, "GET", "/api/tasks?status=DONE", access, nil)
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, "PUT", uri, access, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	var reopened taskJSON
	res.decode(t, &reopened)
	assert.Nil(t, reopened.CompletionDate)

	res = s.do(t, "PUT", uri, access, map[string]string{"status": "DONE"})
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, "DELETE", uri, access, nil)
	assert.Equal(t, fasthttp.StatusNoContent, res.status)
	res = s.do(t, "DELETE", uri, access, nil)
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
}

func TestCreateTaskValidationEndpoint(t *testing.T) {
	s := newServer(t, "2025-01-05")
	access := s.registerAndLogin(t, "alice@example.com")

	bodies := []string{
		`{"title":"","deadline":"2025-01-10"}`,
		`{"title":"Buy milk"}`,
		`{"title":"Buy milk","deadline":"10/01/2025"}`,
		`{"title":"` + strings.Repeat("a", 201) + `","deadline":"2025-01-10"}`,
		``,
	}
	for _, body := range bodies {
		res := s.do(t, "POST", "/api/tasks", access, body)
		assert.Equal(t, fasthttp.StatusUnprocessableEntity, res.status, body)
	}
}

func TestTasksAreOwnerScoped(t *testing.T) {
	s := newServer(t, "2025-01-05")
	alice := s.registerAndLogin(t, "alice@example.com")
	bob := s.registerAndLogin(t, "bob@example.com")

	res := s.do(t, "POST", "/api/tasks", alice, map[string]string{"title": "private", "deadline": "2025-01-10"})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	var created taskJSON
	res.decode(t, &created)
	uri := "/api/tasks/" + jsonNumber(created.ID)

	res = s.do(t, "GET", "/api/tasks", bob, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.body))

	res = s.do(t, "PUT", uri, bob, map[string]string{"title": "mine now"})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	res = s.do(t, "DELETE", uri, bob, nil)
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	res = s.do(t, "PUT", "/api/tasks/abc", alice, map[string]string{"title": "x"})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	res = s.do(t, "GET", "/api/tasks", alice, nil)
	var tasks []taskJSON
	res.decode(t, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "private", tasks[0].Title)
}

func TestPasswordResetEndpoints(t *testing.T) {
	s := newServer(t, "2025-01-05")
	s.registerAndLogin(t, "alice@example.com")

	res := s.do(t, "POST", "/api/auth/password-reset", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
	assert.Equal(t, "User with this email does not exist.", res.message(t))

	res = s.do(t, "POST", "/api/auth/password-reset", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	assert.Equal(t, "Password reset link sent to your email", res.message(t))

	body := s.mail.lastBody()
	start := strings.Index(body, "/password-reset-confirm/")
	require.GreaterOrEqual(t, start, 0)
	link := body[start+len("/password-reset-confirm/"):]
	link = strings.TrimSuffix(link[:strings.Index(link, "\n")], "/")
	confirmURI := "/api/auth/password-reset/confirm/" + link

	res = s.do(t, "POST", confirmURI, "", map[string]string{"new_password1": "newpass123", "new_password2": "different1"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Passwords do not match.", res.message(t))

	res = s.do(t, "POST", confirmURI, "", map[string]string{"new_password1": "newpass123", "new_password2": "newpass123"})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))
	assert.Equal(t, "Password has been reset successfully.", res.message(t))

	res = s.do(t, "POST", confirmURI, "", map[string]string{"new_password1": "again1234", "new_password2": "again1234"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid reset link.", res.message(t))

	res = s.do(t, "POST", "/api/auth/token", "", map[string]string{"username": "alice@example.com", "password": "newpass123"})
	assert.Equal(t, fasthttp.StatusOK, res.status)
}

func TestProfileEndpoints(t *testing.T) {
	s := newServer(t, "2025-01-05")
	access := s.registerAndLogin(t, "alice@example.com")

	res := s.do(t, "PUT", "/api/profile", access, map[string]string{"first_name": "Alice", "last_name": "Liddell"})
	require.Equal(t, fasthttp.StatusOK, res.status)

	res = s.do(t, "GET", "/api/profile", access, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var profile map[string]interface{}
	res.decode(t, &profile)
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.Equal(t, "Alice", profile["first_name"])
	assert.NotContains(t, profile, "password_hash")
	assert.NotContains(t, profile, "PasswordHash")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newServer(t, "2025-01-05")

	res := s.do(t, "GET", "/health", "", nil)
	assert.Equal(t, fasthttp.StatusOK, res.status)

	res = s.do(t, "GET", "/api/tasks", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)

	res = s.do(t, "GET", "/api/nope", "", nil)
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"issue-tracker/internal/handlers"
	"issue-tracker/internal/middleware"
	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/services"
	"issue-tracker/internal/testutil"
	"issue-tracker/internal/validation"
	"issue-tracker/internal/views"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	issues *services.IssueServiceImpl
	auth   *services.AuthServiceImpl
	users  *repositories.GormUserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithDelay(t, 0)
}

func newTestEnvWithDelay(t *testing.T, delay time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenInMemoryDB(t)
	users := repositories.NewUserRepository(db)
	issues := services.NewIssueService(repositories.NewIssueRepository(db), users)
	auth := services.NewAuthService(users, services.AuthConfig{
		Secret:     []byte("test-secret"),
		SessionTTL: time.Hour,
		BCryptCost: bcrypt.MinCost,
	})
	userService := services.NewUserService(users)

	router := gin.New()
	router.SetHTMLTemplate(views.Templates())
	router.Use(middleware.Session(auth))
	registerRoutes(router, issues, userService, auth, delay)

	return &testEnv{router: router, db: db, issues: issues, auth: auth, users: users}
}

func registerRoutes(router *gin.Engine, issues services.IssueService, users services.UserService, auth services.AuthService, delay time.Duration) {
	log := testutil.DiscardLogger()
	issueHandler := handlers.NewIssueHandler(issues, log)
	authHandler := handlers.NewAuthHandler(auth, log, false)
	userHandler := handlers.NewUserHandler(users, log)
	pages := handlers.NewPageHandler(issues, users, log, delay)

	router.POST("/api/issues", issueHandler.CreateIssue)
	router.GET("/api/issues", issueHandler.ListIssues)
	router.GET("/api/issues/:id", issueHandler.GetIssue)
	router.PATCH("/api/issues/:id", middleware.RequireSession(), issueHandler.UpdateIssue)
	router.DELETE("/api/issues/:id", middleware.RequireSession(), issueHandler.DeleteIssue)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/logout", authHandler.Logout)
	router.GET("/api/users", userHandler.ListUsers)

	router.GET("/", pages.Home)
	router.GET("/issues", pages.IssueList)
	router.GET("/issues/new", pages.NewIssue)
	router.GET("/issues/:id", pages.IssueDetail)
	router.GET("/issues/:id/edit", pages.EditIssue)
	router.GET("/login", pages.Login)
	router.NoRoute(pages.NotFound)
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	user, err := e.users.FindByEmail(ctx, "tester@example.com")
	if err != nil {
		user = &models.User{Name: "Tester", Email: "tester@example.com", Password: "x"}
		require.NoError(t, e.users.Create(ctx, user))
	}
	token, _, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createIssue(t *testing.T, title string) *models.Issue {
	t.Helper()
	issue, err := e.issues.CreateIssue(context.Background(), validation.CreateIssue{Title: title, Description: "Something broke"})
	require.NoError(t, err)
	return issue
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	return doOn(e.router, method, path, body, token)
}

func doOn(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// MockIssueService fails every call with err and records whether it was used.
type MockIssueService struct {
	err    error
	called bool
}

func (m *MockIssueService) CreateIssue(ctx context.Context, input validation.CreateIssue) (*models.Issue, error) {
	m.called = true
	return nil, m.err
}

func (m *MockIssueService) GetIssue(ctx context.Context, id int) (*models.Issue, error) {
	m.called = true
	return nil, m.err
}

func (m *MockIssueService) ListIssues(ctx context.Context, filter repositories.IssueFilter) ([]models.Issue, int64, error) {
	m.called = true
	return nil, 0, m.err
}

func (m *MockIssueService) UpdateIssue(ctx context.Context, id int, input validation.PatchIssue) (*models.Issue, error) {
	m.called = true
	return nil, m.err
}

func (m *MockIssueService) DeleteIssue(ctx context.Context, id int) error {
	m.called = true
	return m.err
}

type stubSessions struct{}

func (stubSessions) ParseToken(token string) (*services.Session, error) {
	if token == "valid" {
		return &services.Session{UserID: "user-1", Name: "Stub"}, nil
	}
	return nil, services.ErrInvalidSession
}

func newMockRouter(mock *MockIssueService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewIssueHandler(mock, testutil.DiscardLogger())

	router := gin.New()
	router.Use(middleware.Session(stubSessions{}))
	router.POST("/api/issues", handler.CreateIssue)
	router.GET("/api/issues", handler.ListIssues)
	router.GET("/api/issues/:id", handler.GetIssue)
	router.PATCH("/api/issues/:id", middleware.RequireSession(), handler.UpdateIssue)
	router.DELETE("/api/issues/:id", middleware.RequireSession(), handler.DeleteIssue)
	return router
}

var errDatabaseDown = errors.New("database is down")

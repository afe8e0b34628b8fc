// Package server assembles the application: it wires the services over a
// database pool and an optional cache, and maps every route to its handler.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"issue-tracker/internal/cache"
	"issue-tracker/internal/config"
	"issue-tracker/internal/database"
	"issue-tracker/internal/handlers"
	"issue-tracker/internal/middleware"
	"issue-tracker/internal/monitoring"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/services"
	"issue-tracker/internal/views"
)

// Route binds one (method, path) pair to its handler chain.
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// App holds the wired services and the HTTP engine built over them.
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	Pool    *database.DatabasePool
	Cache   *cache.RedisCache
	Issues  services.IssueService
	Users   services.UserService
	Auth    services.AuthService
	Metrics *monitoring.Metrics
	Health  *monitoring.HealthChecker
	Engine  *gin.Engine
}

// New wires the application. redisCache may be nil, in which case issue
// lookups always go to the database.
func New(cfg *config.Config, log *logrus.Logger, pool *database.DatabasePool, redisCache *cache.RedisCache) *App {
	users := repositories.NewUserRepository(pool.DB)
	issueRepo := repositories.NewIssueRepository(pool.DB)

	var issues services.IssueService = services.NewIssueService(issueRepo, users)
	if redisCache != nil {
		issues = services.NewCachedIssueService(issues, redisCache, cfg.Redis.IssueTTL, log)
	}

	app := &App{
		Config: cfg,
		Log:    log,
		Pool:   pool,
		Cache:  redisCache,
		Issues: issues,
		Users:  services.NewUserService(users),
		Auth: services.NewAuthService(users, services.AuthConfig{
			Secret:     []byte(cfg.Auth.JWTSecret),
			SessionTTL: cfg.Auth.SessionTTL,
			BCryptCost: cfg.Auth.BCryptCost,
		}),
		Metrics: monitoring.NewMetrics(),
		Health:  monitoring.NewHealthChecker(0),
	}

	app.Health.Register("database", pool.HealthContext)
	if redisCache != nil {
		app.Health.Register("cache", redisCache.Health)
	}

	app.Engine = app.router()
	return app
}

func (a *App) router() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(views.Templates())

	engine.Use(
		middleware.RecoveryWithLog(a.Log),
		middleware.RequestLogger(a.Log),
		a.Metrics.Middleware(),
		middleware.CORS(a.Config.Server.CORSOrigins),
	)
	if a.Config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(a.Config.RateLimit.RequestsPerMin, a.Config.RateLimit.BurstSize, a.Config.RateLimit.CleanupInterval)
		engine.Use(limiter.Middleware())
	}
	engine.Use(middleware.Session(a.Auth))

	for _, route := range a.Routes() {
		engine.Handle(route.Method, route.Path, route.Handlers...)
	}

	pages := a.pages()
	engine.NoRoute(pages.NotFound)
	return engine
}

func (a *App) pages() *handlers.PageHandler {
	return handlers.NewPageHandler(a.Issues, a.Users, a.Log, a.Config.Server.DetailPageDelay)
}

func chain(h ...gin.HandlerFunc) []gin.HandlerFunc { return h }

// Routes is the complete route table.
func (a *App) Routes() []Route {
	issues := handlers.NewIssueHandler(a.Issues, a.Log)
	auth := handlers.NewAuthHandler(a.Auth, a.Log, a.Config.Auth.CookieSecure)
	users := handlers.NewUserHandler(a.Users, a.Log)
	pages := a.pages()
	session := middleware.RequireSession()

	return []Route{
		{http.MethodPost, "/api/issues", chain(issues.CreateIssue)},
		{http.MethodGet, "/api/issues", chain(issues.ListIssues)},
		{http.MethodGet, "/api/issues/:id", chain(issues.GetIssue)},
		{http.MethodPatch, "/api/issues/:id", chain(session, issues.UpdateIssue)},
		{http.MethodDelete, "/api/issues/:id", chain(session, issues.DeleteIssue)},

		{http.MethodPost, "/api/auth/register", chain(auth.Register)},
		{http.MethodPost, "/api/auth/login", chain(auth.Login)},
		{http.MethodPost, "/api/auth/logout", chain(auth.Logout)},
		{http.MethodGet, "/api/users", chain(users.ListUsers)},

		{http.MethodGet, "/api/health", chain(a.Health.HealthHandler())},
		{http.MethodGet, "/api/health/ready", chain(a.Health.ReadinessHandler())},
		{http.MethodGet, "/api/health/live", chain(a.Health.LivenessHandler())},
		{http.MethodGet, "/api/metrics", chain(a.Metrics.Handler(a.metricsSections()))},

		{http.MethodGet, "/", chain(pages.Home)},
		{http.MethodGet, "/issues", chain(pages.IssueList)},
		{http.MethodGet, "/issues/new", chain(pages.NewIssue)},
		{http.MethodGet, "/issues/:id", chain(pages.IssueDetail)},
		{http.MethodGet, "/issues/:id/edit", chain(pages.EditIssue)},
		{http.MethodGet, "/login", chain(pages.Login)},
	}
}

func (a *App) metricsSections() map[string]func() interface{} {
	sections := map[string]func() interface{}{
		"database": func() interface{} { return a.Pool.Stats() },
	}
	if a.Cache != nil {
		sections["cache"] = func() interface{} { return a.Cache.Stats() }
	}
	return sections
}

// Server returns an http.Server for the engine using the configured timeouts.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.Config.GetServerAddr(),
		Handler:      a.Engine,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Close releases the cache and the database pool.
func (a *App) Close() error {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.WithError(err).Warn("close cache")
		}
	}
	return a.Pool.Close()
}

package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/Linxify/internal/app/service"
	inthttp "github.com/sifan077/Linxify/internal/http/handler"
	"github.com/sifan077/Linxify/internal/http/middleware"
	infraRedis "github.com/sifan077/Linxify/internal/infra/redis"
	"go.uber.org/zap"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
	bodyLimit    = 1 * 1024 * 1024
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	Sessions *infraRedis.SessionStore

	Auth       service.AuthService
	Links      service.LinkService
	Categories service.CategoryService
	Highlights service.HighlightService
	Scraper    inthttp.MetadataScraper

	AllowedOrigins []string
	CookieSecure   bool
	RateLimit      middleware.RateLimitConfig
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with the Linxify routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "Linxify",
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.AccessLog(s.deps.Logger))
	s.app.Use(middleware.Metrics())
	s.app.Use(middleware.CORS(s.deps.AllowedOrigins...))
	s.app.Use(middleware.LoadSession(s.deps.Sessions, s.deps.Logger))
}

func (s *Server) registerRoutes() {
	limited := s.rateLimiter()

	pageHandler := inthttp.NewPageHandler(inthttp.PageDeps{
		Logger:           s.deps.Logger,
		LinkService:      s.deps.Links,
		HighlightService: s.deps.Highlights,
		ReadyChecks:      s.readyChecks(),
	})
	pageHandler.Register(s.app)

	// Auth routes are public and must be matched before the session-guarded /api group.
	authHandler := inthttp.NewAuthHandler(inthttp.AuthDeps{
		Logger:       s.deps.Logger,
		Auth:         s.deps.Auth,
		Sessions:     s.deps.Sessions,
		CookieSecure: s.deps.CookieSecure,
	})
	authHandler.Register(s.app, limited)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:           s.deps.Logger,
		LinkService:      s.deps.Links,
		CategoryService:  s.deps.Categories,
		HighlightService: s.deps.Highlights,
		Scraper:          s.deps.Scraper,
	})
	apiHandler.Register(s.app, limited)
}

func (s *Server) rateLimiter() fiber.Handler {
	if s.deps.Redis == nil || s.deps.RateLimit.MaxRequests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	cfg := s.deps.RateLimit
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = middleware.DefaultRateLimitConfig().KeyPrefix
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return middleware.RateLimit(s.deps.Redis, cfg, s.deps.Logger)
}

func (s *Server) readyChecks() []inthttp.ReadyCheck {
	var checks []inthttp.ReadyCheck
	if s.deps.Postgres != nil {
		checks = append(checks, inthttp.ReadyCheck{Name: "postgres", Ping: s.deps.Postgres.Ping})
	}
	if s.deps.Redis != nil {
		rdb := s.deps.Redis
		checks = append(checks, inthttp.ReadyCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

package server

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"inboxia/internal/auth"
	"inboxia/internal/cache"
	"inboxia/internal/compose"
	"inboxia/internal/config"
	"inboxia/internal/handlers"
	"inboxia/internal/provider"
	"inboxia/internal/retrieval"
	"inboxia/internal/store"
)

// Server represents the application server
type Server struct {
	echo      *echo.Echo
	db        *sqlx.DB
	config    *config.Config
	logger    zerolog.Logger
	cache     *cache.Cache
	auth      *auth.Service
	provider  provider.Provider
	retriever *retrieval.Retriever
	compose   *compose.Service
	producer  handlers.EventPublisher
	accounts  *store.AccountStore
	folders   *store.FolderStore
	messages  *store.MessageStore
	threads   *store.ThreadStore
}

// Deps bundles the services the server routes to
type Deps struct {
	Auth      *auth.Service
	Provider  provider.Provider
	Retriever *retrieval.Retriever
	Compose   *compose.Service
	Producer  handlers.EventPublisher
	Accounts  *store.AccountStore
	Folders   *store.FolderStore
	Messages  *store.MessageStore
	Threads   *store.ThreadStore
}

// New creates a new server instance
func New(cfg *config.Config, db *sqlx.DB, logger zerolog.Logger, deps Deps) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		logger:    logger,
		cache:     cache.New(),
		auth:      deps.Auth,
		provider:  deps.Provider,
		retriever: deps.Retriever,
		compose:   deps.Compose,
		producer:  deps.Producer,
		accounts:  deps.Accounts,
		folders:   deps.Folders,
		messages:  deps.Messages,
		threads:   deps.Threads,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health and metrics endpoints (root level, unauthenticated, for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Login is the only unauthenticated API endpoint
	s.echo.POST("/api/auth/login", handlers.LoginHandler(s.auth))

	// API group with /api prefix, bearer-token protected
	api := s.echo.Group("/api", s.auth.Middleware())

	api.GET("/accounts", handlers.AccountsHandler(s.accounts))
	api.GET("/accounts/:id/folders", handlers.FoldersHandler(s.folders))
	api.GET("/accounts/:id/messages", handlers.MessagesHandler(s.messages))
	api.GET("/accounts/:id/threads", handlers.ThreadsHandler(s.threads, s.cache))
	api.GET("/threads/:id/messages", handlers.ThreadMessagesHandler(s.messages))

	api.POST("/ingest", handlers.IngestHandler(s.producer))
	api.POST("/compose/draft", handlers.DraftHandler(s.compose))
	api.POST("/compose/send", handlers.SendHandler(s.compose))
	api.POST("/chat", handlers.ChatHandler(s.retriever, s.provider))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}

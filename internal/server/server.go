// Package server contains the HTTP and WebSocket handlers for the Inkpress API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "inkpress/docs" // swagger docs
	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/featureflags"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/notifications"
	"inkpress/internal/repository"
	"inkpress/internal/service"
	"inkpress/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators a Server is built from.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Revocations cache.RevocationStore
	Store       storage.ObjectStore
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	revocations    cache.RevocationStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	featureFlags   *featureflags.Manager
	hub            *notifications.Hub

	authService     *service.AuthService
	userService     *service.UserService
	articleService  *service.ArticleService
	categoryService *service.CategoryService
	commentService  *service.CommentService
	likeService     *service.LikeService
	fileService     *service.FileService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Revocations falls back to an in-memory store.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil || deps.DB == nil {
		return nil, errors.New("server: config and database are required")
	}
	if deps.Store == nil {
		return nil, errors.New("server: object store is required")
	}
	if deps.Revocations == nil {
		deps.Revocations = cache.NewMemoryRevocationStore(cfg.TokenTTL())
	}

	userRepo := repository.NewUserRepository(deps.DB)
	articleRepo := repository.NewArticleRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	likeRepo := repository.NewLikeRepository(deps.DB)
	fileRepo := repository.NewFileRepository(deps.DB)

	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		store:          deps.Store,
		revocations:    deps.Revocations,
		promMiddleware: middleware.InitMetrics("inkpress-api"),
		featureFlags:   flags,
		hub:            notifications.NewHub(notifications.NewNotifier(deps.Redis)),
	}

	s.authService = service.NewAuthService(userRepo, deps.Revocations, service.AuthConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL(),
	})
	s.userService = service.NewUserService(userRepo)
	s.fileService = service.NewFileService(fileRepo, articleRepo, deps.Store, service.FileOptions{
		MaxBytes:     cfg.MaxUploadBytes(),
		URLTTL:       cfg.SignedURLTTL(),
		SkipPreviews: !flags.EnabledGlobally(featureflags.ImagePreviews),
	})
	s.articleService = service.NewArticleService(articleRepo, s.fileService)
	s.categoryService = service.NewCategoryService(categoryRepo, articleRepo)
	s.commentService = service.NewCommentService(commentRepo, articleRepo)
	s.likeService = service.NewLikeService(likeRepo)

	return s, nil
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Inkpress API",
		ErrorHandler: errorHandler,
		BodyLimit:    int(s.config.MaxUploadBytes())*4 + 1<<20,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler answers anything a handler returned without writing a response.
// *fiber.Error keeps its status; everything else maps through its AppError kind.
func errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagate request and user ids into the request context for logging.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	app.Use(helmet.New(helmet.Config{
		// Local media is embedded by browser clients on other origins.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "X-Request-ID, X-Trace-ID",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !middleware.RateLimitingEnabled()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Detail: "Too many requests, please try again later.",
				Code:   "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Get(storage.MediaPrefix+"*", s.ServeMedia(local))
	}

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkpress Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Put("/update-password", s.AuthRequired(), s.UpdatePassword)

	users := api.Group("/users")
	users.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	users.Get("/me", s.AuthRequired(), s.GetMe)
	// Specific routes before the generic /:id route.
	users.Get("/role", s.RoleRequired(models.RoleAdmin), s.ListUsersByRole)
	users.Get("/", s.RoleRequired(models.RoleAdmin), s.ListUsers)
	users.Put("/:id/role", s.RoleRequired(models.RoleAdmin), s.SetUserRole)
	users.Get("/:id", s.RoleRequired(models.RoleAdmin), s.GetUser)

	articles := api.Group("/articles")
	articles.Get("/", s.ListArticles)
	articles.Post("/search", s.SearchArticles)
	articles.Post("/", s.RoleRequired(models.RoleAuthor), s.CreateArticle)
	articles.Put("/:id/categories", s.AuthRequired(), s.SetArticleCategories)
	articles.Get("/:id", s.GetArticle)
	articles.Put("/:id", s.AuthRequired(), s.UpdateArticle)
	articles.Delete("/:id", s.AuthRequired(), s.DeleteArticle)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Get("/of-article", s.GetArticleCategories)
	categories.Post("/", s.RoleRequired(models.RoleModerator), s.CreateCategory)
	categories.Post("/multiple", s.RoleRequired(models.RoleModerator), s.CreateCategories)
	categories.Get("/:id", s.GetCategory)

	comments := api.Group("/comments")
	comments.Get("/", s.ListComments)
	comments.Get("/by-filters", s.ListCommentsByFilters)
	comments.Post("/", s.RoleRequired(models.RoleAuthor), s.CreateComment)
	comments.Put("/", s.AuthRequired(), s.UpdateComment)
	comments.Delete("/:id", s.AuthRequired(), s.DeleteComment)

	likes := api.Group("/likes")
	likes.Post("/", s.AuthRequired(), s.Vote)
	likes.Get("/", s.CountLikes)

	files := api.Group("/files")
	files.Post("/upload", s.AuthRequired(),
		middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadFiles)
	files.Get("/", s.ListFiles)
	files.Get("/:id/info", s.GetFileInfo)
	files.Get("/:id", s.RedirectToFile)
	files.Delete("/:id", s.AuthRequired(), s.DeleteFile)

	api.Get("/ws", s.websocketAuth(), s.FeedWebSocket())

	admin := api.Group("/admin", s.RoleRequired(models.RoleAdmin))
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck pings the database, Redis when configured, and the object store.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	checks["database"] = "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unhealthy"
		healthy = false
	}

	switch {
	case s.redis == nil:
		checks["redis"] = "unconfigured"
	case s.redis.Ping(ctx).Err() != nil:
		// Redis is optional: revocation and rate limits have in-process fallbacks.
		checks["redis"] = "unhealthy"
	default:
		checks["redis"] = "healthy"
	}

	checks["storage"] = "healthy"
	if err := s.store.Ping(ctx); err != nil {
		checks["storage"] = "unhealthy"
		healthy = false
	}
	checks["revocation_backend"] = s.revocations.Backend()

	status, overall := fiber.StatusOK, "healthy"
	if !healthy {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}

// Start serves the API on the configured port until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	go func() {
		if err := s.hub.StartWiring(s.shutdownCtx); err != nil {
			middleware.Logger.Error("failed to start feed wiring",
				slog.String("hub", s.hub.Name()),
				slog.String("error", err.Error()),
			)
		}
	}()

	middleware.Logger.Info("server starting",
		slog.String("port", s.config.Port),
		slog.String("storage", s.store.Driver()),
		slog.String("revocation_backend", s.revocations.Backend()),
	)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and the feed hub. The database and Redis belong to
// whoever built Deps and are closed there.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub",
			slog.String("hub", s.hub.Name()),
			slog.String("error", err.Error()),
		)
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

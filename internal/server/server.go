// Package server contains the HTML pages and JSON API handlers of the application.
package server

import (
	"context"
	"log"
	"strings"
	"time"

	_ "yatube/docs" // swagger docs
	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/views"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          *views.Engine
	promMiddleware *fiberprometheus.FiberPrometheus
	pageStore      cache.PageStore
	closePageStore func() error

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	media          *service.MediaService
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
	groupService   *service.GroupService
}

// NewServer connects to the database and Redis and creates a server instance
// with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	pageStore, closePageStore := cache.NewPageStore(cfg, redisClient)
	media := service.NewMediaService(cfg)

	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		views:          engine,
		promMiddleware: middleware.InitMetrics("yatube"),
		pageStore:      pageStore,
		closePageStore: closePageStore,
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		followRepo:     followRepo,
		media:          media,
	}
	s.feedService = service.NewFeedService(postRepo, groupRepo, userRepo, cfg.EffectivePageSize())
	s.postService = service.NewPostService(postRepo, groupRepo, media)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.followService = service.NewFollowService(followRepo, userRepo)
	s.userService = service.NewUserService(userRepo)
	s.groupService = service.NewGroupService(groupRepo)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
// Repeated calls return the same app.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        s.views,
		ErrorHandler: s.errorHandler,
		// Multipart framing on top of the largest accepted image.
		BodyLimit: s.config.MaxUploadBytes() + 1024*1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware installs the global middleware chain.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(middleware.TracingMiddleware())

	// Security headers. Pages pull Bootstrap from a CDN.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Only the JSON API is meant for cross-origin clients.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use("/api", cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(s.LoadViewer())

	app.Use(s.csrfProtection())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.config.MediaRoot, fiber.Static{
		Browse:        false,
		CacheDuration: 10 * time.Minute,
	})

	s.setupPageRoutes(app)
	s.setupAPIRoutes(app)

	app.Use(s.NotFound)
}

func (s *Server) setupPageRoutes(app *fiber.App) {
	app.Get("/", cachePage(s.pageStore, s.config.IndexCacheTTL()), s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	login := s.LoginRequired()
	app.Get("/create/", login, s.CreatePostPage)
	app.Post("/create/", login, middleware.RateLimit(s.redis, middleware.PostQuota), s.CreatePost)
	app.Get("/posts/:id/edit/", login, s.EditPostPage)
	app.Post("/posts/:id/edit/", login, s.EditPost)
	app.Post("/posts/:id/comment/", login, middleware.RateLimit(s.redis, middleware.CommentQuota), s.AddComment)
	app.Get("/follow/", login, s.FollowIndex)
	for _, method := range []string{fiber.MethodGet, fiber.MethodPost} {
		app.Add(method, "/profile/:username/follow/", login, s.ProfileFollow)
		app.Add(method, "/profile/:username/unfollow/", login, s.ProfileUnfollow)
	}

	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", middleware.RateLimit(s.redis, middleware.SignupQuota), s.SignupSubmit)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", middleware.RateLimit(s.redis, middleware.LoginQuota), s.LoginSubmit)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)
}

func (s *Server) setupAPIRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, middleware.SignupQuota), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, middleware.LoginQuota), s.Login)

	api.Get("/posts", s.APIListPosts)
	api.Get("/posts/:id", s.APIGetPost)
	api.Get("/groups", s.APIListGroups)
	api.Get("/groups/:slug/posts", s.APIGroupPosts)
	api.Get("/profiles/:username/posts", s.APIProfilePosts)

	authed := []fiber.Handler{middleware.AuthRequired, s.RequireViewer()}

	admin := api.Group("/admin", append(authed, s.AdminRequired())...)
	admin.Get("/groups", s.AdminListGroups)
	admin.Post("/groups", s.AdminCreateGroup)
	admin.Put("/groups/:id", s.AdminUpdateGroup)
	admin.Delete("/groups/:id", s.AdminDeleteGroup)
	admin.Get("/posts", s.AdminListPosts)
	admin.Patch("/posts/:id", s.AdminSetPostGroup)
	admin.Delete("/posts/:id", s.AdminDeletePost)
	admin.Get("/comments", s.AdminListComments)
	admin.Get("/follows", s.AdminListFollows)
	admin.Get("/users", s.AdminListUsers)
	admin.Post("/cache/clear", s.AdminClearCache)

	api.Post("/posts", append(authed, middleware.RateLimit(s.redis, middleware.PostQuota), s.APICreatePost)...)
	api.Put("/posts/:id", append(authed, s.APIUpdatePost)...)
	api.Post("/posts/:id/comments", append(authed, middleware.RateLimit(s.redis, middleware.CommentQuota), s.APICreateComment)...)
	api.Get("/follow", append(authed, s.APIFollowFeed)...)
	api.Get("/follows", append(authed, s.APIListFollows)...)
	api.Post("/profiles/:username/follow", append(authed, s.APIFollow)...)
	api.Delete("/profiles/:username/follow", append(authed, s.APIUnfollow)...)
}

// LivenessCheck handles liveness requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness requests. Redis only backs caches
// and rate limits, so a missing Redis degrades but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":   dbStatus,
			"redis":      redisStatus,
			"page_cache": s.pageStore.Backend(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + strings.TrimPrefix(s.config.Port, ":"))
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.closePageStore != nil {
		if err := s.closePageStore(); err != nil {
			log.Printf("error closing page cache: %v", err)
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

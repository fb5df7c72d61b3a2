// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/tungtase04539/TFT-Finder/docs" // swagger docs
	"github.com/tungtase04539/TFT-Finder/internal/bootstrap"
	"github.com/tungtase04539/TFT-Finder/internal/config"
	"github.com/tungtase04539/TFT-Finder/internal/featureflags"
	"github.com/tungtase04539/TFT-Finder/internal/middleware"
	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
	"github.com/tungtase04539/TFT-Finder/internal/service"
	"github.com/tungtase04539/TFT-Finder/internal/worker"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// consumedTicketEntry caches a WebSocket ticket that was already consumed
// from Redis so the multi-pass upgrade handshake can re-validate it.
type consumedTicketEntry struct {
	userID    uint
	consumeAt time.Time
}

// consumedTicketGrace is how long a consumed ticket stays valid in-process.
const consumedTicketGrace = 30 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	profileRepo repository.ProfileRepository
	roomRepo    repository.RoomRepository
	messageRepo repository.RoomMessageRepository
	reportRepo  repository.ReportRepository
	banRepo     repository.BanRepository
	queueRepo   repository.QueueRepository
	codeRepo    repository.VerificationCodeRepository
	resultRepo  repository.MatchResultRepository

	riot     *riot.Client
	notifier *notifications.Notifier
	hub      *notifications.Hub
	roomHub  *notifications.RoomHub
	hubs     []wireableHub // all hubs for wiring/shutdown iteration

	featureFlags *featureflags.Manager

	roomService         *service.RoomService
	moderationService   *service.ModerationService
	verificationService *service.VerificationService
	queueService        *service.QueueService
	detectionService    *service.DetectionService
	resultService       *service.ResultService

	worker *worker.Worker

	consumedTicketsMu sync.Mutex
	consumedTickets   map[string]consumedTicketEntry
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis first.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewRoomMessageRepository(db)
	reportRepo := repository.NewReportRepository(db)
	banRepo := repository.NewBanRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	codeRepo := repository.NewVerificationCodeRepository(db)
	resultRepo := repository.NewMatchResultRepository(db)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("tftfinder-api")

	server := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  prom,
		profileRepo:     profileRepo,
		roomRepo:        roomRepo,
		messageRepo:     messageRepo,
		reportRepo:      reportRepo,
		banRepo:         banRepo,
		queueRepo:       queueRepo,
		codeRepo:        codeRepo,
		resultRepo:      resultRepo,
		riot:            riot.NewClient(cfg),
		featureFlags:    featureflags.NewManager(cfg.FeatureFlags),
		consumedTickets: make(map[string]consumedTicketEntry),
	}

	server.roomService = service.NewRoomService(roomRepo, profileRepo)
	server.moderationService = service.NewModerationService(reportRepo, banRepo, profileRepo, roomRepo)
	server.verificationService = service.NewVerificationService(codeRepo, profileRepo, banRepo, server.riot, nil)
	server.queueService = service.NewQueueService(queueRepo, profileRepo)
	server.detectionService = service.NewDetectionService(server.riot, roomRepo, profileRepo)
	server.resultService = service.NewResultService(resultRepo, roomRepo, profileRepo, server.detectionService)

	// Initialize notifier and hubs if Redis is available
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub(redisClient)
		server.roomHub = notifications.NewRoomHub()
		server.hubs = []wireableHub{server.hub, server.roomHub}
	}

	server.worker = worker.New(
		cfg,
		roomRepo,
		codeRepo,
		server.roomService,
		server.detectionService,
		server.resultService,
		server.verificationService,
		server.notifier,
	)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
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

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness (keeps existing scripts working)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "TFT Finder Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/send-verification-code", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "send_code"), s.SendVerificationCode)
	auth.Post("/verify-code", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "verify_code"), s.VerifyCode)
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Riot identity verification
	verify := protected.Group("/verify/riot")
	verify.Post("/start", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "riot_verify"), s.StartRiotVerification)
	verify.Post("/confirm", s.ConfirmRiotVerification)

	// Profile routes
	profiles := protected.Group("/profiles")
	profiles.Post("/refresh-rank", middleware.RateLimit(
		s.redis, 2, time.Minute, "refresh_rank"), s.RefreshMyRank)
	profiles.Get("/:id", s.GetProfile)

	// Room routes
	rooms := protected.Group("/rooms")
	rooms.Get("/", s.ListRooms)
	rooms.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_room"), s.CreateRoom)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	rooms.Post("/:id/join", s.JoinRoom)
	rooms.Post("/:id/leave", s.LeaveRoom)
	rooms.Post("/:id/agree", s.AgreeToRules)
	rooms.Put("/:id/rules", s.UpdateRoomRules)
	rooms.Put("/:id/max-players", s.UpdateRoomMaxPlayers)
	rooms.Put("/:id/lobby-code", s.SetLobbyCode)
	rooms.Post("/:id/copy", s.RecordCopyAction)
	rooms.Post("/:id/start", s.StartPlaying)
	rooms.Get("/:id/messages", s.GetRoomMessages)
	rooms.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "room_chat"), s.SendRoomMessage)
	rooms.Get("/:id/results", s.GetRoomResults)
	rooms.Get("/:id", s.GetRoom)

	// Queue routes
	queue := protected.Group("/queue")
	queue.Get("/", s.ListQueue)
	queue.Post("/join", s.JoinQueue)
	queue.Delete("/leave", s.LeaveQueue)

	// Match detection and result tracking
	protected.Post("/check-match-started", middleware.RateLimit(
		s.redis, 10, time.Minute, "check_match"), s.CheckMatchStarted)
	protected.Post("/track-match-result", middleware.RateLimit(
		s.redis, 5, time.Minute, "track_result"), s.TrackMatchResult)

	// Reports
	protected.Post("/reports", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "create_report"), s.CreateReport)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Websocket endpoints - protected by AuthRequired (ticket auth)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler()) // General user notifications
	app.Get("/ws/rooms/:id", s.AuthRequired(), s.RoomWebSocketHandler())

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/reports", s.ListReports)
	admin.Get("/reports/:id", s.GetReport)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Post("/apply-ban", s.ApplyBan)
	admin.Get("/bans", s.ListBans)
	admin.Delete("/bans/:id", s.Unban)
	admin.Get("/stats", s.AdminStats)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
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
		// Redis is required for full readiness: tickets, rate limits, events
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "TFT Finder",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws") || strings.HasPrefix(path, "/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			if userID, ok := s.resolveTicket(c.Context(), ticket); ok {
				c.Locals("userID", userID)
				c.Locals("wsTicket", ticket)
				ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
				c.SetUserContext(ctx)
				return c.Next()
			}
			// If a ticket was provided but invalid/expired, fail on WS paths
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		// Parse and validate token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Extract claims
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != jwtIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != jwtAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		// Extract user ID from subject claim
		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Store user ID in context
		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// resolveTicket validates a WebSocket ticket. Tickets are single-use in
// Redis (consumed atomically with GETDEL) but cached in-process for a short
// grace period because the WebSocket upgrade runs the middleware chain more
// than once.
func (s *Server) resolveTicket(ctx context.Context, ticket string) (uint, bool) {
	now := time.Now()

	s.consumedTicketsMu.Lock()
	if entry, ok := s.consumedTickets[ticket]; ok && now.Sub(entry.consumeAt) < consumedTicketGrace {
		s.consumedTicketsMu.Unlock()
		return entry.userID, true
	}
	// Drop expired entries opportunistically.
	for t, entry := range s.consumedTickets {
		if now.Sub(entry.consumeAt) >= consumedTicketGrace {
			delete(s.consumedTickets, t)
		}
	}
	s.consumedTicketsMu.Unlock()

	key := fmt.Sprintf("ws_ticket:%s", ticket)
	userIDStr, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
	if parseErr != nil {
		return 0, false
	}

	s.consumedTicketsMu.Lock()
	s.consumedTickets[ticket] = consumedTicketEntry{
		userID:    uint(userID),
		consumeAt: now,
	}
	s.consumedTicketsMu.Unlock()

	return uint(userID), true
}

// consumeWSTicket drops a ticket from the in-process cache once the socket
// that used it is established. Accepts the raw value from c.Locals.
func (s *Server) consumeWSTicket(ctx context.Context, ticket interface{}) {
	ticketStr, ok := ticket.(string)
	if !ok || ticketStr == "" {
		return
	}

	s.consumedTicketsMu.Lock()
	delete(s.consumedTickets, ticketStr)
	s.consumedTicketsMu.Unlock()

	if s.redis != nil {
		s.redis.Del(ctx, fmt.Sprintf("ws_ticket:%s", ticketStr))
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "TFT Finder API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Custom error handler
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to the Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					log.Printf("failed to start %s wiring: %v", h.Name(), err)
				}
			}()
		}
	}

	// Background detection, result tracking, and maintenance loops
	if s.worker != nil {
		s.worker.Start(s.shutdownCtx)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Stop the background worker before closing its dependencies
	if s.worker != nil {
		s.worker.Stop()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
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

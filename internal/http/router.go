// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Ownership and role enforcement at the routing layer, never by
//     trusting raw headers
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/auth"
	"github.com/afritrade/go-trade-backend/internal/config"
	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/handlers"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
	"github.com/afritrade/go-trade-backend/internal/repo"
	"github.com/afritrade/go-trade-backend/internal/services"
)

// reservationRepoShim adapts the repository free functions to the
// services.ReservationRepo interface. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type reservationRepoShim struct{}

func (reservationRepoShim) CreateReservation(ctx context.Context, db *gorm.DB, r *domain.Reservation) error {
	return repo.CreateReservation(ctx, db, r)
}

func (reservationRepoShim) GetReservation(ctx context.Context, db *gorm.DB, id string) (*domain.Reservation, error) {
	return repo.GetReservation(ctx, db, id)
}

func (reservationRepoShim) GetReservationByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Reservation, error) {
	return repo.GetReservationByReference(ctx, db, reference)
}

func (reservationRepoShim) ListReservationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Reservation, error) {
	return repo.ListReservationsPage(ctx, db, userID, offset, limit)
}

func (reservationRepoShim) CountReservations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountReservations(ctx, db, userID)
}

func (reservationRepoShim) ListPendingReservationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Reservation, error) {
	return repo.ListPendingReservationsPage(ctx, db, offset, limit)
}

func (reservationRepoShim) CountPendingReservations(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPendingReservations(ctx, db)
}

func (reservationRepoShim) TransitionReservation(ctx context.Context, db *gorm.DB, id string, from, to domain.ReservationStatus, extra map[string]any) (int64, error) {
	return repo.TransitionReservation(ctx, db, id, from, to, extra)
}

// transportRepoShim adapts the repo free functions to services.TransportRepo.
type transportRepoShim struct{}

func (transportRepoShim) CreateTransport(ctx context.Context, db *gorm.DB, t *domain.Transport) error {
	return repo.CreateTransport(ctx, db, t)
}

func (transportRepoShim) GetTransport(ctx context.Context, db *gorm.DB, id string) (*domain.Transport, error) {
	return repo.GetTransport(ctx, db, id)
}

func (transportRepoShim) ListTransportsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transport, error) {
	return repo.ListTransportsPage(ctx, db, userID, offset, limit)
}

func (transportRepoShim) CountTransports(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountTransports(ctx, db, userID)
}

func (transportRepoShim) TransitionTransport(ctx context.Context, db *gorm.DB, id string, from, to domain.TransportStatus) (int64, error) {
	return repo.TransitionTransport(ctx, db, id, from, to)
}

func (transportRepoShim) AppendTransportEvent(ctx context.Context, db *gorm.DB, transportID, stage, description string) (*domain.TransportEvent, error) {
	return repo.AppendTransportEvent(ctx, db, transportID, stage, description)
}

func (transportRepoShim) AddTransportDocument(ctx context.Context, db *gorm.DB, transportID string, doc *domain.TransportDocument) error {
	return repo.AddTransportDocument(ctx, db, transportID, doc)
}

// devisRepoShim adapts the repo free functions to services.DevisRepo.
type devisRepoShim struct{}

func (devisRepoShim) CreateDevis(ctx context.Context, db *gorm.DB, d *domain.Devis) error {
	return repo.CreateDevis(ctx, db, d)
}

func (devisRepoShim) GetDevis(ctx context.Context, db *gorm.DB, id string) (*domain.Devis, error) {
	return repo.GetDevis(ctx, db, id)
}

func (devisRepoShim) ListDevisPage(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType, offset, limit int) ([]domain.Devis, error) {
	return repo.ListDevisPage(ctx, db, userID, serviceType, offset, limit)
}

func (devisRepoShim) CountDevis(ctx context.Context, db *gorm.DB, userID string, serviceType domain.DevisType) (int64, error) {
	return repo.CountDevis(ctx, db, userID, serviceType)
}

func (devisRepoShim) ListAllDevisPage(ctx context.Context, db *gorm.DB, f services.DevisListFilter, offset, limit int) ([]domain.Devis, error) {
	return repo.ListAllDevisPage(ctx, db, repo.DevisFilter{Status: f.Status, ServiceType: f.ServiceType}, offset, limit)
}

func (devisRepoShim) CountAllDevis(ctx context.Context, db *gorm.DB, f services.DevisListFilter) (int64, error) {
	return repo.CountAllDevis(ctx, db, repo.DevisFilter{Status: f.Status, ServiceType: f.ServiceType})
}

func (devisRepoShim) RespondDevis(ctx context.Context, db *gorm.DB, id string, response string, amount float64, currency, delay string) (int64, error) {
	return repo.RespondDevis(ctx, db, id, response, amount, currency, delay)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine. It configures observability (tracing, metrics), rate
// limiting, CORS and security headers, health and metrics endpoints, and
// then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, verifier auth.IdentityVerifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	resSvc := services.NewReservationService(db, reservationRepoShim{})
	transSvc := services.NewTransportService(db, transportRepoShim{})
	devisSvc := services.NewDevisService(db, devisRepoShim{})
	msgSvc := services.NewMessageService(db)
	profileSvc := services.NewProfileService(db)
	adminSvc := services.NewAdminService(db)
	h := handlers.New(resSvc, transSvc, devisSvc, msgSvc, profileSvc, adminSvc)

	apiBase := cfg.APIBasePath // e.g. "/api/v1"

	// Endpoints open to anonymous traffic. A valid token still attaches
	// ownership to created devis.
	open := groupWithPrefix(r, apiBase)
	open.Use(middleware.AuthenticateOptional(verifier))
	{
		open.POST("/devis", h.CreateDevis)
		open.GET("/accompagnement/formules", h.ListFormulas)
	}

	// Authenticated customer API
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Authenticate(verifier))
	{
		// Reservations
		api.POST("/reservations", h.CreateReservation)
		api.GET("/reservations", h.ListReservations)
		api.GET("/reservations/reference/:reference", h.GetReservationByReference)
		api.GET("/reservations/:id", h.GetReservation)
		api.PUT("/reservations/:id/cancel", h.CancelReservation)

		// Transports
		api.POST("/transports/estimation", h.QuoteTransport)
		api.POST("/transports", h.CreateTransport)
		api.GET("/transports", h.ListTransports)
		api.GET("/transports/:id", h.GetTransport)
		api.PUT("/transports/:id/cancel", h.CancelTransport)

		// Devis
		api.GET("/devis", h.ListDevis)
		api.GET("/devis/:id", h.GetDevis)

		// Accompaniment
		api.POST("/accompagnement", h.RequestAccompagnement)
		api.GET("/accompagnement", h.ListAccompagnement)

		// Messaging
		api.POST("/messages", h.SendMessage)
		api.GET("/messages/non-lus", h.UnreadCount)
		api.PUT("/messages/:id/lu", h.MarkMessageRead)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.POST("/conversations/:id/messages", h.ReplyConversation)
		api.PUT("/conversations/:id/lu", h.MarkConversationRead)

		// Profile
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
	}

	// Back office
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.GET("/reservations/pending", h.ListPendingReservations)
		admin.PUT("/reservations/:id/confirm", h.ConfirmReservation)
		admin.PUT("/transports/:id/status", h.UpdateTransportStatus)
		admin.POST("/transports/:id/documents", h.AddTransportDocument)
		admin.GET("/devis", h.ListAllDevis)
		admin.PUT("/devis/:id/reponse", h.RespondDevis)
	}
}

// limitBody returns a Gin middleware that caps the request body size for
// all endpoints using http.MaxBytesReader. Requests exceeding the cap cause
// downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

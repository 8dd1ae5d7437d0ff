package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/handler"
	authh "github.com/jwalitptl/clinic-booking/internal/handler/auth"
	bookingh "github.com/jwalitptl/clinic-booking/internal/handler/booking"
	catalogh "github.com/jwalitptl/clinic-booking/internal/handler/catalog"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	patienth "github.com/jwalitptl/clinic-booking/internal/handler/patient"
	statsh "github.com/jwalitptl/clinic-booking/internal/handler/stats"
	userh "github.com/jwalitptl/clinic-booking/internal/handler/user"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Health  *health.Handler
	Auth    *authh.Handler
	Booking *bookingh.Handler
	Catalog *catalogh.Handler
	Patient *patienth.Handler
	User    *userh.Handler
	Stats   *statsh.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	limiter  *middleware.RateLimiter
	gatherer prometheus.Gatherer
}

type RouterConfig struct {
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *logger.Logger
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, cfg RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		gatherer: cfg.Gatherer,
	}
	if cfg.RateLimit.Enabled {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.Logger(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)),
		middleware.Timeout(middleware.TimeoutConfig{Duration: cfg.Server.Timeout}),
		middleware.SizeLimit(maxBodyBytes),
	)

	return r
}

func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(r.engine)
	if r.gatherer != nil {
		r.engine.GET("/metrics", handler.MetricsHandler(r.gatherer))
	}

	api := r.engine.Group("/api/v1")
	r.setupPublicRoutes(api)

	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate())
	r.setupAdminRoutes(admin)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	var writes []gin.HandlerFunc
	if r.limiter != nil {
		writes = append(writes, r.limiter.RateLimit())
	}

	r.handlers.Auth.RegisterRoutes(rg, writes...)
	r.handlers.Catalog.RegisterRoutes(rg)
	r.handlers.Booking.RegisterRoutes(rg, writes...)
}

func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	// ADMIN and STAFF
	r.handlers.Auth.RegisterAdminRoutes(rg)
	r.handlers.Booking.RegisterAdminRoutes(rg)
	r.handlers.Patient.RegisterRoutes(rg)

	owners := rg.Group("")
	owners.Use(r.auth.RequireRole(model.AdminRoleAdmin))
	r.handlers.Catalog.RegisterAdminRoutes(owners)
	r.handlers.User.RegisterRoutes(owners)
	r.handlers.Stats.RegisterRoutes(owners)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

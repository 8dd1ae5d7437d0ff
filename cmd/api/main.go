package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-booking/internal/config"
	authHandler "github.com/jwalitptl/clinic-booking/internal/handler/auth"
	bookingHandler "github.com/jwalitptl/clinic-booking/internal/handler/booking"
	catalogHandler "github.com/jwalitptl/clinic-booking/internal/handler/catalog"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-booking/internal/handler/patient"
	statsHandler "github.com/jwalitptl/clinic-booking/internal/handler/stats"
	userHandler "github.com/jwalitptl/clinic-booking/internal/handler/user"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	"github.com/jwalitptl/clinic-booking/internal/router"
	authService "github.com/jwalitptl/clinic-booking/internal/service/auth"
	bookingService "github.com/jwalitptl/clinic-booking/internal/service/booking"
	catalogService "github.com/jwalitptl/clinic-booking/internal/service/catalog"
	patientService "github.com/jwalitptl/clinic-booking/internal/service/patient"
	"github.com/jwalitptl/clinic-booking/internal/service/scheduling"
	statsService "github.com/jwalitptl/clinic-booking/internal/service/stats"
	userService "github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/pkg/auth"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	logger.SetGlobal(appLog)
	if !cfg.Log.Console {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		appLog.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("clinic", registry)

	// Initialize repositories
	base := postgres.NewBaseRepository(db, m)
	bookingRepo := postgres.NewBookingRepository(base)
	serviceRepo := postgres.NewServiceRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	adminRepo := postgres.NewAdminRepository(base)
	statsRepo := postgres.NewStatsRepository(base)

	window, err := scheduling.WindowFromConfig(cfg.Clinic)
	if err != nil {
		appLog.Fatal(err, "invalid clinic window")
	}

	// Initialize services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	engine := scheduling.NewEngine(bookingRepo, window, m, appLog)
	bookingSvc := bookingService.NewService(bookingRepo, appLog)
	catalogSvc := catalogService.NewService(serviceRepo, cfg.Cache.ServicesTTL, appLog)
	patientSvc := patientService.NewService(patientRepo, bookingRepo)
	authSvc := authService.NewService(adminRepo, jwtSvc, hasher, appLog)
	userSvc := userService.NewService(adminRepo, hasher, appLog)
	statsSvc := statsService.NewService(statsRepo, window.Location)

	if err := authSvc.SeedAdmin(ctx, cfg.Admin); err != nil {
		appLog.Fatal(err, "failed to seed admin account")
	}

	// Setup router
	r := router.NewRouter(middleware.NewAuthMiddleware(jwtSvc), router.Handlers{
		Health:  health.NewHandler(db),
		Auth:    authHandler.NewHandler(authSvc),
		Booking: bookingHandler.NewHandler(engine, bookingSvc),
		Catalog: catalogHandler.NewHandler(catalogSvc),
		Patient: patientHandler.NewHandler(patientSvc),
		User:    userHandler.NewHandler(userSvc),
		Stats:   statsHandler.NewHandler(statsSvc),
	}, router.RouterConfig{
		Server:    cfg.Server,
		RateLimit: cfg.RateLimit,
		Metrics:   m,
		Gatherer:  registry,
		Logger:    appLog,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server
	go func() {
		appLog.Info("starting server", "port", cfg.Server.Port, "timezone", cfg.Clinic.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(err, "server forced to shutdown")
		return
	}

	appLog.Info("server exited properly")
}

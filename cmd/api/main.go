package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/garage-api/config"
	"github.com/jwalitptl/garage-api/internal/handler"
	catalogHandler "github.com/jwalitptl/garage-api/internal/handler/catalog"
	customerHandler "github.com/jwalitptl/garage-api/internal/handler/customer"
	reservationHandler "github.com/jwalitptl/garage-api/internal/handler/reservation"
	scheduleHandler "github.com/jwalitptl/garage-api/internal/handler/schedule"
	"github.com/jwalitptl/garage-api/internal/middleware"
	"github.com/jwalitptl/garage-api/internal/repository/postgres"
	"github.com/jwalitptl/garage-api/internal/router"
	availabilityService "github.com/jwalitptl/garage-api/internal/service/availability"
	bookingService "github.com/jwalitptl/garage-api/internal/service/booking"
	catalogService "github.com/jwalitptl/garage-api/internal/service/catalog"
	customerService "github.com/jwalitptl/garage-api/internal/service/customer"
	scheduleService "github.com/jwalitptl/garage-api/internal/service/schedule"
	"github.com/jwalitptl/garage-api/pkg/metrics"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Repositories
	operationRepo := postgres.NewOperationRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	bayRepo := postgres.NewBayRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	closureRepo := postgres.NewClosureRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	// Services
	m := metrics.NewMetrics("garage", "api")
	availabilityCache := availabilityService.NewCache()
	availabilitySvc := availabilityService.NewService(
		operationRepo,
		staffRepo,
		closureRepo,
		availabilityCache,
		m,
		cfg.Booking.MaxAdvanceDays,
	)
	bookingSvc := bookingService.NewService(
		appointmentRepo,
		customerRepo,
		bayRepo,
		staffRepo,
		closureRepo,
		availabilitySvc,
		m,
	)
	catalogSvc := catalogService.NewService(operationRepo)
	customerSvc := customerService.NewService(customerRepo)
	scheduleSvc := scheduleService.NewService(staffRepo, bayRepo, closureRepo, availabilitySvc)

	// Handlers
	h := handler.NewHandler(db)
	reservationH := reservationHandler.NewHandler(availabilitySvc, bookingSvc)
	catalogH := catalogHandler.NewHandler(catalogSvc)
	customerH := customerHandler.NewHandler(customerSvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc)

	routerConfig := router.Config{
		RequestTimeout: 30 * time.Second,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPrefix:  "garage_api",
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimitRPS = cfg.RateLimit.RequestsPerSecond
		routerConfig.RateLimitBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(reservationH, catalogH, customerH, scheduleH, h, routerConfig)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

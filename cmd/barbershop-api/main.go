package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/noah-isme/barbershop-api/api/swagger"
	"github.com/noah-isme/barbershop-api/internal/handler"
	"github.com/noah-isme/barbershop-api/internal/repository"
	"github.com/noah-isme/barbershop-api/internal/service"
	"github.com/noah-isme/barbershop-api/pkg/cache"
	"github.com/noah-isme/barbershop-api/pkg/config"
	"github.com/noah-isme/barbershop-api/pkg/database"
	"github.com/noah-isme/barbershop-api/pkg/events"
	"github.com/noah-isme/barbershop-api/pkg/jobs"
	"github.com/noah-isme/barbershop-api/pkg/logger"
	"github.com/noah-isme/barbershop-api/pkg/ratelimit"
	"github.com/noah-isme/barbershop-api/pkg/tracing"
)

// @title Barbershop API
// @version 1.0.0
// @description Appointment availability, booking and kiosk service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without slot cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()

	hoursRepo := repository.NewWorkingHoursRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	overrideRepo := repository.NewAvailabilityOverrideRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	slotCache := service.NewSlotCache(cacheRepo, metrics, cfg.Availability.SlotCacheTTL, logr, cfg.Availability.SlotCacheEnabled && redisClient != nil)

	dispatcher := service.NewBookingEventDispatcher(slotCache, nil, metrics, logr)
	if cfg.Kafka.Enabled {
		publisher, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer publisher.Close()
		dispatcher = service.NewBookingEventDispatcher(slotCache, publisher, metrics, logr)

		consumer, err := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic, cfg.Kafka.GroupID, logr)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer consumer.Close()
		feed := service.NewChangeFeedConsumer(consumer, slotCache, metrics, logr)
		go func() {
			if err := feed.Run(ctx); err != nil {
				logr.Error("change feed stopped", zap.Error(err))
			}
		}()
	}

	queue := jobs.NewQueue("booking-events", dispatcher.Handle, jobs.QueueConfig{
		Workers:    cfg.Booking.EventWorkers,
		BufferSize: cfg.Booking.EventBuffer,
		MaxRetries: cfg.Booking.EventRetries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr,
		OnDrop:     dispatcher.OnDrop,
	})
	dispatcher.Attach(queue)
	queue.Start(ctx)
	defer queue.Stop()

	validate := validator.New()
	availability := service.NewAvailabilityService(hoursRepo, bookingRepo, overrideRepo, logr).
		WithClock(cfg.Availability.Location(), time.Now).
		WithMetrics(metrics)
	bookings := service.NewBookingService(bookingRepo, serviceRepo, availability, dispatcher, validate, logr).WithMetrics(metrics)
	hours := service.NewWorkingHoursService(hoursRepo, dispatcher, validate, logr)
	overrides := service.NewOverrideService(overrideRepo, dispatcher, cfg.Availability.Location(), validate, logr)
	kiosk := service.NewKioskService(availability, serviceRepo, slotCache, clientRepo, bookingRepo, bookings, validate, logr)

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.Kiosk.RateLimit, cfg.Kiosk.RateWindow, "ratelimit")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Kiosk.RateLimit, cfg.Kiosk.RateWindow, 10*cfg.Kiosk.RateWindow)
	}

	deps := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		deps["redis"] = cacheRepo
	}

	router := newRouter(cfg, routerDeps{
		Logger:       logr,
		Tokens:       service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer),
		Limiter:      limiter,
		Observer:     metrics,
		RateRecorder: metrics,
		Metrics:      handler.NewMetricsHandler(metrics, deps),
		Availability: handler.NewAvailabilityHandler(bookings, kiosk),
		Bookings:     handler.NewBookingHandler(bookings),
		Schedule:     handler.NewScheduleHandler(hours, overrides),
		Kiosk:        handler.NewKioskHandler(kiosk),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(router, "barbershop-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

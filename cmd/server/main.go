package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	busadapter "github.com/seu-repo/sigeb/internal/adapter/bus"
	"github.com/seu-repo/sigeb/internal/adapter/cache"
	"github.com/seu-repo/sigeb/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigeb/internal/adapter/lock"
	"github.com/seu-repo/sigeb/internal/adapter/queue"
	"github.com/seu-repo/sigeb/internal/adapter/storage/postgres"
	wsadapter "github.com/seu-repo/sigeb/internal/adapter/websocket"
	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/eventbus"
	"github.com/seu-repo/sigeb/internal/fare"
	"github.com/seu-repo/sigeb/internal/idempotency"
	"github.com/seu-repo/sigeb/internal/observability/telemetry"
	"github.com/seu-repo/sigeb/internal/service/fleet"
	"github.com/seu-repo/sigeb/internal/service/payment"
	"github.com/seu-repo/sigeb/internal/service/reservation"
	"github.com/seu-repo/sigeb/internal/service/trip"
	"github.com/seu-repo/sigeb/pkg/config"
)

const (
	serviceName    = "sigeb"
	serviceVersion = "v1.0.0"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting SIGEB fleet coordinator",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.JaegerURL)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// Storage
	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Cross-process relay
	var relay queue.MessageQueue
	switch cfg.Relay.Driver {
	case "nats":
		relay, err = queue.NewNATSQueue(cfg.Relay.NATS.URL, logger)
	case "rabbitmq":
		relay, err = queue.NewRabbitMQQueue(cfg.Relay.RabbitMQ.URL, logger)
	case "":
		logger.Warn("Event relay disabled, events stay in-process")
	default:
		logger.Fatal("Unknown relay driver", zap.String("driver", cfg.Relay.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to connect to event relay", zap.Error(err))
	}
	if relay != nil {
		defer relay.Close()
	}

	// Event bus over the durable Redis log
	eventLog := busadapter.NewRedisEventLog(redisCache.Client(), logger)
	bus := eventbus.New(eventLog, relay, logger)

	// Repositories
	vehicleRepo := postgres.NewVehicleRepository(db, logger)
	reservationRepo := postgres.NewReservationRepository(db, logger)
	tripRepo := postgres.NewTripRepository(db, logger)
	stationRepo := postgres.NewStationRepository(db, logger)
	subscriptionRepo := postgres.NewSubscriptionRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)

	// Services
	reservationCfg := &domain.ReservationConfig{
		HoldWindow:    cfg.Reservation.HoldWindow,
		SweepInterval: cfg.Reservation.SweepInterval,
	}
	reservationService := reservation.NewService(
		reservationRepo, vehicleRepo, userRepo, bus, reservationCfg, logger)

	lockController := lock.NewSimulatedController(logger)
	tripCfg := &domain.TripConfig{UnlockTimeout: cfg.Trip.UnlockTimeout}
	calculator := fare.NewCalculator(&cfg.Fare)
	tripService := trip.NewService(
		tripRepo, vehicleRepo, stationRepo, subscriptionRepo,
		reservationService, lockController, calculator, bus, tripCfg, logger)

	fleetService := fleet.NewService(vehicleRepo, stationRepo, bus, logger)
	fleetService.SubscribeBooking()

	stripeProvider := payment.NewStripeProvider(
		cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret, logger)
	webhookConsumer := idempotency.NewConsumer(redisCache, 24*time.Hour, logger)
	paymentService := payment.NewService(
		stripeProvider, tripService, webhookConsumer, bus, cfg.Payment.Currency, logger)
	paymentService.SubscribeTrips()

	// Background sweep for expiry and scheduled activation
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := reservation.NewSweeper(reservationService, cfg.Reservation.SweepInterval, logger)
	go sweeper.Run(sweepCtx)

	// Websocket fan-out of fleet events
	wsHub := wsadapter.NewHub(logger)
	wsHub.SubscribeFleet(bus)
	go wsHub.Run()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.HTTP.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := sqlDB.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Database not ready")
		}
		if err := redisCache.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	authMiddleware := middleware.AuthRequired(cfg.JWT.Secret)

	reservation.NewHandler(reservationService).RegisterRoutes(app, authMiddleware)
	trip.NewHandler(tripService).RegisterRoutes(app, authMiddleware)
	fleet.NewHandler(fleetService).RegisterRoutes(app, authMiddleware)
	payment.NewHandler(paymentService).RegisterRoutes(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/flota", websocket.New(func(c *websocket.Conn) {
		wsHub.AddClient(c)
	}))

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/autospace/internal/adapter/cache"
	"github.com/seu-repo/autospace/internal/adapter/grpc/server"
	"github.com/seu-repo/autospace/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/autospace/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/autospace/internal/adapter/lock"
	"github.com/seu-repo/autospace/internal/adapter/queue"
	"github.com/seu-repo/autospace/internal/adapter/storage/memory"
	"github.com/seu-repo/autospace/internal/adapter/storage/postgres"
	"github.com/seu-repo/autospace/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/autospace/internal/adapter/websocket"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/observability/telemetry"
	"github.com/seu-repo/autospace/internal/ports"
	"github.com/seu-repo/autospace/internal/service/auth"
	"github.com/seu-repo/autospace/internal/service/billing"
	"github.com/seu-repo/autospace/internal/service/health"
	"github.com/seu-repo/autospace/internal/service/rates"
	"github.com/seu-repo/autospace/internal/service/session"
	"github.com/seu-repo/autospace/pkg/config"
)

const serviceName = "autospace"

// repositories groups the storage backend chosen at startup.
type repositories struct {
	vehicles      ports.VehicleRepository
	tariffs       ports.TariffRepository
	subscriptions ports.SubscriptionRepository
	sessions      ports.SessionRepository
	operators     ports.OperatorRepository
	demo          bool
	ping          health.Pinger
	close         func() error
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting AutoSpace",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Overlay secrets from Vault
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Path, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		vaultCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		err = config.ApplySecrets(vaultCtx, cfg, secrets)
		cancel()
		if err != nil {
			logger.Fatal("Failed to read secrets from Vault", zap.Error(err))
		}
		logger.Info("Secrets loaded from Vault", zap.String("path", cfg.Vault.Path))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.Endpoint, cfg.OpenTelemetry.SampleRatio)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize Storage
	repos, err := openStorage(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer repos.close()

	// 6. Initialize Redis (cache and distributed lock)
	var redisClient *redis.Client
	var tariffCache ports.Cache
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis.URL, cfg.Redis.DialTimeout, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		tariffCache = cache.NewRedisCache(redisClient, cfg.Redis.KeyPrefix, logger)
	} else {
		tariffCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer tariffCache.Close()

	locker := newLocker(cfg, redisClient, logger)

	// 7. Initialize Message Queue
	messageQueue, err := queue.New(cfg.Broker.Driver, cfg.Broker.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	defer messageQueue.Close()

	// 8. Initialize Services (Business Logic Layer)
	svc, err := buildServices(cfg, repos, tariffCache, locker, messageQueue, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	sessionService, authService := svc.sessions, svc.auth

	if repos.demo {
		if err := seedDemoData(rootCtx, repos, svc.rates, logger); err != nil {
			logger.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	if open, err := repos.sessions.ListOpen(rootCtx); err != nil {
		logger.Warn("Could not count open sessions", zap.Error(err))
	} else {
		telemetry.OpenSessions.Set(float64(len(open)))
	}

	// 9. Health checks
	healthService := health.NewService(cfg.App.Version, svc.breakers, logger)
	healthService.Register("storage", repos.ping, true)
	healthService.Register("cache", tariffCache, cfg.Redis.Enabled)
	healthService.Register("broker", messageQueue, false)

	// 10. Initialize WebSocket Hub (live session feed)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(hubCtx)
	if err := wsHub.Feed(messageQueue, domain.EventSessionOpened, domain.EventSessionClosed); err != nil {
		logger.Fatal("Failed to subscribe live feed", zap.Error(err))
	}

	// 11. Initialize Fiber HTTP Server
	app := newHTTPApp(cfg, logger, authService, sessionService, healthService, wsHub)

	// 12. Initialize gRPC Server (gates and internal callers)
	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer = server.NewGRPCServer(sessionService, authService, logger)
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}
		go func() {
			logger.Info("Starting gRPC Server", zap.Int("port", cfg.GRPC.Port))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC Server failed", zap.Error(err))
			}
		}()
		go grpcServer.WatchReadiness(rootCtx, 10*time.Second, func(ctx context.Context) bool {
			return healthService.Ready(ctx).Ready
		})
	}

	// 13. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 14. Graceful Shutdown
	<-rootCtx.Done()
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}
	stopHub()

	logger.Info("Server exited gracefully")
}

// services are the business components shared by the HTTP and gRPC surfaces.
type services struct {
	sessions *session.Service
	rates    *rates.Resolver
	auth     ports.AuthService
	breakers *circuitbreaker.Manager
}

func buildServices(
	cfg *config.Config,
	repos *repositories,
	tariffCache ports.Cache,
	locker ports.Locker,
	messageQueue queue.MessageQueue,
	logger *zap.Logger,
) (*services, error) {
	breakers := circuitbreaker.NewManager(circuitbreaker.Settings{
		MaxRequests:     uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:        cfg.CircuitBreaker.Interval,
		Timeout:         cfg.CircuitBreaker.Timeout,
		MaxRetries:      uint64(cfg.Retry.MaxRetries),
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}, logger)

	numbers, err := session.NewNumberGenerator(cfg.Sessions.NodeID, cfg.Sessions.NumberPrefix)
	if err != nil {
		return nil, fmt.Errorf("session number generator: %w", err)
	}

	resolver := rates.NewResolver(
		repos.tariffs,
		repos.subscriptions,
		tariffCache,
		cfg.Cache.TariffTTL,
		breakers.Get("rates"),
		logger,
	)
	billingService := billing.NewService(cfg.Billing.Currency, logger)
	sessionService := session.NewService(
		repos.vehicles,
		repos.sessions,
		resolver,
		billingService,
		locker,
		numbers,
		breakers.Get("sessions"),
		messageQueue,
		session.Config{OperationTimeout: cfg.Sessions.OperationTimeout},
		logger,
	)

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenDuration, tariffCache, logger)

	return &services{
		sessions: sessionService,
		rates:    resolver,
		auth:     auth.NewService(repos.operators, tokens, logger),
		breakers: breakers,
	}, nil
}

func newHTTPApp(
	cfg *config.Config,
	logger *zap.Logger,
	authService ports.AuthService,
	sessionService ports.SessionService,
	healthService *health.Service,
	wsHub *wsAdapter.Hub,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(middleware.BreakerSettings{
			MaxRequests:      uint32(cfg.CircuitBreaker.MaxRequests),
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		}, logger))
	}

	// Auth routes (public)
	authHandler := handlers.NewAuthHandler(authService, logger)
	v1.Post("/auth/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("", middleware.AuthRequired(authService))
	if cfg.RateLimiting.Enabled {
		protected.Use(middleware.RateLimit(cfg.RateLimiting.MaxRequests, cfg.RateLimiting.Window, cfg.RateLimiting.ByOperator))
	}
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	handlers.NewSessionHandler(sessionService, logger).RegisterRoutes(protected)

	// Live session feed
	app.Use("/ws", wsAdapter.Upgrade)
	app.Get("/ws/sessions", middleware.AuthRequired(authService), wsHub.Handler())

	return app
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories, error) {
	if strings.EqualFold(cfg.Storage.Driver, "memory") {
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			demo:          true,
			vehicles:      memory.NewVehicleRepository(store),
			tariffs:       memory.NewTariffRepository(store),
			subscriptions: memory.NewSubscriptionRepository(store),
			sessions:      memory.NewSessionRepository(store),
			operators:     memory.NewOperatorRepository(store),
			ping:          health.PingFunc(func(context.Context) error { return nil }),
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.NewConnection(cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db, logger); err != nil {
			_ = postgres.Close(db)
			return nil, err
		}
	}

	return &repositories{
		vehicles:      postgres.NewVehicleRepository(db, logger),
		tariffs:       postgres.NewTariffRepository(db, logger),
		subscriptions: postgres.NewSubscriptionRepository(db, logger),
		sessions:      postgres.NewSessionRepository(db, logger),
		operators:     postgres.NewOperatorRepository(db, logger),
		ping:          dbPinger{db: db},
		close:         func() error { return postgres.Close(db) },
	}, nil
}

func newLocker(cfg *config.Config, client *redis.Client, logger *zap.Logger) ports.Locker {
	if strings.EqualFold(cfg.Lock.Driver, "redis") {
		return lock.NewRedisLocker(client, cfg.Redis.KeyPrefix, cfg.Lock.TTL, cfg.Lock.RetryInterval, logger)
	}
	return lock.NewLocalLocker()
}

type dbPinger struct {
	db *gorm.DB
}

func (p dbPinger) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, p.db)
}


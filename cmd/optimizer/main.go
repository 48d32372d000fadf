package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/internal/config"
	"github.com/soukhtanlou/school-service-optimizer/internal/http/middleware"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/cache"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/handler"
	"github.com/soukhtanlou/school-service-optimizer/internal/optimize/ors"
	optimizeservice "github.com/soukhtanlou/school-service-optimizer/internal/optimize/service"
	"github.com/soukhtanlou/school-service-optimizer/pkg/events"
	"github.com/soukhtanlou/school-service-optimizer/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dotenvErr := config.LoadDotEnv()
	cfg, cfgErr := config.LoadOptimizer()

	logger := observability.SetupLogger("route-optimizer", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	if dotenvErr != nil {
		logger.Warn("could not load .env", zap.Error(dotenvErr))
	}
	if cfgErr != nil {
		logger.Fatal("invalid configuration", zap.Error(cfgErr))
	}

	shutdown, err := observability.SetupTracer(ctx, "route-optimizer")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		if conn, err := nats.Connect(cfg.NATSURL, nats.Name("route-optimizer")); err == nil {
			natsConn = conn
			defer conn.Drain()
		} else {
			logger.Warn("nats connection failed", zap.Error(err))
		}
	}

	router, err := ors.New(ors.Config{
		APIKey:  cfg.ORSAPIKey,
		BaseURL: cfg.ORSBaseURL,
		Profile: cfg.ORSProfile,
		Timeout: cfg.ORSTimeout,
	}, nil, logger.Named("ors"))
	if err != nil {
		logger.Fatal("ors client", zap.Error(err))
	}

	svc := optimizeservice.New(router, buildCache(redisClient, cfg), events.NewPublisher(natsConn, cfg.EventsSubject),
		domain.SystemClock{}, logger.Named("optimizer"))

	limiter := middleware.NewRateLimiter(redisClient,
		middleware.RateConfig{Rate: cfg.ReadRPS, Burst: cfg.ReadBurst},
		middleware.RateConfig{Rate: cfg.WriteRPS, Burst: cfg.WriteBurst},
		logger.Named("ratelimit"))
	optimizeHTTP := handler.NewHTTP(svc, logger.Named("http"), limiter.Middleware)

	r := chi.NewRouter()
	r.Use(observability.RequestLogger(logger))
	r.Mount("/", optimizeHTTP.Router())
	r.Mount("/observability", observability.MetricsRouter())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("route optimizer listening",
			zap.String("addr", srv.Addr),
			zap.Bool("cache", redisClient != nil),
			zap.Bool("events", natsConn != nil))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildCache(redisClient *redis.Client, cfg config.Optimizer) domain.PlanCache {
	if redisClient == nil {
		return nil
	}
	return cache.NewRedisPlanCache(redisClient, "", cfg.CacheTTL)
}

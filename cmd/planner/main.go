package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/soukhtanlou/school-service-optimizer/api"
	"github.com/soukhtanlou/school-service-optimizer/internal/config"
	"github.com/soukhtanlou/school-service-optimizer/internal/mapview"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/client"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/domain"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/handler"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/render"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/service"
	"github.com/soukhtanlou/school-service-optimizer/internal/route/waypoint"
	"github.com/soukhtanlou/school-service-optimizer/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dotenvErr := config.LoadDotEnv()
	cfg := config.LoadPlanner()

	logger := observability.SetupLogger("route-planner", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck
	if dotenvErr != nil {
		logger.Warn("could not load .env", zap.Error(dotenvErr))
	}

	shutdown, err := observability.SetupTracer(ctx, "route-planner")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	optimizer, err := client.New(client.Config{
		Endpoint: cfg.OptimizerURL,
		Timeout:  cfg.OptimizerTimeout,
	}, nil, logger.Named("optimizer-client"))
	if err != nil {
		logger.Fatal("optimizer client", zap.Error(err))
	}

	view := mapview.New(domain.GeoPoint{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng}, cfg.MapZoom)
	store := waypoint.NewStore(view, logger.Named("waypoints"))
	renderer := render.New(view, logger.Named("renderer"))
	svc := service.New(store, optimizer, renderer, logger.Named("orchestrator"))
	plannerHTTP := handler.NewHTTP(svc, view, logger.Named("http"))

	r := chi.NewRouter()
	r.Use(observability.RequestLogger(logger))
	r.Mount("/", plannerHTTP.Router())
	r.Mount("/observability", observability.MetricsRouter())
	r.Get("/docs/openapi.yaml", api.OpenAPIHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("route planner listening",
			zap.String("addr", srv.Addr),
			zap.String("optimizer", cfg.OptimizerURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

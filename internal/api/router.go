// Package api exposes the KPI runner over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chronics-kpi/internal/api/handlers"
	"chronics-kpi/internal/api/middleware"
	"chronics-kpi/internal/api/models"
	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/kpi"
	"chronics-kpi/internal/runner"
)

// Options configures the router.
type Options struct {
	Paths          config.PathsConfig
	Params         config.KPIParams
	ReportTTL      time.Duration
	AllowedOrigins []string
	Plotter        kpi.Plotter
	Logger         *zap.Logger
}

// Server bundles the router with the resources it owns.
type Server struct {
	Router  *gin.Engine
	Metrics *middleware.Metrics
	store   *data.Cache[*models.KPIResponse]
}

// Close stops the report cache sweeper.
func (s *Server) Close() { s.store.Stop() }

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Plotter == nil {
		opts.Plotter = kpi.NopPlotter{}
	}

	metrics := middleware.NewMetrics()
	store := data.NewCache[*models.KPIResponse](opts.ReportTTL)
	engine := runner.New(
		runner.WithLogger(logger),
		runner.WithPlotter(opts.Plotter),
		runner.WithObserver(metrics.ObserveScenario),
	)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware())

	kpiHandler := handlers.NewKPIHandler(opts.Paths, opts.Params, engine, store, logger)
	catalogHandler := handlers.NewCatalogHandler(opts.Paths.KPIInput)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/kpi", kpiHandler.RunKPI)
		api.GET("/kpi/:id", kpiHandler.GetKPI)

		api.GET("/benchmarks", handlers.ListBenchmarks)
		api.GET("/cases", catalogHandler.ListCases)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})

	return &Server{Router: router, Metrics: metrics, store: store}
}

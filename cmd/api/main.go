package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chronics-kpi/internal/api"
	"chronics-kpi/internal/config"
	"chronics-kpi/internal/render"
)

func main() {
	// Configuration comes from KPI_* environment variables.
	v := viper.New()
	v.SetEnvPrefix("KPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("report_ttl", time.Hour)
	v.SetDefault("allowed_origins", []string{"*"})

	logger, err := newLogger(v.GetString("env"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	paths, params, err := loadServerConfig(v)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("serving KPI cases",
		zap.String("kpi_input", paths.KPIInput),
		zap.String("chronics", paths.Chronics),
		zap.String("report", paths.Report))

	if v.GetString("env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(api.Options{
		Paths:          paths,
		Params:         params,
		ReportTTL:      v.GetDuration("report_ttl"),
		AllowedOrigins: v.GetStringSlice("allowed_origins"),
		Plotter:        render.New(),
		Logger:         logger,
	})
	defer server.Close()

	srv := &http.Server{
		Addr:              ":" + v.GetString("port"),
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting API server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// loadServerConfig reads folders and default thresholds from the YAML run
// config named by KPI_CONFIG. KPI_CHRONICS, KPI_KPI_INPUT,
// KPI_GENERATION_INPUT and KPI_REPORT override its paths. Case, year and
// scenarios come with each request.
func loadServerConfig(v *viper.Viper) (config.PathsConfig, config.KPIParams, error) {
	var paths config.PathsConfig
	params := config.DefaultKPIParams()

	if path := v.GetString("config"); path != "" {
		cfg, err := config.LoadUnchecked(path)
		if err != nil {
			return paths, params, err
		}
		paths = cfg.Paths
		params = config.MergeKPIParams(params, cfg.KPI)
	}
	for _, o := range []struct {
		key string
		dst *string
	}{
		{"chronics", &paths.Chronics},
		{"kpi_input", &paths.KPIInput},
		{"generation_input", &paths.GenerationInput},
		{"report", &paths.Report},
	} {
		if s := v.GetString(o.key); s != "" {
			*o.dst = s
		}
	}

	for _, f := range []struct{ name, v string }{
		{"paths.chronics", paths.Chronics},
		{"paths.kpi_input", paths.KPIInput},
		{"paths.generation_input", paths.GenerationInput},
		{"paths.report", paths.Report},
	} {
		if f.v == "" {
			return paths, params, &config.Error{Field: f.name, Reason: "is required"}
		}
	}
	if err := params.Validate(); err != nil {
		return paths, params, err
	}
	return paths, params, nil
}

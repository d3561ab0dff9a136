package handlers

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chronics-kpi/internal/api/models"
	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/report"
	"chronics-kpi/internal/runner"
)

// KPIHandler handles KPI run requests. Every run writes under its own
// <report>/<id> folder.
type KPIHandler struct {
	paths  config.PathsConfig
	params config.KPIParams
	engine *runner.Engine
	store  *data.Cache[*models.KPIResponse]
	logger *zap.Logger
}

// NewKPIHandler creates a new KPI handler. params are the server defaults
// that requests may override.
func NewKPIHandler(paths config.PathsConfig, params config.KPIParams, engine *runner.Engine, store *data.Cache[*models.KPIResponse], logger *zap.Logger) *KPIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPIHandler{paths: paths, params: params, engine: engine, store: store, logger: logger}
}

// RunKPI handles POST /api/v1/kpi
func (h *KPIHandler) RunKPI(c *gin.Context) {
	var req models.KPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	id := uuid.NewString()
	cfg := h.buildConfig(id, req)
	log := h.logger.With(zap.String("run_id", id), zap.String("case", req.Case), zap.Int("year", req.Year))
	log.Info("kpi run started", zap.Strings("scenarios", req.Scenarios))

	result, err := h.engine.Run(c.Request.Context(), cfg)
	if err != nil {
		status, detail := classify(err)
		log.Warn("kpi run failed", zap.Int("status", status), zap.Error(err))
		c.JSON(status, models.ErrorResponse{Error: detail})
		return
	}

	resp := buildResponse(id, result, req.Options.IncludeSummary)
	h.store.Set(id, resp)
	c.JSON(http.StatusOK, resp)
}

// GetKPI handles GET /api/v1/kpi/:id
func (h *KPIHandler) GetKPI(c *gin.Context) {
	id := c.Param("id")
	resp, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "KPI run not found or expired",
				Details: map[string]interface{}{"id": id},
			},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *KPIHandler) buildConfig(id string, req models.KPIRequest) *config.Config {
	paths := h.paths
	paths.Report = filepath.Join(h.paths.Report, id)
	paths.Images = ""
	if req.Options.Images {
		paths.Images = filepath.Join(paths.Report, "images")
	}
	override := config.KPIParams{
		Hydro: config.HydroConfig(req.KPI.Hydro),
		Solar: config.SolarConfig(req.KPI.Solar),
	}
	return &config.Config{
		Case:          req.Case,
		Year:          req.Year,
		Scenarios:     req.Scenarios,
		WindSolarOnly: req.WindSolarOnly,
		Paths:         paths,
		KPI:           config.MergeKPIParams(h.params, override),
	}
}

// classify maps run errors to HTTP status codes.
func classify(err error) (int, models.ErrorDetail) {
	var cfgErr *config.Error
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, models.ErrorDetail{
			Code:    "INVALID_CONFIG",
			Message: err.Error(),
			Details: map[string]interface{}{
				"field":  cfgErr.Field,
				"value":  cfgErr.Value,
				"reason": cfgErr.Reason,
			},
		}
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, models.ErrorDetail{Code: "DATA_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, models.ErrorDetail{Code: "RUN_CANCELLED", Message: err.Error()}
	default:
		return http.StatusInternalServerError, models.ErrorDetail{Code: "KPI_ERROR", Message: err.Error()}
	}
}

func buildResponse(id string, result *runner.Result, includeSummary bool) *models.KPIResponse {
	resp := &models.KPIResponse{
		ID:        id,
		Status:    "completed",
		Case:      result.Case,
		Year:      result.Year,
		CreatedAt: time.Now().UTC(),
		Scenarios: make([]models.ScenarioReport, 0, len(result.Scenarios)),
	}
	for _, sr := range result.Scenarios {
		rep := models.ScenarioReport{
			Scenario:  sr.Scenario,
			Benchmark: sr.Benchmark,
			Rows:      sr.Rows,
			KPIs:      sr.Results,
		}
		if includeSummary {
			rep.Summary = summaries(sr.Summary)
		}
		resp.Scenarios = append(resp.Scenarios, rep)
	}
	return resp
}

func summaries(rows []report.SummaryRow) []models.UnitSummary {
	out := make([]models.UnitSummary, len(rows))
	for i, r := range rows {
		out[i] = models.UnitSummary{
			Curve:  r.Curve,
			Unit:   r.Name,
			Count:  r.Count,
			Min:    finite(r.Min),
			Max:    finite(r.Max),
			Mean:   finite(r.Mean),
			Spread: finite(r.Spread),
		}
	}
	return out
}

// finite returns nil for values JSON cannot carry.
func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

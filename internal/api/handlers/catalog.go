package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"chronics-kpi/internal/api/models"
	"chronics-kpi/internal/data"
)

// ListBenchmarks handles GET /api/v1/benchmarks
func ListBenchmarks(c *gin.Context) {
	benchmarks := make([]models.BenchmarkInfo, len(data.Benchmarks))
	copy(benchmarks, data.Benchmarks)
	c.JSON(http.StatusOK, gin.H{"benchmarks": benchmarks})
}

// CatalogHandler lists the KPI cases available to the server.
type CatalogHandler struct {
	inputDir string
}

func NewCatalogHandler(inputDir string) *CatalogHandler {
	return &CatalogHandler{inputDir: inputDir}
}

// ListCases handles GET /api/v1/cases
func (h *CatalogHandler) ListCases(c *gin.Context) {
	cases, err := data.ListCases(h.inputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "CASES_LOAD_ERROR",
				Message: fmt.Sprintf("Failed to list cases: %v", err),
			},
		})
		return
	}
	if cases == nil {
		cases = []models.CaseInfo{}
	}

	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"count": len(cases),
	})
}

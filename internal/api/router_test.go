package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronics-kpi/internal/api/models"
	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// fixture lays out one Texas wind/solar case with scenario 0 over 12 hours.
func fixture(t *testing.T) config.PathsConfig {
	t.Helper()
	root := t.TempDir()

	gen := filepath.Join(root, "generation", "texas")
	writeFile(t, filepath.Join(gen, data.ProdsCharacFile), "name,type,zone,Pmax\nwind_1,wind,R1,100\nsolar_1,solar,R1,50\n")
	writeFile(t, filepath.Join(gen, data.LoadsCharacFile), "name,zone,Pmax\nload_1,R1,10\n")

	caseDir := filepath.Join(root, "kpi", "texas")
	writeFile(t, filepath.Join(caseDir, data.KPIParamsFile), `{"comparison": "Texas", "timestep": 60}`)
	var wind, solar, load strings.Builder
	wind.WriteString("time,wind_1\n")
	solar.WriteString("time,solar_1\n")
	load.WriteString("time,R1\n")
	for h := 0; h < 12; h++ {
		ts := time.Date(2007, 6, 1, h, 0, 0, 0, time.UTC).Format("2006-01-02 15:04")
		wind.WriteString(ts + "," + strconv.Itoa(20+h) + "\n")
		solar.WriteString(ts + "," + strconv.Itoa(h%4) + "\n")
		load.WriteString(ts + ",100\n")
	}
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "wind.csv"), wind.String())
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "solar.csv"), solar.String())
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "load.csv"), load.String())

	sc := filepath.Join(root, "chronics", "2007", "Scenario_0")
	var prod, ld strings.Builder
	prod.WriteString("wind_1;solar_1\n")
	ld.WriteString("load_1\n")
	for h := 0; h < 12; h++ {
		prod.WriteString(strconv.Itoa(h%5) + ";" + strconv.Itoa(h%3) + "\n")
		ld.WriteString(strconv.Itoa(80+h) + "\n")
	}
	writeFile(t, filepath.Join(sc, data.ProdFile), prod.String())
	writeFile(t, filepath.Join(sc, data.LoadFile), ld.String())
	writeFile(t, filepath.Join(sc, "start_datetime.info"), "2007-06-01 00:00")
	writeFile(t, filepath.Join(sc, "time_interval.info"), "01:00")

	return config.PathsConfig{
		Chronics:        filepath.Join(root, "chronics"),
		KPIInput:        filepath.Join(root, "kpi"),
		GenerationInput: filepath.Join(root, "generation"),
		Report:          filepath.Join(root, "out"),
	}
}

func newTestServer(t *testing.T) (*Server, config.PathsConfig) {
	t.Helper()
	paths := fixture(t)
	s := NewServer(Options{Paths: paths, Params: config.DefaultKPIParams()})
	t.Cleanup(s.Close)
	return s, paths
}

func do(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRunAndFetchKPI(t *testing.T) {
	s, paths := newTestServer(t)

	w := do(s, http.MethodPost, "/api/v1/kpi", models.KPIRequest{
		Case: "texas", Year: 2007, Scenarios: []string{"0"}, WindSolarOnly: true,
		Options: models.KPIOptions{IncludeSummary: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Scenarios []struct {
			Scenario  string                            `json:"scenario"`
			Benchmark string                            `json:"benchmark"`
			Rows      int                               `json:"rows"`
			KPIs      map[string]map[string]interface{} `json:"kpis"`
			Summary   []models.UnitSummary              `json:"summary"`
		} `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Scenarios, 1)
	assert.Equal(t, data.NRELFolder, resp.Scenarios[0].Benchmark)
	assert.Equal(t, 12, resp.Scenarios[0].Rows)
	assert.Contains(t, resp.Scenarios[0].KPIs, "wind_kpi")
	assert.Len(t, resp.Scenarios[0].Summary, 4)

	assert.FileExists(t, filepath.Join(paths.Report, resp.ID, "2007", "Scenario_0", "kpis.json"))

	got := do(s, http.MethodGet, "/api/v1/kpi/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.JSONEq(t, w.Body.String(), got.Body.String())
}

func TestRunKPIErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing fields", map[string]any{"case": "texas"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"full mix on texas", models.KPIRequest{Case: "texas", Year: 2007, Scenarios: []string{"0"}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad threshold", models.KPIRequest{
			Case: "texas", Year: 2007, Scenarios: []string{"0"}, WindSolarOnly: true,
			KPI: models.KPIParams{Solar: models.SolarParams{CloudQuantile: 2}},
		}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown case", models.KPIRequest{Case: "nowhere", Year: 2007, Scenarios: []string{"0"}, WindSolarOnly: true}, http.StatusNotFound, "DATA_NOT_FOUND"},
		{"unknown scenario", models.KPIRequest{Case: "texas", Year: 2007, Scenarios: []string{"7"}, WindSolarOnly: true}, http.StatusNotFound, "DATA_NOT_FOUND"},
		{"scenario escaping the data folders", models.KPIRequest{Case: "texas", Year: 2007, Scenarios: []string{"0/../../../../escaped"}, WindSolarOnly: true}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"case escaping the data folders", models.KPIRequest{Case: "../texas", Year: 2007, Scenarios: []string{"0"}, WindSolarOnly: true}, http.StatusBadRequest, "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/api/v1/kpi", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			var er models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
			assert.Equal(t, tt.code, er.Error.Code)
		})
	}
}

func TestGetUnknownKPI(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/api/v1/kpi/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/v1/benchmarks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var b struct {
		Benchmarks []models.BenchmarkInfo `json:"benchmarks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Len(t, b.Benchmarks, len(data.Benchmarks))

	w = do(s, http.MethodGet, "/api/v1/cases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cs struct {
		Cases []models.CaseInfo `json:"cases"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cs))
	require.Equal(t, 1, cs.Count)
	assert.Equal(t, "texas", cs.Cases[0].Name)
	assert.Equal(t, []string{data.NRELFolder}, cs.Cases[0].Benchmarks)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/kpi", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsExposeScenarioOutcomes(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, http.MethodPost, "/api/v1/kpi", models.KPIRequest{Case: "texas", Year: 2007, Scenarios: []string{"0"}, WindSolarOnly: true})

	w := do(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `kpi_scenarios_total{outcome="ok"} 1`)
	assert.Contains(t, body, `kpi_api_requests_total{method="POST",route="/api/v1/kpi",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

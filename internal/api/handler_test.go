package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indecstat/internal/calculator"
	"indecstat/internal/fetcher"
	"indecstat/internal/importer"
	"indecstat/internal/model"
	"indecstat/internal/store"
)

type offlineDownloader struct{}

func (offlineDownloader) Download(_ context.Context, source string, candidates []string) (*fetcher.Document, error) {
	return nil, &fetcher.SourceUnavailableError{Source: source}
}

func (offlineDownloader) Discover(context.Context, string, *regexp.Regexp) ([]string, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(store.DriverSQLite, filepath.Join(t.TempDir(), "indec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	indicators := []importer.Indicator{
		importer.NewEMAE(importer.DefaultEMAEDictionary(), nil, calculator.DefaultOptions()),
		importer.NewIPC(importer.DefaultIPCDictionary(), nil),
	}
	h := NewHandler(st, importer.NewCoordinator(offlineDownloader{}, st, nil), indicators, nil)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return router, st
}

func do(t *testing.T, router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, store.DriverSQLite, resp.Database)
	assert.True(t, resp.Healthy)
	assert.Equal(t, []string{importer.EMAEName, importer.IPCName}, resp.Indicators)
	assert.Empty(t, resp.LastRuns)
}

func TestListIndicators(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/indicators")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sh_emae_mensual_base2004.xls")
}

func TestIngest_UnknownIndicator(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/ingest/pbi")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngest_StreamsProgressAndLogsRun(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/ingest/emae")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var last importer.ProgressEvent
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &last))
	}
	assert.Equal(t, "done", last.Type)
	assert.Equal(t, importer.EMAEName, last.Indicator)

	w = do(t, router, http.MethodGet, "/api/runs?indicator=emae")
	require.Equal(t, http.StatusOK, w.Code)
	var runs struct {
		Runs []model.ImportLog `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, string(model.RunError), runs.Runs[0].Status)
}

func TestListIPC_ChangesPerSeries(t *testing.T) {
	t.Parallel()

	router, st := newTestRouter(t)
	batch, err := importer.NewIPC(importer.DefaultIPCDictionary(), nil).Batch([]model.CanonicalRecord{
		{Date: "2024-01-01", PeriodLabel: "2024-01", EntityCode: "NIVEL_GENERAL", EntityName: "Nivel general",
			CategoryType: model.CategoryGeneral, Region: "Nacional", Values: model.Metrics{"index_value": model.Float(100)}},
		{Date: "2024-02-01", PeriodLabel: "2024-02", EntityCode: "NIVEL_GENERAL", EntityName: "Nivel general",
			CategoryType: model.CategoryGeneral, Region: "Nacional", Values: model.Metrics{"index_value": model.Float(113.2)}},
		{Date: "2024-02-01", PeriodLabel: "2024-02", EntityCode: "NIVEL_GENERAL", EntityName: "Nivel general",
			CategoryType: model.CategoryGeneral, Region: "GBA", Values: model.Metrics{"index_value": model.Float(112)}},
	})
	require.NoError(t, err)
	_, err = st.Upsert(context.Background(), batch)
	require.NoError(t, err)

	w := do(t, router, http.MethodGet, "/api/series/ipc?region=Nacional")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data    []model.IPCRow  `json:"data"`
		Changes []SeriesChanges `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Len(t, resp.Changes, 1)
	points := resp.Changes[0].Points
	require.Len(t, points, 2)
	assert.Nil(t, points[0].MoM)
	require.NotNil(t, points[1].MoM)
	assert.Equal(t, 13.2, *points[1].MoM)
}

func TestListEMAE_Empty(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/series/emae")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"changes":[]}`, w.Body.String())
}

func TestListRuns_InvalidLimit(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

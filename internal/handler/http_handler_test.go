package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/search-service/internal/cache"
	"github.com/jobradar/search-service/internal/domain"
	"github.com/jobradar/search-service/internal/query"
	"github.com/jobradar/search-service/internal/scheduler"
	"github.com/jobradar/search-service/internal/service"
)

type stubDispatcher struct {
	entries map[string]cache.Entry

	lastKey   string
	lastForce bool
}

func (d *stubDispatcher) RequestSearch(key, title string, req domain.SearchRequest, force bool) cache.Entry {
	d.lastKey = key
	d.lastForce = force
	if e, ok := d.entries[key]; ok {
		return e
	}
	return cache.Entry{State: cache.StateRunning, Title: title}
}

func (d *stubDispatcher) PollStatus(key string) (cache.Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

func (d *stubDispatcher) CacheStats() cache.Stats {
	return cache.Stats{Keys: len(d.entries)}
}

type stubJobService struct {
	job domain.Job
	err error
}

func (s *stubJobService) SearchJobs(ctx context.Context, req domain.SearchRequest) ([]domain.Job, int, error) {
	return nil, 0, nil
}

func (s *stubJobService) JobDetails(ctx context.Context, jobID, country string) (domain.Job, error) {
	return s.job, s.err
}

type stubSalaryService struct {
	estimates []domain.SalaryEstimate
	err       error
}

func (s *stubSalaryService) EstimatedSalary(ctx context.Context, jobTitle, location, experience string) ([]domain.SalaryEstimate, error) {
	return s.estimates, s.err
}

func (s *stubSalaryService) CompareLocations(ctx context.Context, jobTitle string, locations []string, experience string) map[string]query.LocationStats {
	out := make(map[string]query.LocationStats, len(locations))
	for _, loc := range locations {
		out[loc] = query.LocationStats{Count: 1, AverageMedian: 100}
	}
	return out
}

type stubExporter struct {
	fail bool
}

func (e *stubExporter) JobsCSV(ctx context.Context, jobs []domain.Job, baseName string) (string, error) {
	if e.fail {
		return "", errors.New("disk full")
	}
	return "exports/" + baseName + ".csv", nil
}

func (e *stubExporter) JobsJSON(ctx context.Context, jobs []domain.Job, baseName string) (string, error) {
	return "exports/" + baseName + ".json", nil
}

func (e *stubExporter) URL(ctx context.Context, key string) (string, error) {
	return "/" + key, nil
}

type stubScheduler struct {
	status scheduler.Status
}

func (s *stubScheduler) Status() scheduler.Status {
	return s.status
}

func newTestRouter(d *stubDispatcher, jobs service.JobService, salary service.SalaryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(d, jobs, salary, &stubExporter{}, nil, nil, nil)
	h.RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestSearchDispatchesPredefined(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/search/2", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", d.lastKey)
	assert.False(t, d.lastForce)
	assert.Equal(t, "running", decode(t, w)["status"])
}

func TestSearchUnknownID(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/search/99", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, d.lastKey, "unknown ids must not reach the dispatcher")
}

func TestSearchForceFlag(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	do(r, http.MethodGet, "/api/v1/search/2?force=true", "")

	assert.True(t, d.lastForce)
}

func TestSearchStatusShapes(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{
		"running": {State: cache.StateRunning},
		"done": {
			State:       cache.StateSucceeded,
			Title:       "Software Engineer",
			ResultCount: 1,
			Jobs:        []domain.Job{{ID: "j1", Title: "Engineer"}},
		},
		"failed": {State: cache.StateFailed, Err: "upstream timeout"},
	}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/search/running/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "running"}, decode(t, w))

	w = do(r, http.MethodGet, "/api/v1/search/done/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "done", body["status"])
	assert.Equal(t, "Software Engineer", body["title"])
	assert.Equal(t, float64(1), body["total"])
	jobs, ok := body["jobs"].([]any)
	require.True(t, ok)
	require.Len(t, jobs, 1)

	w = do(r, http.MethodGet, "/api/v1/search/failed/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "failed", "error": "upstream timeout"}, decode(t, w))

	w = do(r, http.MethodGet, "/api/v1/search/missing/status", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"status": "not_found"}, decode(t, w))
}

func TestCustomSearch(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodPost, "/api/v1/search", `{"query":"Golang Developer","num_pages":3}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "running", body["status"])
	key, _ := body["key"].(string)
	assert.Equal(t, "custom:golang developer:in:week:false::3", key)
	assert.Equal(t, key, d.lastKey)
}

func TestCustomSearchValidation(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodPost, "/api/v1/search", `{"country":"in"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/search", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportSearch(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{
		"done":    {State: cache.StateSucceeded, ResultCount: 2, Jobs: []domain.Job{{ID: "a"}, {ID: "b"}}},
		"running": {State: cache.StateRunning},
	}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodPost, "/api/v1/search/done/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "exports/done.csv", data["file"])

	// only terminal successes can be exported
	w = do(r, http.MethodPost, "/api/v1/search/running/export", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/search/missing/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/v1/search/done/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobDetails(t *testing.T) {
	jobs := &stubJobService{job: domain.Job{ID: "j1", Title: "Engineer"}}
	r := newTestRouter(&stubDispatcher{entries: map[string]cache.Entry{}}, jobs, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/jobs/j1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "Engineer", data["title"])

	jobs.err = service.ErrNoResults
	w = do(r, http.MethodGet, "/api/v1/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	jobs.err = errors.New("boom")
	w = do(r, http.MethodGet, "/api/v1/jobs/j1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSalaryCompare(t *testing.T) {
	r := newTestRouter(&stubDispatcher{entries: map[string]cache.Entry{}}, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/salary/engineer/compare?locations=bangalore,%20pune,", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	comparison, _ := data["comparison"].(map[string]any)
	assert.Len(t, comparison, 2, "blank locations are dropped")

	w = do(r, http.MethodGet, "/api/v1/salary/engineer/compare", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSearches(t *testing.T) {
	r := newTestRouter(&stubDispatcher{entries: map[string]cache.Entry{}}, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/searches", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data, _ := body["data"].([]any)
	assert.Len(t, data, 9)
}

func TestHistoryWithoutStore(t *testing.T) {
	r := newTestRouter(&stubDispatcher{entries: map[string]cache.Entry{}}, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
}

func TestStats(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{"k": {State: cache.StateRunning}}}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(d, &stubJobService{}, &stubSalaryService{}, &stubExporter{}, nil, nil,
		&stubScheduler{status: scheduler.Status{Enabled: true, Spec: "@every 6h"}})
	h.RegisterRoutes(r)

	w := do(r, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	cacheStats, _ := data["cache"].(map[string]any)
	assert.Equal(t, float64(1), cacheStats["keys"])

	sched, _ := data["scheduler"].(map[string]any)
	require.NotNil(t, sched)
	assert.Equal(t, true, sched["enabled"])
	assert.Equal(t, "@every 6h", sched["spec"])
}

func TestStatsSchedulerDisabled(t *testing.T) {
	d := &stubDispatcher{entries: map[string]cache.Entry{}}
	r := newTestRouter(d, &stubJobService{}, &stubSalaryService{})

	w := do(r, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	data, _ := decode(t, w)["data"].(map[string]any)
	require.NotNil(t, data)
	sched, _ := data["scheduler"].(map[string]any)
	require.NotNil(t, sched)
	assert.Equal(t, false, sched["enabled"])
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/purchase-insights/internal/jobs"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

type runCall struct {
	companyCode string
	view        purchase.View
}

type stubRunner struct {
	mu      sync.Mutex
	calls   []runCall
	masters []string
	failOn  string
}

func (s *stubRunner) Run(_ context.Context, _ *purchase.Board, sel purchase.Selection, view purchase.View) (purchase.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel.CompanyCode() == s.failOn {
		return purchase.Outcome{}, errors.New("gateway down")
	}
	s.calls = append(s.calls, runCall{companyCode: sel.CompanyCode(), view: view})
	return purchase.Outcome{}, nil
}

func (s *stubRunner) LoadMasterData(_ context.Context, sel purchase.Selection) (purchase.MasterData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masters = append(s.masters, sel.CompanyCode())
	return purchase.MasterData{}, nil
}

func newWarmupJob(runner ReportRunner, codes ...string) *ReportWarmupJob {
	job := NewReportWarmupJob(runner, codes, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC) }
	return job
}

func TestFiscalCalendar(t *testing.T) {
	cases := []struct {
		date    time.Time
		year    int
		quarter string
	}{
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), 2026, "Q1"},
		{time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), 2026, "Q1"},
		{time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), 2026, "Q3"},
		{time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC), 2026, "Q4"},
		{time.Date(2027, time.March, 31, 0, 0, 0, 0, time.UTC), 2026, "Q4"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.year, FiscalYearOf(tc.date), tc.date.String())
		require.Equal(t, tc.quarter, FiscalQuarterOf(tc.date), tc.date.String())
	}
}

func TestWarmupSelectionSatisfiesEveryView(t *testing.T) {
	sel, err := WarmupSelection("1000", time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "1000", sel.CompanyCode())
	require.Equal(t, []string{"2025", "2026"}, sel.FiscalYears)
	require.Equal(t, []string{"Q3"}, sel.Quarters)
	require.Equal(t, []string{"2026"}, sel.QuarterYears)
	require.Equal(t, "20261019", sel.DueDate)

	for _, view := range WarmupViews() {
		require.False(t, view.Active().IsSingleSupplier(), view.Active().String())
		res := purchase.ValidateView(view, sel)
		require.True(t, res.Valid, "%s %s: %v", view.Mode, view.Active(), res.MissingFields)
	}
}

func TestReportWarmupRunsEveryViewPerCompanyCode(t *testing.T) {
	runner := &stubRunner{}
	job := newWarmupJob(runner, "1000", "2000")
	task, err := NewReportWarmupTask()
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, runner.calls, 2*len(WarmupViews()))
	require.ElementsMatch(t, []string{"1000", "2000"}, runner.masters)
}

func TestReportWarmupPayloadOverridesConfiguredCodes(t *testing.T) {
	runner := &stubRunner{}
	job := newWarmupJob(runner, "1000")
	task, err := NewReportWarmupTask(" 3000 ", "")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	for _, call := range runner.calls {
		require.Equal(t, "3000", call.companyCode)
	}
}

func TestReportWarmupReportsFailures(t *testing.T) {
	runner := &stubRunner{failOn: "2000"}
	job := newWarmupJob(runner, "1000", "2000")
	task, err := NewReportWarmupTask()
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.Contains(t, err.Error(), "company code 2000")
}

func TestReportWarmupRecordsOutcomeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := newWarmupJob(&stubRunner{failOn: "2000"}, "1000", "2000")
	job.Metrics = jobmetrics.NewMetrics(reg)
	task, err := NewReportWarmupTask()
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP purchase_jobs_failures_total Total failures observed for background jobs.
# TYPE purchase_jobs_failures_total counter
purchase_jobs_failures_total{job="purchase:report:warmup"} 1
`), "purchase_jobs_failures_total"))

	task, err = NewReportWarmupTask("1000")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP purchase_jobs_total Total job executions partitioned by job name and status.
# TYPE purchase_jobs_total counter
purchase_jobs_total{job="purchase:report:warmup",status="failure"} 1
purchase_jobs_total{job="purchase:report:warmup",status="success"} 1
`), "purchase_jobs_total"))
}

func TestReportWarmupWithoutCodesIsNoop(t *testing.T) {
	runner := &stubRunner{}
	job := newWarmupJob(runner)
	task, err := NewReportWarmupTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, runner.calls)
}

func TestReportWarmupRejectsBadPayload(t *testing.T) {
	job := newWarmupJob(&stubRunner{}, "1000")
	err := job.Handle(context.Background(), asynq.NewTask(TaskReportWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestCacheBumpJobAdvancesVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := purchase.NewCache(client, time.Minute)

	before, err := cache.Version(context.Background())
	require.NoError(t, err)

	job := NewCacheBumpJob(cache, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewCacheBumpTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	after, err := cache.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, before+1, after)

	var payload CacheBumpPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "manual", payload.Reason)
}

type failingBumper struct{}

func (failingBumper) Bump(context.Context) (int64, error) { return 0, errors.New("redis down") }

func TestCacheBumpJobPropagatesErrors(t *testing.T) {
	job := NewCacheBumpJob(failingBumper{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewCacheBumpTask("load finished")
	require.NoError(t, err)
	require.EqualError(t, job.Handle(context.Background(), task), "redis down")
}

type stubEnqueuer struct {
	codes  []string
	reason string
}

func (s *stubEnqueuer) EnqueueReportWarmup(_ context.Context, codes ...string) (*asynq.TaskInfo, error) {
	s.codes = codes
	return &asynq.TaskInfo{ID: "warm-1"}, nil
}

func (s *stubEnqueuer) EnqueueCacheBump(_ context.Context, reason string) (*asynq.TaskInfo, error) {
	s.reason = reason
	return &asynq.TaskInfo{ID: "bump-1"}, nil
}

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Active: 1}, nil
}

func TestHandlerEndpoints(t *testing.T) {
	enq := &stubEnqueuer{}
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{}, enq, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":3,"active":1,"retry":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(`{"companyCodes":["1000"]}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"id":"warm-1","type":"purchase:report:warmup"}`, rec.Body.String())
	require.Equal(t, []string{"1000"}, enq.codes)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/cache/bump", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, enq.reason)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(`{`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerWithoutQueue(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/cache/bump", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

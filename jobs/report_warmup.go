package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/odyssey-erp/purchase-insights/internal/jobs"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportRunner is the part of the report service the warmup drives.
type ReportRunner interface {
	Run(ctx context.Context, board *purchase.Board, sel purchase.Selection, view purchase.View) (purchase.Outcome, error)
	LoadMasterData(ctx context.Context, sel purchase.Selection) (purchase.MasterData, error)
}

// ReportWarmupJob runs the supplier-independent reports of the current fiscal
// period for each company code so the first dashboard visit hits the cache.
type ReportWarmupJob struct {
	Service      ReportRunner
	CompanyCodes []string
	Concurrency  int
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
	clock        func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(service ReportRunner, companyCodes []string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Service:      service,
		CompanyCodes: companyCodes,
		Concurrency:  4,
		Logger:       logger,
		Metrics:      metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	codes := payload.CompanyCodes
	if len(codes) == 0 {
		codes = j.CompanyCodes
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	if len(codes) == 0 {
		logger.Info("no company codes configured for warmup")
		return nil
	}

	now := j.now()
	logger.Info("starting report warmup", slog.Int("company_codes", len(codes)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(j.Concurrency, 1))
	for _, code := range codes {
		code := strings.TrimSpace(code)
		if code == "" {
			continue
		}
		g.Go(func() error {
			warmed, err := j.warmCompanyCode(gctx, code, now)
			j.metrics().AddWarmed(code, warmed)
			if err != nil {
				logger.Error("warm company code", slog.String("company_code", code), slog.Any("error", err))
				return fmt.Errorf("company code %s: %w", code, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("completed report warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *ReportWarmupJob) warmCompanyCode(ctx context.Context, code string, now time.Time) (int, error) {
	sel, err := WarmupSelection(code, now)
	if err != nil {
		return 0, err
	}
	if _, err := j.Service.LoadMasterData(ctx, sel); err != nil {
		return 0, err
	}
	board := purchase.NewBoard()
	warmed := 0
	for _, view := range WarmupViews() {
		if _, err := j.Service.Run(ctx, board, sel, view); err != nil {
			return warmed, fmt.Errorf("%s: %w", view.Active(), err)
		}
		warmed++
	}
	return warmed, nil
}

// WarmupSelection selects the company code with the current and previous
// fiscal year, the current quarter and today as due date.
func WarmupSelection(companyCode string, now time.Time) (purchase.Selection, error) {
	fy := FiscalYearOf(now)
	sel := purchase.NewSelection(purchase.CompanyCodeSingle).
		SelectCompanyCode(companyCode, companyCode).
		WithFiscalYears(strconv.Itoa(fy-1), strconv.Itoa(fy)).
		WithQuarters(FiscalQuarterOf(now)).
		WithQuarterYears(strconv.Itoa(fy))
	return sel.WithDueDate(now.Format(purchase.DueDateLayout))
}

// WarmupViews lists every report that does not depend on a supplier choice.
func WarmupViews() []purchase.View {
	base := purchase.DefaultView()
	var views []purchase.View
	for _, mode := range []purchase.ReportMode{purchase.ModeFiscalYearTurnover, purchase.ModeQuarterlyTurnover} {
		for _, tab := range []string{"scenario1", "scenario2", "scenario4"} {
			views = append(views, base.WithMode(mode).WithTab(purchase.TabsTurnover, tab))
		}
	}
	for _, tab := range []string{"scenario1", "scenario2", "scenario4"} {
		views = append(views, base.WithMode(purchase.ModeSupplierDueAsOfDate).WithTab(purchase.TabsSupplierDue, tab))
	}
	views = append(views, base.WithMode(purchase.ModeSupplierDueQuarterFY).WithTab(purchase.TabsSupplierDueQuarterFY, "scenario2"))
	return views
}

// FiscalYearOf returns the fiscal year starting in April that contains t,
// named by its starting calendar year.
func FiscalYearOf(t time.Time) int {
	if t.Month() < time.April {
		return t.Year() - 1
	}
	return t.Year()
}

// FiscalQuarterOf returns Q1 for April to June through Q4 for January to March.
func FiscalQuarterOf(t time.Time) string {
	offset := (int(t.Month()) + 8) % 12
	return "Q" + strconv.Itoa(offset/3+1)
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

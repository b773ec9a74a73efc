package purchase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultQueryTimeout bounds a single report query.
const DefaultQueryTimeout = 15 * time.Second

const (
	singleDueMessage    = "Please select both Supplier and Due Date."
	queryTimeoutMessage = "The report query timed out."
	emptyResultNotice   = "There are no data available!"
	outcomeHit          = "hit"
	outcomeMiss         = "miss"
	outcomeError        = "error"
)

// Notice is an informational message attached to a successful run.
type Notice string

// NoticeEmptyResult is attached when a report returns no rows.
const NoticeEmptyResult Notice = emptyResultNotice

// Key addresses a single outstanding entity for direct lookup.
type Key struct {
	SupplierID  string `json:"supplierId"`
	Date        string `json:"date"`
	CompanyCode string `json:"companyCode"`
}

// Query is a filtered read of a report resource.
type Query struct {
	Resource  Resource
	Filters   Filters
	PageLimit int
}

// QueryService is the remote reporting backend.
type QueryService interface {
	Query(ctx context.Context, q Query) ([]Record, error)
	// GetByKey reads one entity by key. Gateways answering with a collection
	// return every row; a single entity is returned as a one-element slice.
	GetByKey(ctx context.Context, resource Resource, key Key) ([]Record, error)
	Master(ctx context.Context, resource Resource, filters Filters) ([]MasterItem, error)
}

// QueryObserver records the duration and outcome of backend reads.
type QueryObserver interface {
	ObserveQuery(resource, outcome string, elapsed time.Duration)
}

// ServiceOptions tunes a Service.
type ServiceOptions struct {
	QueryTimeout time.Duration
	Observer     QueryObserver
}

// Service coordinates validation, report selection, backend reads through the
// cache, normalization and publication to a Board.
type Service struct {
	backend  QueryService
	cache    *Cache
	logger   *slog.Logger
	timeout  time.Duration
	observer QueryObserver
}

// NewService wires a QueryService with a Cache helper.
func NewService(backend QueryService, cache *Cache, logger *slog.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	return &Service{
		backend:  backend,
		cache:    cache,
		logger:   logger,
		timeout:  opts.QueryTimeout,
		observer: opts.Observer,
	}
}

// Outcome is the result of a successful run.
type Outcome struct {
	FetchID         string      `json:"fetchId"`
	Mode            ReportMode  `json:"mode"`
	SubScenario     SubScenario `json:"subScenario"`
	Resource        Resource    `json:"resource"`
	Slot            Slot        `json:"slot"`
	Title           string      `json:"title"`
	Records         []Record    `json:"records"`
	Colors          ColorMap    `json:"colors"`
	Rules           []ColorRule `json:"rules"`
	Notice          Notice      `json:"notice,omitempty"`
	QuarterSelected bool        `json:"quarterSelected"`
}

// Run executes the report selected by view and publishes it on board.
// Validation failures return *ValidationError before any read is issued,
// backend failures return *QueryError and leave the board untouched, and a
// response overtaken by a newer run of the same slot returns ErrStaleTicket.
func (s *Service) Run(ctx context.Context, board *Board, sel Selection, view View) (Outcome, error) {
	if res := ValidateView(view, sel); !res.Valid {
		return Outcome{}, res.Err()
	}
	route, err := Select(view)
	if err != nil {
		return Outcome{}, err
	}
	if route.DirectLookup && (len(nonBlank(sel.SupplierIDs)) != 1 || sel.DueDate == "") {
		return Outcome{}, &ValidationError{
			Missing: []string{FieldSupplier.Label(), FieldDueDate.Label()},
			Message: singleDueMessage,
		}
	}

	fetchID := uuid.NewString()
	logger := s.logger.With(
		slog.String("fetch_id", fetchID),
		slog.String("mode", view.Mode.String()),
		slog.String("resource", string(route.Resource)),
	)

	flags := make(map[Flag]bool, 3)
	if route.Show != "" {
		flags[route.Show] = true
	}
	if route.Hide != "" {
		flags[route.Hide] = false
	}

	ticket := board.Begin(route.Slot)
	var (
		records         []Record
		quarterSelected bool
	)
	switch {
	case route.DirectLookup:
		records, err = s.lookup(ctx, route.Resource, Key{
			SupplierID:  nonBlank(sel.SupplierIDs)[0],
			Date:        sel.DueDate,
			CompanyCode: sel.CompanyCode(),
		})
	case view.Mode == ModeSupplierDueAsOfDate:
		records, err = s.query(ctx, Query{Resource: route.Resource, Filters: BuildDueFilters(sel, view), PageLimit: route.PageLimit})
	case view.Mode == ModeSupplierDueQuarterFY:
		built := BuildDueQuarterFYFilters(sel, view)
		quarterSelected = built.QuarterSelected
		flags[FlagQuarterSelected] = quarterSelected
		records, err = s.query(ctx, Query{Resource: route.Resource, Filters: built.Filters, PageLimit: route.PageLimit})
	default:
		records, err = s.query(ctx, Query{Resource: route.Resource, Filters: BuildTurnoverFilters(sel, view), PageLimit: route.PageLimit})
	}
	if err != nil {
		logger.Error("report query failed", slog.Any("error", err))
		return Outcome{}, err
	}

	normalized := Normalize(records, route.Sort, route.ShortNames)
	if err := board.Commit(ticket, Update{Records: normalized, Flags: flags}); err != nil {
		if errors.Is(err, ErrStaleTicket) {
			logger.Info("dropping superseded report response", slog.Uint64("seq", ticket.Seq))
		}
		return Outcome{}, err
	}

	colors := Assign(DistinctKeys(normalized, route.Chart.Key), route.Chart.Palette)
	out := Outcome{
		FetchID:         fetchID,
		Mode:            view.Mode,
		SubScenario:     view.Active(),
		Resource:        route.Resource,
		Slot:            route.Slot,
		Title:           route.Chart.Title,
		Records:         normalized,
		Colors:          colors,
		Rules:           Rules(normalized, route.Chart.Key, route.Chart.Context, colors),
		QuarterSelected: quarterSelected,
	}
	if len(normalized) == 0 {
		out.Notice = NoticeEmptyResult
	}
	logger.Debug("report published", slog.Int("rows", len(normalized)), slog.String("slot", string(route.Slot)))
	return out, nil
}

func (s *Service) query(ctx context.Context, q Query) ([]Record, error) {
	records, err := cached(ctx, s, q.Resource, reportKey(q), func(ctx context.Context) ([]Record, error) {
		return s.backend.Query(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) lookup(ctx context.Context, resource Resource, key Key) ([]Record, error) {
	return cached(ctx, s, resource, lookupKey(resource, key), func(ctx context.Context) ([]Record, error) {
		return s.backend.GetByKey(ctx, resource, key)
	})
}

// cached runs load under the query timeout, reading through the cache. Cache
// failures degrade to a direct load; load failures become *QueryError.
func cached[T any](ctx context.Context, s *Service, resource Resource, parts []string, load func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()

	var loadErr error
	loader := func(ctx context.Context) (T, error) {
		v, err := load(ctx)
		loadErr = err
		return v, err
	}

	var (
		value T
		hit   bool
		err   error
	)
	key, keyErr := s.cache.BuildKey(ctx, parts...)
	if keyErr == nil {
		value, hit, err = FetchJSON(ctx, s.cache, key, loader)
	}
	if keyErr != nil || (err != nil && loadErr == nil) {
		cacheErr := keyErr
		if cacheErr == nil {
			cacheErr = err
		}
		s.logger.Warn("report cache unavailable", slog.String("resource", string(resource)), slog.Any("error", cacheErr))
		value, err = loader(ctx)
		hit = false
	}

	outcome := outcomeMiss
	switch {
	case err != nil:
		outcome = outcomeError
	case hit:
		outcome = outcomeHit
	}
	if s.observer != nil {
		s.observer.ObserveQuery(string(resource), outcome, time.Since(start))
	}
	if err != nil {
		var zero T
		return zero, queryError(resource, err)
	}
	return value, nil
}

func queryError(resource Resource, err error) *QueryError {
	qerr := NewQueryError(resource, err)
	if errors.Is(err, context.DeadlineExceeded) {
		qerr.Message = queryTimeoutMessage
	}
	return qerr
}

package purchasehttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/purchase-insights/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/export"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/svg"
)

// ReportService is the dashboard contract used by the handler.
type ReportService interface {
	Run(ctx context.Context, board *purchase.Board, sel purchase.Selection, view purchase.View) (purchase.Outcome, error)
	LoadMasterData(ctx context.Context, sel purchase.Selection) (purchase.MasterData, error)
	ListCompanyCodes(ctx context.Context) ([]purchase.MasterItem, error)
	ListSuppliers(ctx context.Context, sel purchase.Selection) ([]purchase.MasterItem, error)
}

// PDFService renders a report page to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error)
}

// Options configures the handler.
type Options struct {
	CookieName      string
	CookieTTL       time.Duration
	SecureCookie    bool
	CompanyCodeMode purchase.CompanyCodeMode
	ExportsPerMin   int
}

// Handler serves the purchase dashboard API.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	sessions  purchase.SessionStore
	boards    *purchase.Boards
	pdf       PDFService
	validator *validator.Validate
	opts      Options
	bufPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the purchase dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, sessions purchase.SessionStore, boards *purchase.Boards, pdf PDFService, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "purchase_session"
	}
	if opts.CookieTTL <= 0 {
		opts.CookieTTL = 12 * time.Hour
	}
	if opts.ExportsPerMin <= 0 {
		opts.ExportsPerMin = 10
	}
	if boards == nil {
		boards = purchase.NewBoards(opts.CookieTTL)
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		boards:    boards,
		pdf:       pdf,
		validator: validator.New(),
		opts:      opts,
		now:       time.Now,
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type stateResponse struct {
	SessionID     string                    `json:"sessionId"`
	Selection     purchase.Selection        `json:"selection"`
	View          purchase.View             `json:"view"`
	VisibleFields []string                  `json:"visibleFields"`
	Validation    purchase.ValidationResult `json:"validation"`
	Flags         map[purchase.Flag]bool    `json:"flags"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

func (h *Handler) writeState(w http.ResponseWriter, sess purchase.Session) {
	fields := purchase.VisibleFields(sess.View)
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label())
	}
	httpx.JSON(w, http.StatusOK, stateResponse{
		SessionID:     sess.ID,
		Selection:     sess.Selection,
		View:          sess.View,
		VisibleFields: labels,
		Validation:    purchase.ValidateView(sess.View, sess.Selection),
		Flags:         h.snapshot(sess.ID).Flags,
	})
}

type periodRequest struct {
	FiscalYears  []string `json:"fiscalYears" validate:"omitempty,dive,numeric,len=4"`
	Quarters     []string `json:"quarters" validate:"omitempty,dive,oneof=Q1 Q2 Q3 Q4 1 2 3 4"`
	QuarterYears []string `json:"quarterYears" validate:"omitempty,dive,numeric,len=4"`
	DueDate      *string  `json:"dueDate"`
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sel := sess.Selection
	if req.FiscalYears != nil {
		sel = sel.WithFiscalYears(req.FiscalYears...)
	}
	if req.Quarters != nil {
		sel = sel.WithQuarters(req.Quarters...)
	}
	if req.QuarterYears != nil {
		sel = sel.WithQuarterYears(req.QuarterYears...)
	}
	if req.DueDate != nil {
		next, err := sel.WithDueDate(*req.DueDate)
		if err != nil {
			httpx.FieldProblem(w, http.StatusBadRequest, "Validation Failed", "Supplier Due Date must use the yyyyMMdd format.", []string{purchase.FieldDueDate.Label()})
			return
		}
		sel = next
	}
	sess.Selection = sel
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

type dialogRequest struct {
	Items []purchase.DialogItem `json:"items" validate:"dive"`
}

func (h *Handler) handleSupplierDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if !sess.Selection.HasCompanyCode() {
		httpx.FieldProblem(w, http.StatusUnprocessableEntity, "Company Code Required",
			"Please select a Company Code before choosing a Supplier.", []string{purchase.FieldCompanyCode.Label()})
		return
	}
	sess.Selection = sess.Selection.ApplySupplierDialog(req.Items)
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

func (h *Handler) handleClearSuppliers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Selection = sess.Selection.ClearSuppliers()
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

func (h *Handler) handleCompanyCodeDialog(w http.ResponseWriter, r *http.Request) {
	var req dialogRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Selection = sess.Selection.ApplyCompanyCodeDialog(req.Items)
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

func (h *Handler) handleClearCompanyCodes(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Selection = sess.Selection.ClearCompanyCodes()
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

type viewRequest struct {
	Mode      string `json:"mode" validate:"omitempty,oneof=fiscal_year_turnover quarterly_turnover supplier_due_as_of_date supplier_due_quarter_fy"`
	ModeIndex *int   `json:"modeIndex" validate:"omitempty,min=0,max=3"`
	TabGroup  string `json:"tabGroup" validate:"omitempty,oneof=turnover supplierDue supplierDueQuarterFY"`
	Tab       string `json:"tab" validate:"required_with=TabGroup"`
}

var tabGroups = map[string]purchase.TabGroup{
	"turnover":             purchase.TabsTurnover,
	"supplierDue":          purchase.TabsSupplierDue,
	"supplierDueQuarterFY": purchase.TabsSupplierDueQuarterFY,
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view := sess.View
	switch {
	case req.Mode != "":
		mode, err := purchase.ParseReportMode(req.Mode)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		view = view.WithMode(mode)
	case req.ModeIndex != nil:
		mode, err := purchase.ModeFromIndex(*req.ModeIndex)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		view = view.WithMode(mode)
	}
	if req.TabGroup != "" {
		view = view.WithTab(tabGroups[req.TabGroup], req.Tab)
	}
	sess.View = view
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	board := h.boards.For(sess.ID)
	out, err := h.service.Run(r.Context(), board, sess.Selection, sess.View)
	if err != nil {
		h.respondRunError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.snapshot(sess.ID))
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	slot, route, ok := h.slotRoute(w, r)
	if !ok {
		return
	}
	records := h.snapshot(sess.ID).Slots[slot]
	if len(records) == 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", string(purchase.NoticeEmptyResult))
		return
	}
	chart, err := renderChart(records, route)
	if err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream chart", err)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	slot, route, ok := h.slotRoute(w, r)
	if !ok {
		return
	}
	records := h.snapshot(sess.ID).Slots[slot]
	format := strings.ToLower(chi.URLParam(r, "format"))
	filename := fmt.Sprintf("%s-%s.%s", strings.ReplaceAll(string(slot), ".", "-"), h.now().UTC().Format("20060102"), format)

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()

	var contentType string
	switch format {
	case "csv":
		if err := export.WriteCSV(buf, slot, records); err != nil {
			h.handleServerError(w, "write csv", err)
			return
		}
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		if err := export.WriteXLSX(buf, slot, route.Chart.Title, records); err != nil {
			h.handleServerError(w, "write xlsx", err)
			return
		}
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		if h.pdf == nil {
			h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
			return
		}
		payload := export.ReportPayload{
			Title:        route.Chart.Title,
			Slot:         slot,
			CompanyCodes: sess.Selection.CompanyCodeNamesDisplay(),
			Records:      records,
			GeneratedAt:  h.now(),
		}
		if len(records) > 0 {
			chart, err := renderChart(records, route)
			if err != nil {
				h.handleServerError(w, "render chart", err)
				return
			}
			payload.Chart = chart
		}
		pdf, err := h.pdf.RenderReport(r.Context(), payload)
		if err != nil {
			h.handleServerError(w, "render pdf", err)
			return
		}
		buf.Write(pdf)
		contentType = "application/pdf"
	default:
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unsupported export format %q", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream export", err)
	}
}

func (h *Handler) handleMasterData(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	data, err := h.service.LoadMasterData(r.Context(), sess.Selection)
	if err != nil {
		h.respondRunError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) handleCompanyCodes(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCompanyCodes(r.Context())
	if err != nil {
		h.respondRunError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase.SearchMaster(items, r.URL.Query().Get("q")))
}

func (h *Handler) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	items, err := h.service.ListSuppliers(r.Context(), sess.Selection)
	if err != nil {
		h.respondRunError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase.SearchMaster(items, r.URL.Query().Get("q")))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess = sess.Reset()
	if board, found := h.boards.Peek(sess.ID); found {
		board.Reset()
	}
	sess, ok = h.save(w, r, sess)
	if !ok {
		return
	}
	h.writeState(w, sess)
}

// snapshot reads the session's board without creating one; sessions that never
// ran a report see the default flags and no data.
func (h *Handler) snapshot(sessionID string) purchase.BoardSnapshot {
	if board, ok := h.boards.Peek(sessionID); ok {
		return board.Snapshot()
	}
	return purchase.NewBoard().Snapshot()
}

func (h *Handler) slotRoute(w http.ResponseWriter, r *http.Request) (purchase.Slot, purchase.Route, bool) {
	slot, err := purchase.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return "", purchase.Route{}, false
	}
	route, err := purchase.RouteForSlot(slot)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return "", purchase.Route{}, false
	}
	return slot, route, true
}

func renderChart(records []purchase.Record, route purchase.Route) (template.HTML, error) {
	keys := purchase.DistinctKeys(records, route.Chart.Key)
	colors := purchase.Assign(keys, route.Chart.Palette)
	return svg.Chart(records, route.Chart, colors, svg.DefaultWidth, svg.DefaultHeight)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be valid JSON")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Namespace())
			}
			httpx.FieldProblem(w, http.StatusBadRequest, "Validation Failed", err.Error(), fields)
			return false
		}
		h.handleServerError(w, "validate request", err)
		return false
	}
	return true
}

func (h *Handler) respondRunError(w http.ResponseWriter, err error) {
	var (
		verr *purchase.ValidationError
		qerr *purchase.QueryError
	)
	switch {
	case errors.As(err, &verr):
		httpx.FieldProblem(w, http.StatusUnprocessableEntity, "Missing Input", verr.Message, verr.Missing)
	case errors.As(err, &qerr):
		h.logger.Warn("report query failed", slog.String("resource", string(qerr.Resource)), slog.Any("error", qerr.Err))
		httpx.Problem(w, http.StatusBadGateway, "Query Failed", qerr.Message)
	case errors.Is(err, purchase.ErrSessionConflict):
		httpx.Problem(w, http.StatusConflict, "Session Changed", "The dashboard was changed by another request. Reload and try again.")
	case errors.Is(err, purchase.ErrStaleTicket):
		httpx.Problem(w, http.StatusConflict, "Superseded", "A newer request for this report is in progress.")
	case errors.Is(err, purchase.ErrNoRoute), errors.Is(err, purchase.ErrUnknownSlot):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.handleServerError(w, "run report", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(op string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error("purchase handler error", slog.String("op", op), slog.Any("error", err))
}

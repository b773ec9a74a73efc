package purchasehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the purchase dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.opts.ExportsPerMin, time.Minute,
		httprate.WithKeyFuncs(h.rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/state", h.handleState)
	r.Delete("/state", h.handleEndSession)
	r.Post("/clear", h.handleClear)

	r.Put("/selection/periods", h.handlePeriods)
	r.Post("/selection/suppliers", h.handleSupplierDialog)
	r.Delete("/selection/suppliers", h.handleClearSuppliers)
	r.Post("/selection/company-codes", h.handleCompanyCodeDialog)
	r.Delete("/selection/company-codes", h.handleClearCompanyCodes)
	r.Put("/view", h.handleView)

	r.Post("/run", h.handleRun)
	r.Get("/board", h.handleBoard)
	r.Get("/charts/{slot}", h.handleChart)

	r.Get("/master", h.handleMasterData)
	r.Get("/master/company-codes", h.handleCompanyCodes)
	r.Get("/master/suppliers", h.handleSuppliers)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/exports/{slot}/{format}", h.handleExport)
	})
}

func (h *Handler) rateLimitKey(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(h.opts.CookieName); err == nil && cookie.Value != "" {
		return "session:" + cookie.Value, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

package purchasehttp

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// session loads the dashboard session named by the cookie. Unknown or expired
// sessions are replaced by a fresh one, which is persisted right away so the
// cookie and the store agree. It writes an error response when ok is false.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (purchase.Session, bool) {
	if cookie, err := r.Cookie(h.opts.CookieName); err == nil && cookie.Value != "" {
		sess, err := h.sessions.Get(r.Context(), cookie.Value)
		if err == nil {
			return sess, true
		}
		if !errors.Is(err, purchase.ErrSessionNotFound) {
			h.handleServerError(w, "load session", err)
			return purchase.Session{}, false
		}
		h.boards.Drop(cookie.Value)
	}
	sess, ok := h.save(w, r, purchase.NewSession(h.opts.CompanyCodeMode))
	if !ok {
		return purchase.Session{}, false
	}
	h.logger.Debug("dashboard session started", slog.String("session_id", sess.ID))
	return sess, true
}

// save persists the session and refreshes the cookie. It must run before the
// response body is written. A concurrent save of the same session answers 409.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess purchase.Session) (purchase.Session, bool) {
	saved, err := h.sessions.Save(r.Context(), sess)
	if err != nil {
		if errors.Is(err, purchase.ErrSessionConflict) {
			h.respondRunError(w, err)
			return purchase.Session{}, false
		}
		h.handleServerError(w, "save session", err)
		return purchase.Session{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
		Expires:  h.now().Add(h.opts.CookieTTL),
	})
	return saved, true
}

// handleEndSession drops the session and its board.
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.opts.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.handleServerError(w, "delete session", err)
			return
		}
		h.boards.Drop(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

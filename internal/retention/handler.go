package retention

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/platform/httpx"
	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

// Handler serves the follow-up pages.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
	}
}

// MountRoutes registers the follow-up routes. The mutation endpoints accept
// POST only; a GET on them flashes a notice and bounces back to the list so
// stale bookmarks never mutate anything.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fidelisation", h.listRetention)
	r.Post("/fidelisation/fideliser", h.handleMarkRetained)
	r.Get("/fidelisation/fideliser", h.bounce("/fidelisation"))
	r.Get("/fidelisation/retards", h.listDelays)
	r.Get("/fidelisation/retards/{id}", h.showDelayDetail)
	r.Post("/fidelisation/retards/{id}/resoudre", h.handleResolveDelay)
	r.Get("/fidelisation/retards/{id}/resoudre", h.bounce("/fidelisation/retards"))
	r.Post("/fidelisation/commentaires", h.handleAddComment)
	r.Get("/fidelisation/commentaires", h.bounce("/fidelisation"))
	r.Get("/ateliers", h.listWorkshop)
	r.Get("/abandons", h.listAbandoned)
	r.Get("/abandons/{id}", h.showAbandonedDetail)
	r.Get("/api/alertes", h.alertCounts)
}

// alertCounts feeds the navigation badges.
func (h *Handler) alertCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.AlertCounts(r.Context(), h.service.Today())
	if err != nil {
		h.logger.Error("alert counts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{
		"fidelisation": counts.Retention,
		"retards":      counts.Delay,
	})
}

// bounce rejects GET requests on mutation endpoints with an info flash.
func (h *Handler) bounce(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.flash(r, "info", "Cette action doit être soumise depuis la page de suivi.")
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

type alertPageData struct {
	Alerts     []Alert
	Pagination shared.Pagination
	Today      time.Time
	Search     string
	Filter     AbandonedFilter
}

func (h *Handler) listRetention(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	search := strings.TrimSpace(q.Get("q"))
	today := h.service.Today()
	res, err := h.service.RetentionAlerts(r.Context(), today, search, page)
	if err != nil {
		h.fail(w, r, "list retention alerts", err, "/")
		return
	}
	h.render(w, r, "pages/retention_alerts.html", "Fidélisation", alertPageData{
		Alerts:     res.Alerts,
		Pagination: res.Pagination,
		Today:      today,
		Search:     search,
	})
}

func (h *Handler) listDelays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	search := strings.TrimSpace(q.Get("q"))
	today := h.service.Today()
	res, err := h.service.DelayAlerts(r.Context(), today, search, page)
	if err != nil {
		h.fail(w, r, "list delay alerts", err, "/")
		return
	}
	h.render(w, r, "pages/delay_alerts.html", "Retards atelier", alertPageData{
		Alerts:     res.Alerts,
		Pagination: res.Pagination,
		Today:      today,
		Search:     search,
	})
}

func (h *Handler) handleMarkRetained(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ref, err := ParseDetailRef(r.PostFormValue("ref"))
	if err != nil {
		h.fail(w, r, "parse detail ref", err, "/fidelisation")
		return
	}
	// Only an explicit checkbox marks the client; the form also posts plain
	// notes through this endpoint.
	var changed bool
	if r.PostFormValue("fidelise") == "1" {
		changed, err = h.service.MarkRetained(r.Context(), ref)
		if err != nil {
			h.fail(w, r, "mark retained", err, "/fidelisation")
			return
		}
	}
	// An optional note rides along; already-retained details still take notes.
	if body := strings.TrimSpace(r.PostFormValue("body")); body != "" {
		if err := h.service.AddComment(r.Context(), ref, h.author(r), body, changed); err != nil {
			h.fail(w, r, "add retention note", err, "/fidelisation")
			return
		}
	}
	switch {
	case changed:
		h.flash(r, "success", "Client fidélisé.")
	case r.PostFormValue("fidelise") == "1":
		h.flash(r, "info", "Ce client était déjà fidélisé.")
	default:
		h.flash(r, "success", "Note enregistrée.")
	}
	http.Redirect(w, r, "/fidelisation", http.StatusSeeOther)
}

func (h *Handler) handleResolveDelay(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	action := r.PostFormValue("action")
	if err := h.service.ResolveDelay(r.Context(), id, action, h.service.Today()); err != nil {
		h.fail(w, r, "resolve delay alert", err, "/fidelisation/retards")
		return
	}
	if body := strings.TrimSpace(r.PostFormValue("body")); body != "" {
		ref := DetailRef{Kind: KindCarpet, ID: id}
		if err := h.service.AddComment(r.Context(), ref, h.author(r), body, false); err != nil {
			h.fail(w, r, "add resolution note", err, "/fidelisation/retards")
			return
		}
	}
	if target, ok := StatusFromAction(action); ok && target.Terminal() {
		h.flash(r, "success", "Fiche clôturée.")
	} else {
		h.flash(r, "success", "Statut mis à jour.")
	}
	http.Redirect(w, r, "/fidelisation/retards", http.StatusSeeOther)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ref, err := ParseDetailRef(r.PostFormValue("ref"))
	if err != nil {
		h.fail(w, r, "parse detail ref", err, "/fidelisation")
		return
	}
	if err := h.service.AddComment(r.Context(), ref, h.author(r), r.PostFormValue("body"), false); err != nil {
		h.fail(w, r, "add comment", err, "/fidelisation")
		return
	}
	h.flash(r, "success", "Commentaire enregistré.")
	http.Redirect(w, r, "/fidelisation", http.StatusSeeOther)
}

type workshopPageData struct {
	Items []WorkshopItem
	Today time.Time
}

func (h *Handler) listWorkshop(w http.ResponseWriter, r *http.Request) {
	today := h.service.Today()
	items, err := h.service.Workshop(r.Context(), today)
	if err != nil {
		h.fail(w, r, "list workshop", err, "/")
		return
	}
	h.render(w, r, "pages/workshop.html", "Suivi atelier", workshopPageData{Items: items, Today: today})
}

func (h *Handler) listAbandoned(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := AbandonedFilter{Search: strings.TrimSpace(q.Get("q"))}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	if n, err := strconv.Atoi(q.Get("tapis")); err == nil && n > 0 {
		f.CarpetCount = n
	}
	if t, err := time.Parse("2006-01-02", q.Get("date")); err == nil {
		t = t.UTC()
		f.PickupDate = &t
	}
	res, err := h.service.Abandoned(r.Context(), f)
	if err != nil {
		h.fail(w, r, "list abandoned", err, "/")
		return
	}
	h.render(w, r, "pages/abandoned.html", "Abandons", alertPageData{
		Alerts:     res.Alerts,
		Pagination: res.Pagination,
		Today:      h.service.Today(),
		Filter:     f,
	})
}

type delayDetailPageData struct {
	Item  *WorkshopItem
	Notes []Note
	Today time.Time
}

// showDelayDetail renders one delayed carpet with its note history. Records
// that already left the delay flow are redirected to where they now live.
func (h *Handler) showDelayDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	today := h.service.Today()
	item, notes, err := h.service.DelayDetail(r.Context(), id, today)
	if err != nil {
		h.fail(w, r, "load delay detail", err, "/fidelisation/retards")
		return
	}
	if item.Detail.Status.Delivered() {
		h.flash(r, "info", "Cette fiche est déjà clôturée.")
		http.Redirect(w, r, "/fidelisation/retards", http.StatusSeeOther)
		return
	}
	if item.Detail.Status == orders.CarpetAbandoned {
		h.flash(r, "info", "Cette fiche a été classée en abandon.")
		http.Redirect(w, r, "/abandons", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/delay_detail.html", "Fiche retard", delayDetailPageData{
		Item:  item,
		Notes: notes,
		Today: today,
	})
}

// showAbandonedDetail renders an abandoned carpet record read-only.
func (h *Handler) showAbandonedDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	today := h.service.Today()
	item, notes, err := h.service.DelayDetail(r.Context(), id, today)
	if err != nil {
		h.fail(w, r, "load abandoned detail", err, "/abandons")
		return
	}
	if item.Detail.Status != orders.CarpetAbandoned {
		h.flash(r, "info", "Cette fiche n'est pas classée en abandon.")
		http.Redirect(w, r, "/abandons", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/abandoned_detail.html", "Fiche abandon", delayDetailPageData{
		Item:  item,
		Notes: notes,
		Today: today,
	})
}

func (h *Handler) author(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}

func (h *Handler) flash(r *http.Request, kind, msg string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: msg})
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, redirect string) {
	h.logger.Error(op, slog.Any("error", err))
	h.flash(r, "error", shared.UserSafeMessage(err))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	err := h.templates.Render(w, page, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render "+page, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

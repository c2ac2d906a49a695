package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

// OrderSource looks up the order an invoice is billed against.
type OrderSource interface {
	Get(ctx context.Context, id int64) (*orders.OrderWithDetails, error)
}

// Handler serves the quote, invoice and finance pages.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	orders      OrderSource
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	companyName string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, orderSource OrderSource, templates *view.Engine, csrf *shared.CSRFManager, companyName string) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		orders:      orderSource,
		templates:   templates,
		csrfManager: csrf,
		companyName: companyName,
	}
}

// MountRoutes registers the document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/factures", h.list)
	r.Get("/factures/nouvelle", h.showCreate)
	r.Post("/factures/nouvelle", h.handleCreate)
	r.Get("/factures/{id}", h.show)
	r.Get("/commandes/{id}/facture", h.showCreateFromOrder)
	r.Post("/factures/{id}", h.handleUpdate)
	r.Post("/factures/{id}/supprimer", h.handleDelete)
	r.Get("/factures/{id}/pdf", h.downloadPDF)
}

// MountFinanceRoutes registers the revenue report, mounted behind the admin
// guard.
func (h *Handler) MountFinanceRoutes(r chi.Router) {
	r.Get("/finances", h.finance)
}

func documentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseOptDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

type listPageData struct {
	Documents  []Document
	Pagination shared.Pagination
	Filter     ListFilter
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Type:     DocumentType(q.Get("type")),
		Search:   q.Get("q"),
		DateFrom: parseOptDate(q.Get("du")),
		DateTo:   parseOptDate(q.Get("au")),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))

	res, err := h.service.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, "list documents", err, "/")
		return
	}
	h.render(w, r, "pages/documents_list.html", "Devis et factures", listPageData{
		Documents:  res.Documents,
		Pagination: res.Pagination,
		Filter:     f,
	})
}

type formPageData struct {
	Form     DocumentForm
	Document *Document
	IsNew    bool
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/document_form.html", "Nouveau document", formPageData{
		Form: DocumentForm{
			Type:      string(TypeQuote),
			IssueDate: time.Now().UTC().Format("2006-01-02"),
		},
		IsNew: true,
	})
}

// showCreateFromOrder opens the new-document form prefilled from an order.
func (h *Handler) showCreateFromOrder(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load order for billing", err, "/commandes")
		return
	}
	h.render(w, r, "pages/document_form.html", "Nouveau document", formPageData{
		Form:  FormFromOrder(o, time.Now().UTC()),
		IsNew: true,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := FormFromRequest(r)
	id, err := h.service.Create(r.Context(), form)
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			h.flash(r, "error", verr.Message)
			h.render(w, r, "pages/document_form.html", "Nouveau document", formPageData{Form: form, IsNew: true})
			return
		}
		h.fail(w, r, "create document", err, "/factures")
		return
	}
	h.flash(r, "success", "Document enregistré.")
	http.Redirect(w, r, fmt.Sprintf("/factures/%d", id), http.StatusSeeOther)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load document", err, "/factures")
		return
	}
	h.render(w, r, "pages/document_form.html", d.Type.Label()+" "+d.Number, formPageData{
		Form:     formFromDocument(d),
		Document: d,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, FormFromRequest(r)); err != nil {
		h.fail(w, r, "update document", err, fmt.Sprintf("/factures/%d", id))
		return
	}
	h.flash(r, "success", "Document mis à jour.")
	http.Redirect(w, r, fmt.Sprintf("/factures/%d", id), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete document", err, "/factures")
		return
	}
	h.flash(r, "success", "Document supprimé.")
	http.Redirect(w, r, "/factures", http.StatusSeeOther)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load document", err, "/factures")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Number+".pdf"))
	if err := WritePDF(w, d, h.companyName); err != nil {
		h.logger.Error("write pdf", slog.Any("error", err))
	}
}

type financePageData struct {
	Summary *FinanceSummary
	From    string
	To      string
}

func (h *Handler) finance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now().UTC()
	from := shared.MonthStart(now.Year(), int(now.Month()))
	to := from.AddDate(0, 1, -1)
	if t := parseOptDate(q.Get("du")); t != nil {
		from = *t
	}
	if t := parseOptDate(q.Get("au")); t != nil {
		to = *t
	}

	summary, err := h.service.Finance(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, "finance summary", err, "/")
		return
	}
	h.render(w, r, "pages/finance.html", "Finances", financePageData{
		Summary: summary,
		From:    from.Format("2006-01-02"),
		To:      to.Format("2006-01-02"),
	})
}

// formFromDocument seeds the edit form from the stored record.
func formFromDocument(d *Document) DocumentForm {
	f := DocumentForm{
		Type:         string(d.Type),
		ClientName:   d.ClientName,
		ClientPhone:  d.ClientPhone,
		Subject:      d.Subject,
		Signatory:    d.Signatory,
		IssueDate:    d.IssueDate.Format("2006-01-02"),
		DiscountRate: d.DiscountRate.String(),
	}
	if d.OrderID != nil {
		f.OrderID = strconv.FormatInt(*d.OrderID, 10)
	}
	for _, l := range d.Lines {
		f.Lines = append(f.Lines, LineInput{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Note:        l.Note,
		})
	}
	return f
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

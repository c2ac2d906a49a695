package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

// Handler serves the order pages.
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

// MountRoutes registers the order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/commandes", h.list)
	r.Get("/commandes/export", h.export)
	r.Get("/commandes/nouvelle", h.showCreate)
	r.Post("/commandes/nouvelle", h.handleCreate)
	r.Get("/commandes/{id}", h.show)
	r.Post("/commandes/{id}", h.handleUpdate)
	r.Post("/commandes/{id}/supprimer", h.handleDelete)
}

func orderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func formFromRequest(r *http.Request) OrderForm {
	count, _ := strconv.Atoi(r.PostFormValue("carpet_count"))
	climateCost, _ := strconv.ParseInt(r.PostFormValue("climate_cost"), 10, 64)
	carpetCost, _ := strconv.ParseInt(r.PostFormValue("carpet_cost"), 10, 64)
	return OrderForm{
		ClientName:       r.PostFormValue("client_name"),
		ClientPhone:      r.PostFormValue("client_phone"),
		ClientLocation:   r.PostFormValue("client_location"),
		ServiceType:      r.PostFormValue("service_type"),
		InterventionDate: r.PostFormValue("intervention_date"),
		Satisfaction:     r.PostFormValue("satisfaction"),
		Equipment:        r.PostFormValue("equipment"),
		ClimateCost:      climateCost,
		PickupDate:       r.PostFormValue("pickup_date"),
		CarpetCount:      count,
		CarpetCost:       carpetCost,
		ProcessedDate:    r.PostFormValue("processed_date"),
		PromisedDate:     r.PostFormValue("promised_date"),
		DeliveredDate:    r.PostFormValue("delivered_date"),
		Comment:          r.PostFormValue("comment"),
		Status:           r.PostFormValue("status"),
	}
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	f := ListFilter{
		Search:      q.Get("q"),
		ServiceType: ServiceType(q.Get("type")),
		Status:      q.Get("statut"),
	}
	if v := q.Get("fidelise"); v == "oui" || v == "non" {
		b := v == "oui"
		f.Retained = &b
	}
	if v := q.Get("date"); v != "" {
		if t, err := time.Parse(DateFormat, v); err == nil {
			f.CreatedOn = &t
		}
	}
	if v := q.Get("du"); v != "" {
		if t, err := time.Parse(DateFormat, v); err == nil {
			f.OperationalFrom = &t
		}
	}
	if v := q.Get("au"); v != "" {
		if t, err := time.Parse(DateFormat, v); err == nil {
			f.OperationalTo = &t
		}
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	return f
}

type listPageData struct {
	Orders     []OrderWithDetails
	Pagination shared.Pagination
	Filter     ListFilter
	Today      time.Time
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	res, err := h.service.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, "list orders", err, "/")
		return
	}
	h.render(w, r, "pages/orders_list.html", "Commandes", listPageData{
		Orders:     res.Orders,
		Pagination: res.Pagination,
		Filter:     f,
		Today:      time.Now().UTC(),
	})
}

type formPageData struct {
	Form  OrderForm
	Order *OrderWithDetails
	IsNew bool
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/order_form.html", "Nouvelle commande", formPageData{
		Form:  OrderForm{ServiceType: string(ServiceCityProp)},
		IsNew: true,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := formFromRequest(r)
	id, err := h.service.Create(r.Context(), form)
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			h.flash(r, "error", verr.Message)
			h.render(w, r, "pages/order_form.html", "Nouvelle commande", formPageData{Form: form, IsNew: true})
			return
		}
		h.fail(w, r, "create order", err, "/commandes")
		return
	}
	h.flash(r, "success", "Commande enregistrée.")
	http.Redirect(w, r, fmt.Sprintf("/commandes/%d", id), http.StatusSeeOther)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load order", err, "/commandes")
		return
	}
	h.render(w, r, "pages/order_form.html", "Fiche commande", formPageData{
		Form:  formFromOrder(o),
		Order: o,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, formFromRequest(r)); err != nil {
		h.fail(w, r, "update order", err, fmt.Sprintf("/commandes/%d", id))
		return
	}
	h.flash(r, "success", "Commande mise à jour.")
	http.Redirect(w, r, fmt.Sprintf("/commandes/%d", id), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete order", err, "/commandes")
		return
	}
	h.flash(r, "success", "Commande supprimée.")
	http.Redirect(w, r, "/commandes", http.StatusSeeOther)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.All(r.Context())
	if err != nil {
		h.fail(w, r, "export orders", err, "/commandes")
		return
	}
	f, err := BuildWorkbook(all)
	if err != nil {
		h.fail(w, r, "build workbook", err, "/commandes")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="commandes.xlsx"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("write workbook", slog.Any("error", err))
	}
}

// formFromOrder seeds the edit form from the stored record.
func formFromOrder(o *OrderWithDetails) OrderForm {
	f := OrderForm{
		ClientName:     o.ClientName,
		ClientPhone:    o.ClientPhone,
		ClientLocation: o.ClientLocation,
		ServiceType:    string(o.ServiceType),
	}
	if o.Climate != nil {
		f.InterventionDate = FormatDate(o.Climate.InterventionDate)
		if o.Climate.Satisfaction != nil {
			f.Satisfaction = string(*o.Climate.Satisfaction)
		}
		f.Equipment = o.Climate.Equipment
		f.ClimateCost = o.Climate.Cost
	}
	if o.Carpet != nil {
		f.PickupDate = FormatDate(o.Carpet.PickupDate)
		f.CarpetCount = o.Carpet.CarpetCount
		f.CarpetCost = o.Carpet.Cost
		f.ProcessedDate = FormatDate(o.Carpet.ProcessedDate)
		f.PromisedDate = FormatDate(o.Carpet.PromisedDate)
		f.DeliveredDate = FormatDate(o.Carpet.DeliveredDate)
		f.Comment = o.Carpet.Comment
		f.Status = string(o.Carpet.Status)
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

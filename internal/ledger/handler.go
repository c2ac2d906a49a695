package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

// Handler serves the cash book pages. All of them sit behind the admin
// guard; only managers touch the register.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	companyName string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, companyName string) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		csrfManager: csrf,
		companyName: companyName,
	}
}

// MountRoutes registers the cash book routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/caisse", h.showMonth)
	r.Post("/caisse", h.saveMonth)
	r.Get("/caisse/export", h.exportXLSX)
	r.Get("/caisse/pdf", h.exportPDF)
	r.Get("/caisse/annee", h.yearSummary)
}

func monthFromQuery(r *http.Request, now time.Time) (int, time.Month) {
	year, err := strconv.Atoi(r.URL.Query().Get("annee"))
	if err != nil || year < 2000 || year > 2100 {
		year = now.Year()
	}
	m, err := strconv.Atoi(r.URL.Query().Get("mois"))
	if err != nil || m < 1 || m > 12 {
		m = int(now.Month())
	}
	return year, time.Month(m)
}

type sheetPageData struct {
	Sheet      *MonthSheet
	MonthNames map[int]string
}

func (h *Handler) showMonth(w http.ResponseWriter, r *http.Request) {
	year, month := monthFromQuery(r, time.Now().UTC())
	sheet, err := h.service.MonthSheet(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, "load cash sheet", err, "/")
		return
	}
	h.render(w, r, "pages/ledger.html", "Caisse", sheetPageData{
		Sheet:      sheet,
		MonthNames: shared.MonthNames,
	})
}

func (h *Handler) saveMonth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	year, month := monthFromQuery(r, time.Now().UTC())
	target := "/caisse?annee=" + strconv.Itoa(year) + "&mois=" + strconv.Itoa(int(month))

	inputs := inputsFromForm(r)
	if err := h.service.SaveMonth(r.Context(), year, month, inputs); err != nil {
		h.fail(w, r, "save cash sheet", err, target)
		return
	}
	h.flash(r, "success", "Brouillard enregistré.")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// inputsFromForm reads the row arrays of the monthly entry form.
func inputsFromForm(r *http.Request) []MovementInput {
	dates := r.PostForm["row_date"]
	kinds := r.PostForm["row_kind"]
	refs := r.PostForm["row_reference"]
	labels := r.PostForm["row_label"]
	amounts := r.PostForm["row_amount"]

	n := len(dates)
	for _, arr := range [][]string{kinds, refs, labels, amounts} {
		if len(arr) < n {
			n = len(arr)
		}
	}
	var out []MovementInput
	for i := 0; i < n; i++ {
		out = append(out, MovementInput{
			Date:      dates[i],
			Kind:      kinds[i],
			Reference: refs[i],
			Label:     labels[i],
			Amount:    amounts[i],
		})
	}
	return out
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	year, month := monthFromQuery(r, time.Now().UTC())
	sheet, err := h.service.MonthSheet(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, "load cash sheet", err, "/caisse")
		return
	}
	f, err := BuildWorkbook(sheet, h.companyName)
	if err != nil {
		h.fail(w, r, "build cash workbook", err, "/caisse")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFileName(sheet)+`"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("write cash workbook", slog.Any("error", err))
	}
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	year, month := monthFromQuery(r, time.Now().UTC())
	sheet, err := h.service.MonthSheet(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, "load cash sheet", err, "/caisse")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="caisse.pdf"`)
	if err := WritePDF(w, sheet, h.companyName); err != nil {
		h.logger.Error("write cash pdf", slog.Any("error", err))
	}
}

type yearPageData struct {
	Year   int
	Totals []MonthTotal
}

func (h *Handler) yearSummary(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("annee"))
	if err != nil || year < 2000 || year > 2100 {
		year = time.Now().UTC().Year()
	}
	totals, err := h.service.YearSummary(r.Context(), year)
	if err != nil {
		h.fail(w, r, "load year summary", err, "/caisse")
		return
	}
	h.render(w, r, "pages/ledger_year.html", "Caisse annuelle", yearPageData{Year: year, Totals: totals})
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

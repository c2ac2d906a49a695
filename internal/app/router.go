package app

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cityprop/backoffice/internal/auth"
	"github.com/cityprop/backoffice/internal/dashboard"
	"github.com/cityprop/backoffice/internal/invoices"
	"github.com/cityprop/backoffice/internal/ledger"
	"github.com/cityprop/backoffice/internal/observability"
	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/retention"
	"github.com/cityprop/backoffice/web"
)

// RouterParams aggregates everything the router mounts.
type RouterParams struct {
	Middleware []func(http.Handler) http.Handler
	Metrics    *observability.Metrics

	Auth      *auth.Handler
	Dashboard *dashboard.Handler
	Orders    *orders.Handler
	Retention *retention.Handler
	Invoices  *invoices.Handler
	Ledger    *ledger.Handler
}

// NewRouter assembles the HTTP routing tree. The cash book and the revenue
// report sit behind the admin guard; everything else only needs a login.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	r.Use(p.Middleware...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	staticFS, _ := fs.Sub(web.Static, "static")
	r.Group(func(r chi.Router) {
		r.Use(cacheStatic)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	})

	p.Auth.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		p.Dashboard.MountRoutes(r)
		p.Orders.MountRoutes(r)
		p.Retention.MountRoutes(r)
		p.Invoices.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			p.Ledger.MountRoutes(r)
			p.Invoices.MountFinanceRoutes(r)
		})
	})

	return r
}

func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

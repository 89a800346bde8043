package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlaswear/atlaswear/internal/admin"
	"github.com/atlaswear/atlaswear/internal/admin/categories"
	"github.com/atlaswear/atlaswear/internal/admin/products"
	"github.com/atlaswear/atlaswear/internal/auth"
	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/catalog"
	"github.com/atlaswear/atlaswear/internal/checkout"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/jobs"
	"github.com/atlaswear/atlaswear/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler     *auth.Handler
	CatalogHandler  *catalog.Handler
	CartHandler     *cart.Handler
	CheckoutHandler *checkout.Handler

	AdminMiddleware   admin.Middleware
	ProductsHandler   *products.Handler
	CategoriesHandler *categories.Handler

	JobHandler *jobs.Handler
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", params.CatalogHandler.Home)

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/shop", params.CatalogHandler.MountRoutes)
	r.Route("/cart", params.CartHandler.MountRoutes)
	r.Route("/checkout", params.CheckoutHandler.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AdminMiddleware.RequireAdmin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		})
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip sessions and CSRF; only cache headers apply.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

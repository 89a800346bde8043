package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/i18n"
	"github.com/atlaswear/atlaswear/internal/platform/httpx"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
)

// Handler serves the storefront browsing pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cartCache *cart.Cache
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, cartCache *cart.Cache, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, cartCache: cartCache, templates: templates, csrf: csrf}
}

// MountRoutes registers shop routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Listing)
	r.Get("/c/{slug}", h.Listing)
	r.Get("/p/{slug}", h.Detail)
	r.Get("/search", h.Search)
}

// Listing renders the shop page, optionally narrowed to one category.
// Sort and filter query parameters degrade silently on bad input.
func (h *Handler) Listing(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	locale := i18n.ResolveLocale(r, sess)

	query := ListingQuery{
		CategorySlug: chi.URLParam(r, "slug"),
		Sort:         ParseSort(r.URL.Query().Get("sort")),
		Filters:      ParseFilters(r.URL.Query()),
		Locale:       locale,
	}

	result, err := h.service.Listing(r.Context(), query)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load listing", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/shop.html", locale, map[string]any{
		"Products":   result.Products,
		"Categories": result.Categories,
		"Category":   result.Category,
		"Sort":       string(query.Sort),
		"Filters":    query.Filters,
	})
}

// Home renders the landing page with a featured selection.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	locale := i18n.ResolveLocale(r, sess)

	result, err := h.service.Listing(r.Context(), ListingQuery{Sort: SortFeatured, Locale: locale})
	if err != nil {
		h.logger.Error("load home", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	featured := result.Products
	if len(featured) > 8 {
		featured = featured[:8]
	}

	h.render(w, r, "pages/home.html", locale, map[string]any{
		"Featured":   featured,
		"Categories": result.Categories,
	})
}

// Detail renders one product with its variants.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	locale := i18n.ResolveLocale(r, sess)

	product, err := h.service.Detail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load product", slog.Any("error", err))
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/product.html", locale, map[string]any{
		"Product": product,
	})
}

// Search answers the type-ahead endpoint with a small JSON payload.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("search", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, locale string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	summary, err := h.cartCache.Get(r.Context(), cart.OwnerFromSession(sess))
	if err != nil {
		h.logger.Warn("cart summary", slog.Any("error", err))
	}

	viewData := view.TemplateData{
		Title:       "Shop",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Locale:      locale,
		RTL:         i18n.IsRTL(locale),
		CartCount:   summary.Count,
		Data:        data,
	}
	if sess != nil {
		viewData.UserID = sess.User()
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

package cart

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlaswear/atlaswear/internal/i18n"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
)

// OwnerFromSession resolves the cart owner for a request: the user when
// authenticated, the session's guest identity otherwise.
func OwnerFromSession(sess *shared.Session) Owner {
	if sess == nil {
		return Owner{}
	}
	if raw := sess.User(); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return UserOwner(id)
		}
	}
	return GuestOwner(sess.GuestID())
}

// Handler serves the cart page and line mutations.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cache     *Cache
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, cache *Cache, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, cache: cache, templates: templates, csrf: csrf}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Post("/add", h.Add)
	r.Post("/update", h.Update)
	r.Post("/remove", h.Remove)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	owner := OwnerFromSession(sess)

	current, err := h.service.Get(r.Context(), owner)
	if err != nil {
		h.logger.Error("load cart", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/cart.html", map[string]any{
		"Cart": current,
	})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	owner := OwnerFromSession(sess)

	variantID, _ := strconv.ParseInt(r.PostFormValue("variant_id"), 10, 64)
	qty, _ := strconv.Atoi(r.PostFormValue("quantity"))
	if qty < 1 {
		qty = 1
	}
	if variantID <= 0 {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}

	if err := h.service.AddLine(r.Context(), owner, variantID, qty); err != nil {
		switch err {
		case ErrVariantNotFound, ErrOutOfStock, ErrInvalidQuantity:
			h.redirectWithFlash(w, r, redirectTarget(r), "error", err.Error())
		default:
			h.logger.Error("add cart line", slog.Any("error", err), slog.Int64("variant_id", variantID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.redirectWithFlash(w, r, "/cart", "success", "Added to cart")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	owner := OwnerFromSession(sess)

	variantID, _ := strconv.ParseInt(r.PostFormValue("variant_id"), 10, 64)
	qty, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil || variantID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.service.SetQuantity(r.Context(), owner, variantID, qty); err != nil {
		switch err {
		case ErrLineNotFound, ErrInvalidQuantity:
			h.redirectWithFlash(w, r, "/cart", "error", err.Error())
		default:
			h.logger.Error("update cart line", slog.Any("error", err), slog.Int64("variant_id", variantID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	owner := OwnerFromSession(sess)

	variantID, _ := strconv.ParseInt(r.PostFormValue("variant_id"), 10, 64)
	if variantID <= 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveLine(r.Context(), owner, variantID); err != nil && err != ErrLineNotFound {
		h.logger.Error("remove cart line", slog.Any("error", err), slog.Int64("variant_id", variantID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	locale := i18n.ResolveLocale(r, sess)

	summary, err := h.cache.Get(r.Context(), OwnerFromSession(sess))
	if err != nil {
		h.logger.Warn("cart summary", slog.Any("error", err))
	}

	viewData := view.TemplateData{
		Title:       "Cart",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func redirectTarget(r *http.Request) string {
	if ref := r.PostFormValue("return_to"); ref != "" && ref[0] == '/' {
		return ref
	}
	return "/shop"
}

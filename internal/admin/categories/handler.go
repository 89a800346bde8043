package categories

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atlaswear/atlaswear/internal/i18n"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/delete", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_categories.html", map[string]any{
		"Categories": list,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "error", err.Error())
		return
	}
	if _, err := h.service.Create(r.Context(), input); err != nil {
		h.logger.Error("create category", slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Failed to create category")
		return
	}
	h.redirectWithFlash(w, r, "success", "Category created")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	input, err := parseForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "error", err.Error())
		return
	}
	if err := h.service.Update(r.Context(), id, input); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("update category", slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Failed to update category")
		return
	}
	h.redirectWithFlash(w, r, "success", "Category updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, ErrHasProducts):
			h.redirectWithFlash(w, r, "error", "Reassign its products before deleting this category")
		default:
			h.logger.Error("delete category", slog.Any("error", err))
			h.redirectWithFlash(w, r, "error", "Failed to delete category")
		}
		return
	}
	h.redirectWithFlash(w, r, "success", "Category deleted")
}

func parseForm(r *http.Request) (Category, error) {
	if err := r.ParseForm(); err != nil {
		return Category{}, errors.New("invalid form submission")
	}
	position, _ := strconv.Atoi(r.PostFormValue("position"))
	return Category{
		Slug:     strings.TrimSpace(r.PostFormValue("slug")),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		NameAr:   strings.TrimSpace(r.PostFormValue("name_ar")),
		Position: position,
	}, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	locale := i18n.ResolveLocale(r, sess)
	viewData := view.TemplateData{
		Title:       "Categories",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Locale:      locale,
		RTL:         i18n.IsRTL(locale),
		Data:        data,
	}
	if sess != nil {
		viewData.UserID = sess.User()
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

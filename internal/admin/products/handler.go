package products

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
	r.Get("/new", h.NewForm)
	r.Post("/", h.Create)
	r.Get("/{id}", h.EditForm)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/delete", h.Delete)
	r.Post("/{id}/variants", h.AddVariant)
	r.Post("/variants/{variantID}/stock", h.SetVariantStock)
	r.Post("/variants/{variantID}/delete", h.DeleteVariant)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Page:   parsePage(r.URL.Query().Get("page")),
		Limit:  25,
	}
	if raw := r.URL.Query().Get("active"); raw == "true" || raw == "false" {
		active := raw == "true"
		filters.IsActive = &active
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/admin_products.html", "Products", map[string]any{
		"Products": list,
		"Total":    total,
		"Filters":  filters,
	}, http.StatusOK)
}

func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_product_form.html", "New product", map[string]any{
		"Product": Product{IsActive: true},
		"IsNew":   true,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseProductForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/admin/products/new", "error", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/products/new", "error", "Failed to create product")
		return
	}
	h.redirectWithFlash(w, r, "/admin/products/"+strconv.FormatInt(created.ID, 10), "success", "Product created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load product", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_product_form.html", "Edit product", map[string]any{
		"Product": product,
		"IsNew":   false,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	input, err := parseProductForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/admin/products/"+chi.URLParam(r, "id"), "error", err.Error())
		return
	}
	if err := h.service.Update(r.Context(), id, input); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("update product", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/products/"+chi.URLParam(r, "id"), "error", "Failed to update product")
		return
	}
	h.redirectWithFlash(w, r, "/admin/products/"+chi.URLParam(r, "id"), "success", "Product updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete product", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/products", "error", "Failed to delete product")
		return
	}
	h.redirectWithFlash(w, r, "/admin/products", "success", "Product deleted")
}

func (h *Handler) AddVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	stock, _ := strconv.Atoi(r.PostFormValue("stock"))
	position, _ := strconv.Atoi(r.PostFormValue("position"))
	variant := Variant{
		ProductID: productID,
		SizeLabel: strings.TrimSpace(r.PostFormValue("size_label")),
		Color:     strings.TrimSpace(r.PostFormValue("color")),
		ColorCode: strings.TrimSpace(r.PostFormValue("color_code")),
		Stock:     stock,
		Position:  position,
	}
	if raw := strings.TrimSpace(r.PostFormValue("images")); raw != "" {
		for _, img := range strings.Split(raw, "\n") {
			if img = strings.TrimSpace(img); img != "" {
				variant.Images = append(variant.Images, img)
			}
		}
	}

	back := "/admin/products/" + chi.URLParam(r, "id")
	if _, err := h.service.AddVariant(r.Context(), variant); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("add variant", slog.Any("error", err))
		h.redirectWithFlash(w, r, back, "error", "Failed to add variant")
		return
	}
	h.redirectWithFlash(w, r, back, "success", "Variant added")
}

func (h *Handler) SetVariantStock(w http.ResponseWriter, r *http.Request) {
	variantID, err := parseID(chi.URLParam(r, "variantID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	stock, err := strconv.Atoi(r.PostFormValue("stock"))
	if err != nil {
		h.redirectWithFlash(w, r, backTo(r), "error", "Stock must be a number")
		return
	}
	if err := h.service.SetVariantStock(r.Context(), variantID, stock); err != nil {
		h.logger.Error("set variant stock", slog.Any("error", err))
		h.redirectWithFlash(w, r, backTo(r), "error", "Failed to update stock")
		return
	}
	h.redirectWithFlash(w, r, backTo(r), "success", "Stock updated")
}

func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := parseID(chi.URLParam(r, "variantID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteVariant(r.Context(), variantID); err != nil {
		h.logger.Error("delete variant", slog.Any("error", err))
		h.redirectWithFlash(w, r, backTo(r), "error", "Failed to delete variant")
		return
	}
	h.redirectWithFlash(w, r, backTo(r), "success", "Variant deleted")
}

func parseProductForm(r *http.Request) (Product, error) {
	if err := r.ParseForm(); err != nil {
		return Product{}, errors.New("invalid form submission")
	}
	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil {
		return Product{}, errors.New("price must be a number")
	}
	p := Product{
		Slug:      strings.TrimSpace(r.PostFormValue("slug")),
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		NameAr:    strings.TrimSpace(r.PostFormValue("name_ar")),
		Price:     price,
		IsActive:  r.PostFormValue("is_active") == "on",
		IsLimited: r.PostFormValue("is_limited") == "on",
	}
	if raw := strings.TrimSpace(r.PostFormValue("sale_price")); raw != "" {
		sale, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Product{}, errors.New("sale price must be a number")
		}
		p.SalePrice = &sale
	}
	if raw := strings.TrimSpace(r.PostFormValue("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Product{}, errors.New("category is invalid")
		}
		p.CategoryID = &categoryID
	}
	return p, nil
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func backTo(r *http.Request) string {
	if ref := r.PostFormValue("return_to"); strings.HasPrefix(ref, "/") {
		return ref
	}
	return "/admin/products"
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	locale := i18n.ResolveLocale(r, sess)
	viewData := view.TemplateData{
		Title:       title,
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
	if status != http.StatusOK {
		w.WriteHeader(status)
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

package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/i18n"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
)

// Handler serves the checkout form, order placement and the payment
// provider's return redirect.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	cartService *cart.Service
	templates   *view.Engine
	csrf        *shared.CSRFManager
	validator   *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, cartService *cart.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		cartService: cartService,
		templates:   templates,
		csrf:        csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Form)
	r.Post("/", h.Place)
	r.Get("/return", h.PaymentReturn)
	r.Get("/done/{code}", h.Done)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	owner := cart.OwnerFromSession(sess)

	current, err := h.cartService.Get(r.Context(), owner)
	if err != nil {
		h.logger.Error("load cart for checkout", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(current.Lines) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	h.render(w, r, "pages/checkout.html", map[string]any{
		"Cart":   current,
		"Form":   CheckoutInput{},
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	owner := cart.OwnerFromSession(sess)

	input := CheckoutInput{
		Email:   r.PostFormValue("email"),
		Name:    r.PostFormValue("name"),
		Phone:   r.PostFormValue("phone"),
		Address: r.PostFormValue("address"),
		City:    r.PostFormValue("city"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(input); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(formErrors) > 0 {
		current, err := h.cartService.Get(r.Context(), owner)
		if err != nil {
			h.logger.Error("load cart for checkout", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		h.render(w, r, "pages/checkout.html", map[string]any{
			"Cart":   current,
			"Form":   input,
			"Errors": formErrors,
		}, http.StatusBadRequest)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), owner, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
		case errors.Is(err, ErrInsufficientStock):
			h.redirectWithFlash(w, r, "/cart", "error", "Some items are no longer in stock")
		default:
			h.logger.Error("place order", slog.Any("error", err))
			http.Error(w, "Failed to place order", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/checkout/done/"+order.Code, http.StatusSeeOther)
}

// PaymentReturn handles the provider redirect after payment. Unknown
// orders 404; anything else lands on the result page.
func (h *Handler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("order")
	success := r.URL.Query().Get("status") == "success"

	if err := h.service.CompletePayment(r.Context(), code, success); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("complete payment", slog.Any("error", err), slog.String("order", code))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/checkout/done/"+code, http.StatusSeeOther)
}

func (h *Handler) Done(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load order", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/checkout_result.html", map[string]any{
		"Order": order,
	}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	locale := i18n.ResolveLocale(r, sess)
	viewData := view.TemplateData{
		Title:       "Checkout",
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

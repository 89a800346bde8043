package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlaswear/atlaswear/internal/cart"
	"github.com/atlaswear/atlaswear/internal/shared"
	"github.com/atlaswear/atlaswear/internal/view"
)

// CartMerger folds the guest cart into the user's cart after login.
type CartMerger interface {
	MergeGuestCart(ctx context.Context, guestID string, userID int64) (cart.MergeResult, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	merger         CartMerger
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, merger CartMerger, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		merger:         merger,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerForm struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=2"`
	Password string `validate:"required,min=8"`
}

type formPageData struct {
	Form   any
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "pages/login.html", formPageData{Form: loginForm{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(formErrors) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = "Invalid email or password"
		} else {
			h.finishLogin(w, r, sess, user)
			return
		}
	}

	h.renderForm(w, r, "pages/login.html", formPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "pages/register.html", formPageData{Form: registerForm{}}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := registerForm{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			formErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(formErrors) == 0 {
		user, err := h.service.Register(r.Context(), form.Email, form.Name, form.Password)
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				formErrors["Email"] = "This email is already registered"
			} else {
				h.logger.Error("register user", slog.Any("error", err))
				formErrors["general"] = "Could not create account"
			}
		} else {
			h.finishLogin(w, r, sess, user)
			return
		}
	}

	h.renderForm(w, r, "pages/register.html", formPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

// finishLogin attaches the user to the session and reconciles the cart
// the visitor built while browsing as a guest. The guest identity is
// captured before SetUser because it is the session ID itself.
func (h *Handler) finishLogin(w http.ResponseWriter, r *http.Request, sess *shared.Session, user *User) {
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	guestID := sess.GuestID()
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})

	if h.merger != nil {
		result, err := h.merger.MergeGuestCart(r.Context(), guestID, user.ID)
		if err != nil {
			// The cart stays split but the login itself succeeded; the
			// next login attempt will retry the merge.
			h.logger.Error("merge guest cart", slog.Any("error", err), slog.Int64("user_id", user.ID))
		} else if len(result.Skipped) > 0 {
			sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Some items in your cart are no longer available"})
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, template string, data formPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Account",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render auth form", slog.Any("error", err), slog.String("template", template))
	}
}

// Package admin hosts the back-office CRUD screens.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlaswear/atlaswear/internal/shared"
)

// UserDirectory looks up whether an account may use the back office.
type UserDirectory interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Middleware guards admin routes.
type Middleware struct {
	Users  UserDirectory
	Logger *slog.Logger
}

// RequireAdmin rejects requests from anonymous or non-admin sessions.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		isAdmin, err := m.Users.IsAdmin(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("admin check", slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

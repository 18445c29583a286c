package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gi8lino/ricefwboard/internal/auth"
	"github.com/gi8lino/ricefwboard/internal/store"
	"github.com/gi8lino/ricefwboard/internal/utils"
)

// Accounts is the account service used by the handlers.
type Accounts interface {
	Signup(ctx context.Context, in auth.SignupInput) (store.User, error)
	Login(ctx context.Context, username, password string) (store.User, error)
	Logout(ctx context.Context, token string) error
	UserByToken(ctx context.Context, token string) (store.User, error)
	RememberDomain(ctx context.Context, u store.User, domain string) error
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// RequireSession rejects requests without a valid bearer session token.
// A missing or malformed header is a 400, an unknown or expired token a 401.
func RequireSession(accounts Accounts, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusBadRequest, "Invalid authorization header")
				return
			}

			user, err := accounts.UserByToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					logger.Error("session lookup failed", "token", utils.MaskToken(token), "error", err)
					writeAuthError(w, http.StatusInternalServerError, "An error occurred")
					return
				}
				logger.Debug("rejected session", "token", utils.MaskToken(token), "path", r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionUser returns the user stored by RequireSession.
func sessionUser(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userKey).(store.User)
	return u, ok
}

// sessionToken returns the token stored by RequireSession.
func sessionToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

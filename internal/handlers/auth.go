package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gi8lino/ricefwboard/internal/auth"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/store"
)

// Signup registers a user and returns a session token.
func Signup(accounts Accounts, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SignupRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeAuthError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := accounts.Signup(r.Context(), auth.SignupInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			JiraToken:       req.Token,
			AtlassianDomain: req.AtlassianDomain,
		})
		if err != nil {
			var inErr *auth.InputError
			switch {
			case errors.As(err, &inErr):
				writeAuthError(w, http.StatusBadRequest, inErr.Message)
			case errors.Is(err, auth.ErrUsernameTaken):
				writeAuthError(w, http.StatusBadRequest, "Username already exists")
			case errors.Is(err, auth.ErrEmailTaken):
				writeAuthError(w, http.StatusBadRequest, "Email already exists")
			default:
				logger.Error("signup failed", "username", req.Username, "error", err)
				writeAuthError(w, http.StatusBadRequest, "An error occurred during signup")
			}
			return
		}

		logger.Info("user registered", "username", user.Username)
		writeJSON(w, http.StatusOK, authResponse("User registered successfully", user))
	}
}

// Login exchanges credentials for a new session token.
func Login(accounts Accounts, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeAuthError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := accounts.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				logger.Debug("login rejected", "username", req.Username)
				writeAuthError(w, http.StatusUnauthorized, "Invalid username or password")
				return
			}
			logger.Error("login failed", "username", req.Username, "error", err)
			writeAuthError(w, http.StatusUnauthorized, "An error occurred during login")
			return
		}

		logger.Info("user logged in", "username", user.Username)
		writeJSON(w, http.StatusOK, authResponse("Login successful", user))
	}
}

// Logout invalidates the bearer token. It checks the header itself so that
// an unknown token is a 400, not a 401.
func Logout(accounts Accounts, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusBadRequest, "Invalid authorization header")
			return
		}

		if err := accounts.Logout(r.Context(), token); err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeAuthError(w, http.StatusBadRequest, "Invalid token")
				return
			}
			logger.Error("logout failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "An error occurred during logout")
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{Success: true, Message: "Logout successful"})
	}
}

// Validate confirms the session of RequireSession and echoes the user data.
func Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := sessionUser(r.Context())
		resp := authResponse("Token is valid", user)
		resp.Token = sessionToken(r.Context())
		writeJSON(w, http.StatusOK, resp)
	}
}

// Me returns the profile of the session user.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := sessionUser(r.Context())
		writeJSON(w, http.StatusOK, models.Profile{
			Username:        user.Username,
			Email:           user.Email,
			AtlassianDomain: user.AtlassianDomain,
			HasJiraToken:    user.JiraToken != "",
			LastLogin:       formatTime(user.LastLogin),
			CreatedAt:       formatTime(user.CreatedAt),
		})
	}
}

func authResponse(msg string, u store.User) models.AuthResponse {
	return models.AuthResponse{
		Success:   true,
		Message:   msg,
		Username:  u.Username,
		Email:     u.Email,
		Token:     u.SessionToken,
		JiraToken: u.JiraToken,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package web

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/edgard/bookmarkbot/internal/database"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "session_id"

type ctxKey int

const userIDKey ctxKey = iota

// UserIDFromContext returns the authenticated user set by RequireSession.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// RequireSession rejects requests without a live session cookie and stores
// the session's user id in the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, err := h.store.SessionUser(r.Context(), c.Value)
		if errors.Is(err, database.ErrNotFound) {
			writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Login checks credentials posted as a form or JSON and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSON(r) {
		if err := decodeBody(w, r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, bodyErrorMessage(err))
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.store.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, database.ErrInvalidCredentials) {
		h.logger.WarnContext(r.Context(), "Failed login", "username", req.Username, "remote_ip", r.RemoteAddr)
		writeErrorMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.store.CreateSession(r.Context(), user.ID, h.cfg.SessionTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.InfoContext(r.Context(), "User logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "username": user.Username})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if err := h.store.DeleteSession(r.Context(), c.Value); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

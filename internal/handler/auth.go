package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mpavliv/respectled/internal/auth"
	"github.com/mpavliv/respectled/internal/middleware"
	"github.com/mpavliv/respectled/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, logger: logger}
}

// loginUser is the public shape shown on the login picker: no balance, no
// role-gated data, definitely no PIN hash.
type loginUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AvatarEmoji string `json:"avatar_emoji"`
}

// LoginUsers handles GET /api/auth/users: the user picker on the login
// screen. It is the only unauthenticated listing in the app.
func (h *AuthHandler) LoginUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list users"})
		return
	}

	out := make([]loginUser, 0, len(users))
	for _, u := range users {
		out = append(out, loginUser{ID: u.ID, Name: u.Name, AvatarEmoji: u.AvatarEmoji})
	}
	writeJSON(w, http.StatusOK, out)
}

type loginRequest struct {
	UserID int64  `json:"user_id"`
	PIN    string `json:"pin"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == 0 || !isDigits(req.PIN) || req.PIN == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and numeric pin are required"})
		return
	}

	user, err := h.users.GetByID(req.UserID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load user"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)) != nil {
		// Same answer for unknown user and wrong PIN.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	h.logger.Info("login", "user", user.ID)
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load user"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

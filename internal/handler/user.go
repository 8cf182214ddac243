package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mpavliv/respectled/internal/ledger"
	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
	ws "github.com/mpavliv/respectled/internal/websocket"
)

type UserHandler struct {
	users  *store.UserStore
	svc    *ledger.Service
	hub    *ws.Hub
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, svc *ledger.Service, hub *ws.Hub, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, svc: svc, hub: hub, logger: logger}
}

type createUserRequest struct {
	Name        string `json:"name"`
	PIN         string `json:"pin"`
	AvatarEmoji string `json:"avatar_emoji"`
	Role        string `json:"role"`
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list users"})
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(req.PIN) < 4 || len(req.PIN) > 8 || !isDigits(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PIN must be 4-8 digits"})
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be admin or member"})
		return
	}
	if req.AvatarEmoji == "" {
		req.AvatarEmoji = "🙂"
	}

	exists, err := h.users.NameExists(req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
		return
	}
	if exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "name already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash PIN", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
		return
	}

	user, err := h.users.Create(req.Name, string(hash), req.AvatarEmoji, req.Role)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityUser, "created", user.ID, nil))
	writeJSON(w, http.StatusCreated, user)
}

// Recalculate handles POST /api/admin/users/{id}/recalculate: replays the
// user's full ledger history and stores the result.
func (h *UserHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	balance, err := h.svc.Recalculate(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.BalanceChanged(id, balance)
	writeJSON(w, http.StatusOK, map[string]any{"user_id": id, "balance": balance})
}

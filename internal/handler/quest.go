package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mpavliv/respectled/internal/auth"
	"github.com/mpavliv/respectled/internal/ledger"
	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
	ws "github.com/mpavliv/respectled/internal/websocket"
)

type QuestHandler struct {
	svc    *ledger.Service
	quests *store.QuestStore
	users  *store.UserStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewQuestHandler(svc *ledger.Service, qs *store.QuestStore, us *store.UserStore, hub *ws.Hub, logger *slog.Logger) *QuestHandler {
	return &QuestHandler{svc: svc, quests: qs, users: us, hub: hub, logger: logger}
}

type questRequest struct {
	Title  string `json:"title"`
	Reward int    `json:"reward"`
}

// List handles GET /api/quests: active quests annotated with the caller's
// own completion status.
func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	quests, err := h.quests.ListActiveWithStatus(userID)
	if err != nil {
		h.logger.Error("list quests", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list quests"})
		return
	}
	if quests == nil {
		quests = []model.QuestWithStatus{}
	}
	writeJSON(w, http.StatusOK, quests)
}

// ListAll handles GET /api/admin/quests: every quest, active or not.
func (h *QuestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	quests, err := h.quests.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list quests"})
		return
	}
	if quests == nil {
		quests = []model.Quest{}
	}
	writeJSON(w, http.StatusOK, quests)
}

// Create handles POST /api/admin/quests.
func (h *QuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req questRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.Reward <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reward must be positive"})
		return
	}

	quest, err := h.quests.Create(req.Title, req.Reward)
	if err != nil {
		h.logger.Error("create quest", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create quest"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityQuest, "created", quest.ID, nil))
	writeJSON(w, http.StatusCreated, quest)
}

// SetActive handles PUT /api/admin/quests/{id}/active.
func (h *QuestHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	quest, err := h.quests.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get quest"})
		return
	}
	if quest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "quest not found"})
		return
	}

	if err := h.quests.SetActive(id, req.Active); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update quest"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityQuest, "updated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/quests/{id}. Completions cascade; the
// ledger keeps any rewards already paid out.
func (h *QuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	quest, err := h.quests.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get quest"})
		return
	}
	if quest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "quest not found"})
		return
	}

	if err := h.quests.Delete(id); err != nil {
		h.logger.Error("delete quest", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete quest"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityQuest, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /api/quests/{id}/submit.
func (h *QuestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	questID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	userID := auth.UserID(r.Context())
	completion, err := h.svc.SubmitQuest(questID, userID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityQuest, "submitted", questID, map[string]any{"user_id": userID}))
	writeJSON(w, http.StatusCreated, completion)
}

// Pending handles GET /api/admin/quests/pending: the review queue.
func (h *QuestHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.quests.ListPending()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list pending"})
		return
	}
	if pending == nil {
		pending = []model.CompletionDetail{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// Approve handles POST /api/admin/completions/{id}/approve.
func (h *QuestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.svc.ApproveQuest, "approved")
}

// Reject handles POST /api/admin/completions/{id}/reject.
func (h *QuestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.svc.RejectQuest, "rejected")
}

func (h *QuestHandler) review(w http.ResponseWriter, r *http.Request, fn func(completionID, adminID int64) (*model.QuestCompletion, error), action string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	adminID := auth.UserID(r.Context())
	completion, err := fn(id, adminID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityQuest, action, completion.QuestID, map[string]any{"user_id": completion.UserID}))
	if action == "approved" {
		if user, err := h.users.GetByID(completion.UserID); err == nil && user != nil {
			h.hub.BalanceChanged(user.ID, user.Balance)
		}
	}
	writeJSON(w, http.StatusOK, completion)
}

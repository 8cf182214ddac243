package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mpavliv/respectled/internal/auth"
	"github.com/mpavliv/respectled/internal/ledger"
	ws "github.com/mpavliv/respectled/internal/websocket"
)

// ActionHandler covers the admin's respect and disrespect grants.
type ActionHandler struct {
	svc    *ledger.Service
	hub    *ws.Hub
	logger *slog.Logger
}

func NewActionHandler(svc *ledger.Service, hub *ws.Hub, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{svc: svc, hub: hub, logger: logger}
}

type grantRequest struct {
	ToUserID    int64  `json:"to_user_id"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// Respect handles POST /api/admin/respect.
func (h *ActionHandler) Respect(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.svc.GiveRespect)
}

// Disrespect handles POST /api/admin/disrespect.
func (h *ActionHandler) Disrespect(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.svc.GiveDisrespect)
}

func (h *ActionHandler) grant(w http.ResponseWriter, r *http.Request, give func(adminID, toUserID int64, amount int, description string) (int, error)) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	adminID := auth.UserID(r.Context())
	balance, err := give(adminID, req.ToUserID, req.Amount, req.Description)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.BalanceChanged(req.ToUserID, balance)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": req.ToUserID,
		"balance": balance,
	})
}

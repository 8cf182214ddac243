package handler

import (
	"log/slog"
	"net/http"

	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

type DashboardHandler struct {
	users        *store.UserStore
	transactions *store.TransactionStore
	quests       *store.QuestStore
	shop         *store.ShopStore
	logger       *slog.Logger
}

func NewDashboardHandler(us *store.UserStore, ts *store.TransactionStore, qs *store.QuestStore, ss *store.ShopStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{users: us, transactions: ts, quests: qs, shop: ss, logger: logger}
}

// Leaderboard handles GET /api/leaderboard: members ranked by balance with
// their lifetime respect and disrespect counts.
func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	members, err := h.users.ListMembers()
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load leaderboard"})
		return
	}

	entries := make([]model.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		stats, err := h.transactions.StatsForUser(m.ID)
		if err != nil {
			h.logger.Error("user stats", "user_id", m.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load leaderboard"})
			return
		}
		entries = append(entries, model.LeaderboardEntry{User: m, Stats: stats})
	}
	writeJSON(w, http.StatusOK, entries)
}

// RecentActivity handles GET /api/activity: the latest ledger entries with
// party names resolved.
func (h *DashboardHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	recent, err := h.transactions.ListRecent(20)
	if err != nil {
		h.logger.Error("recent activity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load activity"})
		return
	}
	if recent == nil {
		recent = []model.TransactionDetail{}
	}
	writeJSON(w, http.StatusOK, recent)
}

// PendingCounts handles GET /api/admin/pending-counts: badge counts for the
// two review queues.
func (h *DashboardHandler) PendingCounts(w http.ResponseWriter, r *http.Request) {
	quests, err := h.quests.PendingCount()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count pending"})
		return
	}
	purchases, err := h.shop.PendingCount()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count pending"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"quests": quests, "purchases": purchases})
}

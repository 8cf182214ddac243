package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mpavliv/respectled/internal/backup"
	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, logger: logger}
}

// List handles GET /api/admin/backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "backups": []model.BackupRecord{}})
		return
	}

	records, err := h.backups.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if records == nil {
		records = []model.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "backups": records})
}

// RunNow handles POST /api/admin/backups: takes a snapshot immediately.
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "backups are not configured"})
		return
	}

	size, err := h.manager.Run(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"size_bytes": size})
}

// Download handles GET /api/admin/backups/{id}/download: streams the
// encrypted snapshot back to the admin.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "backups are not configured"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "backup_id", id, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "backup not found"})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=backup-%d.db.enc", id))
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream backup", "backup_id", id, "error", err)
	}
}

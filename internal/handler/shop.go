package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mpavliv/respectled/internal/auth"
	"github.com/mpavliv/respectled/internal/imagehost"
	"github.com/mpavliv/respectled/internal/ledger"
	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
	ws "github.com/mpavliv/respectled/internal/websocket"
)

// maxImageSize caps shop item image uploads at 5 MB.
const maxImageSize = 5 << 20

type ShopHandler struct {
	svc    *ledger.Service
	shop   *store.ShopStore
	users  *store.UserStore
	images *imagehost.Client
	hub    *ws.Hub
	logger *slog.Logger
}

func NewShopHandler(svc *ledger.Service, ss *store.ShopStore, us *store.UserStore, images *imagehost.Client, hub *ws.Hub, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{svc: svc, shop: ss, users: us, images: images, hub: hub, logger: logger}
}

// ListItems handles GET /api/shop/items.
func (h *ShopHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.ListItems()
	if err != nil {
		h.logger.Error("list shop items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []model.ShopItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /api/admin/shop/items. Accepts multipart form data
// with name, price, and an optional image that is pushed to the image host.
func (h *ShopHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form data"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	var price int
	if _, err := fmt.Sscanf(r.FormValue("price"), "%d", &price); err != nil || price <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a positive number"})
		return
	}

	var imageURL, imageID string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if !h.images.Configured() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image uploads are not configured"})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read image"})
			return
		}
		imageURL, imageID, err = h.images.Upload(header.Filename, data)
		if err != nil {
			h.logger.Error("upload item image", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "image upload failed"})
			return
		}
	}

	item, err := h.shop.CreateItem(name, price, imageURL, imageID)
	if err != nil {
		h.logger.Error("create shop item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityPurchase, "item_created", item.ID, nil))
	writeJSON(w, http.StatusCreated, item)
}

// DeleteItem handles DELETE /api/admin/shop/items/{id}. The hosted image is
// removed best-effort; purchases cascade while ledger entries stay.
func (h *ShopHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	item, err := h.shop.GetItemByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	if err := h.shop.DeleteItem(id); err != nil {
		h.logger.Error("delete shop item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}

	if item.ImageID != "" && h.images.Configured() {
		if err := h.images.Delete(item.ImageID); err != nil {
			h.logger.Warn("delete hosted image", "image_id", item.ImageID, "error", err)
		}
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityPurchase, "item_deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Buy handles POST /api/shop/items/{id}/buy.
func (h *ShopHandler) Buy(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	userID := auth.UserID(r.Context())
	purchase, err := h.svc.Buy(itemID, userID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityPurchase, "created", purchase.ID, map[string]any{"user_id": userID}))
	h.broadcastBalance(userID)
	writeJSON(w, http.StatusCreated, purchase)
}

// MyPurchases handles GET /api/shop/purchases: the caller's own history.
func (h *ShopHandler) MyPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.shop.ListPurchasesByUser(auth.UserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list purchases"})
		return
	}
	if purchases == nil {
		purchases = []model.ShopPurchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

// Pending handles GET /api/admin/shop/pending: the purchase review queue.
func (h *ShopHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.shop.ListPending()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list pending"})
		return
	}
	if pending == nil {
		pending = []model.PurchaseDetail{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// Approve handles POST /api/admin/purchases/{id}/approve.
func (h *ShopHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.svc.ApprovePurchase, "approved")
}

// Reject handles POST /api/admin/purchases/{id}/reject. A rejection refunds
// the held debit, so the buyer's balance changes.
func (h *ShopHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.svc.RejectPurchase, "rejected")
}

func (h *ShopHandler) review(w http.ResponseWriter, r *http.Request, fn func(purchaseID, adminID int64) (*model.ShopPurchase, error), action string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	adminID := auth.UserID(r.Context())
	purchase, err := fn(id, adminID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityPurchase, action, purchase.ID, map[string]any{"user_id": purchase.UserID}))
	if action == "rejected" {
		h.broadcastBalance(purchase.UserID)
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (h *ShopHandler) broadcastBalance(userID int64) {
	if user, err := h.users.GetByID(userID); err == nil && user != nil {
		h.hub.BalanceChanged(user.ID, user.Balance)
	}
}

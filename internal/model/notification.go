package model

import "time"

// Notification kinds.
const (
	NotifShopPurchase  = "SHOP_PURCHASE"
	NotifQuestApproval = "QUEST_APPROVAL"
)

// Notification is an informational record addressed to a single admin.
// Read state is the only mutable field.
type Notification struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id"`
	ItemID    *int64    `json:"item_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

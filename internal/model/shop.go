package model

import "time"

type ShopItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	ImageID   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PurchaseStatus is the closed set of shop purchase states.
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "PENDING"
	PurchaseBought   PurchaseStatus = "BOUGHT"
	PurchaseRejected PurchaseStatus = "REJECTED"
)

// ShopPurchase is a user's claim on a shop item. The balance is debited
// optimistically when the purchase is created; DebitTxID references the
// debiting ledger entry so a rejection can insert the exact compensating
// credit without guessing.
type ShopPurchase struct {
	ID          int64          `json:"id"`
	ItemID      int64          `json:"item_id"`
	UserID      int64          `json:"user_id"`
	Status      PurchaseStatus `json:"status"`
	DebitTxID   *int64         `json:"debit_tx_id"`
	PurchasedAt time.Time      `json:"purchased_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at"`
	ReviewedBy  *int64         `json:"reviewed_by"`
}

// PurchaseDetail joins a pending purchase with item and buyer info for the
// admin review queue.
type PurchaseDetail struct {
	ShopPurchase
	ItemName  string `json:"item_name"`
	ItemPrice int    `json:"item_price"`
	ItemImage string `json:"item_image,omitempty"`
	UserName  string `json:"user_name"`
	UserEmoji string `json:"user_emoji"`
}

package model

import "time"

// TransactionKind is the closed set of ledger entry kinds. The store mirrors
// this set with a CHECK constraint as defense in depth.
type TransactionKind string

const (
	KindRespect      TransactionKind = "RESPECT"
	KindDisrespect   TransactionKind = "DISRESPECT"
	KindQuestReward  TransactionKind = "QUEST_REWARD"
	KindShopPurchase TransactionKind = "SHOP_PURCHASE"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindRespect, KindDisrespect, KindQuestReward, KindShopPurchase:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Entries are never updated or
// deleted; corrections are made by inserting compensating entries.
//
// Sign conventions: RESPECT and QUEST_REWARD carry a positive amount toward
// ToUserID. DISRESPECT carries a negative amount toward ToUserID.
// SHOP_PURCHASE is a negative amount from FromUserID (debit), a positive
// amount to ToUserID (refund), or zero (informational approval entry).
type Transaction struct {
	ID          int64           `json:"id"`
	FromUserID  *int64          `json:"from_user_id"`
	ToUserID    *int64          `json:"to_user_id"`
	Kind        TransactionKind `json:"kind"`
	Amount      int             `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionDetail is a ledger entry joined with the display names of the
// users on each side, for the activity feed.
type TransactionDetail struct {
	Transaction
	FromUserName  string `json:"from_user_name,omitempty"`
	FromUserEmoji string `json:"from_user_emoji,omitempty"`
	ToUserName    string `json:"to_user_name,omitempty"`
	ToUserEmoji   string `json:"to_user_emoji,omitempty"`
}

package ledger

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

// Buy creates a pending purchase with an optimistic debit: the buyer's
// balance drops immediately, before any admin has reviewed the request. The
// affordability check, debit, purchase row, and notification fan-out commit
// as one transaction, and the per-user lock keeps a burst of concurrent
// purchases from racing past the check on the same stale balance.
func (s *Service) Buy(itemID, userID int64) (*model.ShopPurchase, error) {
	item, err := s.shop.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	buyer, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrNotFound
	}
	if buyer.IsAdmin() {
		return nil, ErrForbidden
	}

	defer s.locks.acquire(userID).Unlock()

	var purchase *model.ShopPurchase
	err = s.inTx(func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)

		// Re-read under the lock; the cached balance outside it may be stale.
		current, err := users.GetByID(userID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		if current.Balance < item.Price {
			return ErrInsufficientBalance
		}

		transactions := s.transactions.WithTx(tx)
		debit, err := transactions.Insert(&userID, nil, model.KindShopPurchase, -item.Price,
			fmt.Sprintf("Pending purchase: %s", item.Name))
		if err != nil {
			return err
		}

		purchase, err = s.shop.WithTx(tx).CreatePurchase(itemID, userID, debit.ID)
		if err != nil {
			return err
		}

		if _, err := recalculate(users, transactions, current); err != nil {
			return err
		}

		admins, err := users.ListAdmins()
		if err != nil {
			return err
		}
		notifications := s.notifications.WithTx(tx)
		message := fmt.Sprintf("%s (%s) wants to buy %q for %d", current.Name, current.AvatarEmoji, item.Name, item.Price)
		for _, admin := range admins {
			if _, err := notifications.Create(model.NotifShopPurchase, admin.ID, &item.ID, message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase submitted",
		"purchase", purchase.ID,
		"item", itemID,
		"user", userID,
		"price", item.Price,
	)

	if s.notifier != nil {
		s.notifier.NotifyAdmins("Purchase request",
			fmt.Sprintf("%s wants to buy %q for %d", buyer.Name, item.Name, item.Price))
	}
	return purchase, nil
}

// ApprovePurchase marks a pending purchase BOUGHT and logs a zero-amount
// informational entry. The balance already reflects the original debit, so
// no recalculation is needed.
func (s *Service) ApprovePurchase(purchaseID, adminID int64) (*model.ShopPurchase, error) {
	admin, purchase, item, err := s.purchaseForReview(purchaseID, adminID)
	if err != nil {
		return nil, err
	}

	buyer, err := s.users.GetByID(purchase.UserID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrNotFound
	}

	err = s.inTx(func(tx *sql.Tx) error {
		ok, err := s.shop.WithTx(tx).ReviewPurchase(purchaseID, model.PurchaseBought, adminID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}

		description := fmt.Sprintf("%s bought %q for %s", admin.Name, item.Name, buyer.Name)
		_, err = s.transactions.WithTx(tx).Insert(&adminID, &purchase.UserID, model.KindShopPurchase, 0, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase approved", "purchase", purchaseID, "admin", adminID)
	return s.shop.GetPurchaseByID(purchaseID)
}

// RejectPurchase marks a pending purchase REJECTED and inserts the
// compensating credit found through the purchase's debit reference,
// restoring the buyer's balance. A rejected purchase is terminal; the member
// buys again to retry.
func (s *Service) RejectPurchase(purchaseID, adminID int64) (*model.ShopPurchase, error) {
	_, purchase, item, err := s.purchaseForReview(purchaseID, adminID)
	if err != nil {
		return nil, err
	}

	buyer, err := s.users.GetByID(purchase.UserID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrNotFound
	}

	defer s.locks.acquire(purchase.UserID).Unlock()

	err = s.inTx(func(tx *sql.Tx) error {
		ok, err := s.shop.WithTx(tx).ReviewPurchase(purchaseID, model.PurchaseRejected, adminID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}

		transactions := s.transactions.WithTx(tx)

		var debit *model.Transaction
		if purchase.DebitTxID != nil {
			debit, err = transactions.GetByID(*purchase.DebitTxID)
			if err != nil {
				return err
			}
		}
		if debit == nil {
			// The rejection still stands, but the buyer gets no refund. This
			// should be unreachable with the debit reference in place; report
			// it loudly rather than swallowing it.
			s.logger.Warn("purchase rejected without a matching debit, no refund issued",
				"purchase", purchaseID,
				"user", purchase.UserID,
			)
			return nil
		}

		refund := -debit.Amount
		description := fmt.Sprintf("Refund: %s (rejected)", item.Name)
		if _, err := transactions.Insert(nil, &purchase.UserID, model.KindShopPurchase, refund, description); err != nil {
			return err
		}

		_, err = recalculate(s.users.WithTx(tx), transactions, buyer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase rejected", "purchase", purchaseID, "admin", adminID)
	return s.shop.GetPurchaseByID(purchaseID)
}

// purchaseForReview loads and validates the actors of a purchase review.
func (s *Service) purchaseForReview(purchaseID, adminID int64) (*model.User, *model.ShopPurchase, *model.ShopItem, error) {
	admin, err := s.users.GetByID(adminID)
	if err != nil {
		return nil, nil, nil, err
	}
	if admin == nil || !admin.IsAdmin() {
		return nil, nil, nil, ErrForbidden
	}

	purchase, err := s.shop.GetPurchaseByID(purchaseID)
	if err != nil {
		return nil, nil, nil, err
	}
	if purchase == nil {
		return nil, nil, nil, ErrNotFound
	}
	if purchase.Status != model.PurchasePending {
		return nil, nil, nil, ErrInvalidState
	}

	item, err := s.shop.GetItemByID(purchase.ItemID)
	if err != nil {
		return nil, nil, nil, err
	}
	if item == nil {
		return nil, nil, nil, ErrNotFound
	}

	return admin, purchase, item, nil
}

package ledger

import (
	"database/sql"

	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

// recalculate recomputes a user's balance from the full transaction history
// and persists it. It never patches incrementally: a full recompute self-heals
// any drift on the next call, which is the point of the design.
//
// Balance = (RESPECT + QUEST_REWARD addressed to user)
//         − (|DISRESPECT| addressed to user)
//         − (|SHOP_PURCHASE| originating from user)
//         + (SHOP_PURCHASE addressed to user, i.e. refund credits).
//
// Debits are summed over from_user only, so a refund never shrinks the debit
// sum; it comes back on the credit side. Admins are not economic participants
// and are pinned to zero.
func recalculate(users *store.UserStore, transactions *store.TransactionStore, user *model.User) (int, error) {
	if user.IsAdmin() {
		if user.Balance != 0 {
			if err := users.SetBalance(user.ID, 0); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	credits, err := transactions.SumCredits(user.ID)
	if err != nil {
		return 0, err
	}
	disrespects, err := transactions.SumDisrespects(user.ID)
	if err != nil {
		return 0, err
	}
	debits, err := transactions.SumPurchaseDebits(user.ID)
	if err != nil {
		return 0, err
	}
	refunds, err := transactions.SumRefunds(user.ID)
	if err != nil {
		return 0, err
	}

	balance := credits - disrespects - debits + refunds
	if err := users.SetBalance(user.ID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Recalculate re-derives one user's balance from history.
func (s *Service) Recalculate(userID int64) (int, error) {
	defer s.locks.acquire(userID).Unlock()

	var balance int
	err := s.inTx(func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		user, err := users.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		balance, err = recalculate(users, s.transactions.WithTx(tx), user)
		return err
	})
	return balance, err
}

// RecalculateAll replays the ledger for every member. Run at startup so any
// accumulated drift is repaired before the first request is served.
func (s *Service) RecalculateAll() error {
	members, err := s.users.ListMembers()
	if err != nil {
		return err
	}
	for _, m := range members {
		if _, err := s.Recalculate(m.ID); err != nil {
			return err
		}
	}
	return nil
}

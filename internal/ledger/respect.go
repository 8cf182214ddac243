package ledger

import (
	"database/sql"

	"github.com/mpavliv/respectled/internal/model"
)

// GiveRespect records a respect grant from an admin to a member and
// recalculates the member's balance. Returns the new balance.
func (s *Service) GiveRespect(adminID, toUserID int64, amount int, description string) (int, error) {
	if description == "" {
		description = "Gave respect"
	}
	return s.grant(adminID, toUserID, model.KindRespect, amount, description)
}

// GiveDisrespect records a disrespect grant; the ledger entry carries a
// negative amount. Returns the new balance.
func (s *Service) GiveDisrespect(adminID, toUserID int64, amount int, description string) (int, error) {
	if description == "" {
		description = "Gave disrespect"
	}
	return s.grant(adminID, toUserID, model.KindDisrespect, amount, description)
}

func (s *Service) grant(adminID, toUserID int64, kind model.TransactionKind, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidInput
	}
	if adminID == toUserID {
		return 0, ErrForbidden
	}

	admin, err := s.users.GetByID(adminID)
	if err != nil {
		return 0, err
	}
	if admin == nil || !admin.IsAdmin() {
		return 0, ErrForbidden
	}

	target, err := s.users.GetByID(toUserID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, ErrNotFound
	}
	if target.IsAdmin() {
		return 0, ErrForbidden
	}

	signed := amount
	if kind == model.KindDisrespect {
		signed = -amount
	}

	defer s.locks.acquire(toUserID).Unlock()

	var balance int
	err = s.inTx(func(tx *sql.Tx) error {
		transactions := s.transactions.WithTx(tx)
		if _, err := transactions.Insert(&adminID, &toUserID, kind, signed, description); err != nil {
			return err
		}
		balance, err = recalculate(s.users.WithTx(tx), transactions, target)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("grant recorded",
		"kind", string(kind),
		"from", adminID,
		"to", toUserID,
		"amount", signed,
		"balance", balance,
	)
	return balance, nil
}

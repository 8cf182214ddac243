// Package ledger implements the balance/ledger consistency engine: respect
// grants, quest and purchase approval workflows, and the recompute-from-
// history balance rule that keeps displayed balances honest.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mpavliv/respectled/internal/store"
)

// Notifier delivers out-of-band notice of a pending purchase to admins.
// Implementations are best-effort; a delivery failure never fails the
// purchase.
type Notifier interface {
	NotifyAdmins(title, body string)
}

// Service owns every mutation path that touches the transaction log or a
// cached balance. Multi-write operations run inside a single database
// transaction, and balance-affecting operations are serialized per user.
type Service struct {
	db            *sql.DB
	users         *store.UserStore
	transactions  *store.TransactionStore
	quests        *store.QuestStore
	shop          *store.ShopStore
	notifications *store.NotificationStore
	locks         *userLocks
	notifier      Notifier
	logger        *slog.Logger
}

// New creates a ledger service. notifier may be nil.
func New(db *sql.DB, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		db:            db,
		users:         store.NewUserStore(db),
		transactions:  store.NewTransactionStore(db),
		quests:        store.NewQuestStore(db),
		shop:          store.NewShopStore(db),
		notifications: store.NewNotificationStore(db),
		locks:         newUserLocks(),
		notifier:      notifier,
		logger:        logger,
	}
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Service) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

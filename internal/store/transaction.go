package store

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// WithTx returns a TransactionStore bound to the given transaction.
func (s *TransactionStore) WithTx(tx *sql.Tx) *TransactionStore {
	return &TransactionStore{db: tx}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	var fromID, toID sql.NullInt64

	err := scanner.Scan(&t.ID, &fromID, &toID, &t.Kind, &t.Amount, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if fromID.Valid {
		t.FromUserID = &fromID.Int64
	}
	if toID.Valid {
		t.ToUserID = &toID.Int64
	}
	return &t, nil
}

const transactionCols = `id, from_user_id, to_user_id, kind, amount, description, created_at`

// Insert appends a ledger entry. There is deliberately no update or delete:
// corrections are compensating inserts.
func (s *TransactionStore) Insert(fromUserID, toUserID *int64, kind model.TransactionKind, amount int, description string) (*model.Transaction, error) {
	var from, to sql.NullInt64
	if fromUserID != nil {
		from = sql.NullInt64{Int64: *fromUserID, Valid: true}
	}
	if toUserID != nil {
		to = sql.NullInt64{Int64: *toUserID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO transactions (from_user_id, to_user_id, kind, amount, description) VALUES (?, ?, ?, ?, ?)`,
		from, to, string(kind), amount, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TransactionStore) GetByID(id int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// SumCredits returns the summed amounts of RESPECT and QUEST_REWARD entries
// addressed to the user.
func (s *TransactionStore) SumCredits(userID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE to_user_id = ? AND kind IN ('RESPECT', 'QUEST_REWARD')`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum credits: %w", err)
	}
	return int(sum.Int64), nil
}

// SumDisrespects returns the summed absolute amounts of DISRESPECT entries
// addressed to the user. DISRESPECT amounts are stored negative.
func (s *TransactionStore) SumDisrespects(userID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
		 WHERE to_user_id = ? AND kind = 'DISRESPECT'`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum disrespects: %w", err)
	}
	return int(sum.Int64), nil
}

// SumPurchaseDebits returns the summed absolute amounts of SHOP_PURCHASE
// entries originating from the user. Refund credits are addressed *to* the
// user, not from them, so they never land in this sum.
func (s *TransactionStore) SumPurchaseDebits(userID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
		 WHERE from_user_id = ? AND kind = 'SHOP_PURCHASE'`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum purchase debits: %w", err)
	}
	return int(sum.Int64), nil
}

// SumRefunds returns the summed amounts of SHOP_PURCHASE entries addressed to
// the user (compensating refund credits).
func (s *TransactionStore) SumRefunds(userID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE to_user_id = ? AND kind = 'SHOP_PURCHASE'`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return int(sum.Int64), nil
}

// StatsForUser returns how many respect and disrespect grants the user has
// received, for display next to their balance.
func (s *TransactionStore) StatsForUser(userID int64) (model.UserStats, error) {
	var stats model.UserStats
	err := s.db.QueryRow(
		`SELECT
		   COUNT(CASE WHEN kind = 'RESPECT' THEN 1 END),
		   COUNT(CASE WHEN kind = 'DISRESPECT' THEN 1 END)
		 FROM transactions WHERE to_user_id = ?`,
		userID,
	).Scan(&stats.Respects, &stats.Disrespects)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// CountForUser returns the number of ledger entries naming the user on
// either side.
func (s *TransactionStore) CountForUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE from_user_id = ? OR to_user_id = ?`,
		userID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// ListRecent returns the newest ledger entries joined with user display info.
func (s *TransactionStore) ListRecent(limit int) ([]model.TransactionDetail, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.from_user_id, t.to_user_id, t.kind, t.amount, t.description, t.created_at,
		        COALESCE(fu.name, ''), COALESCE(fu.avatar_emoji, ''),
		        COALESCE(tu.name, ''), COALESCE(tu.avatar_emoji, '')
		 FROM transactions t
		 LEFT JOIN users fu ON t.from_user_id = fu.id
		 LEFT JOIN users tu ON t.to_user_id = tu.id
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	var details []model.TransactionDetail
	for rows.Next() {
		var d model.TransactionDetail
		var fromID, toID sql.NullInt64
		err := rows.Scan(
			&d.ID, &fromID, &toID, &d.Kind, &d.Amount, &d.Description, &d.CreatedAt,
			&d.FromUserName, &d.FromUserEmoji, &d.ToUserName, &d.ToUserEmoji,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		if fromID.Valid {
			d.FromUserID = &fromID.Int64
		}
		if toID.Valid {
			d.ToUserID = &toID.Int64
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

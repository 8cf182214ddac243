package store

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

type ShopStore struct {
	db DB
}

func NewShopStore(db DB) *ShopStore {
	return &ShopStore{db: db}
}

// WithTx returns a ShopStore bound to the given transaction.
func (s *ShopStore) WithTx(tx *sql.Tx) *ShopStore {
	return &ShopStore{db: tx}
}

// --- Item methods ---

func scanItem(scanner interface{ Scan(...any) error }) (*model.ShopItem, error) {
	var i model.ShopItem
	err := scanner.Scan(&i.ID, &i.Name, &i.Price, &i.ImageURL, &i.ImageID, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const itemCols = `id, name, price, image_url, image_id, created_at`

func (s *ShopStore) CreateItem(name string, price int, imageURL, imageID string) (*model.ShopItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO shop_items (name, price, image_url, image_id) VALUES (?, ?, ?, ?)`,
		name, price, imageURL, imageID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shop item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItemByID(id)
}

func (s *ShopStore) GetItemByID(id int64) (*model.ShopItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM shop_items WHERE id = ?`, id)
	i, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shop item: %w", err)
	}
	return i, nil
}

// ListItems returns all items, cheapest first.
func (s *ShopStore) ListItems() ([]model.ShopItem, error) {
	rows, err := s.db.Query(`SELECT ` + itemCols + ` FROM shop_items ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	defer rows.Close()

	var items []model.ShopItem
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop item: %w", err)
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// DeleteItem removes an item; its purchases cascade. Ledger entries are
// untouched, so balances stay correct.
func (s *ShopStore) DeleteItem(id int64) error {
	_, err := s.db.Exec(`DELETE FROM shop_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shop item: %w", err)
	}
	return nil
}

// --- Purchase methods ---

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.ShopPurchase, error) {
	var p model.ShopPurchase
	var debitTxID, reviewedBy sql.NullInt64
	var reviewedAt sql.NullTime

	err := scanner.Scan(&p.ID, &p.ItemID, &p.UserID, &p.Status, &debitTxID, &p.PurchasedAt, &reviewedAt, &reviewedBy)
	if err != nil {
		return nil, err
	}

	if debitTxID.Valid {
		p.DebitTxID = &debitTxID.Int64
	}
	if reviewedAt.Valid {
		p.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		p.ReviewedBy = &reviewedBy.Int64
	}
	return &p, nil
}

const purchaseCols = `id, item_id, user_id, status, debit_tx_id, purchased_at, reviewed_at, reviewed_by`

// CreatePurchase inserts a PENDING purchase linked to its debiting ledger
// entry.
func (s *ShopStore) CreatePurchase(itemID, userID, debitTxID int64) (*model.ShopPurchase, error) {
	result, err := s.db.Exec(
		`INSERT INTO shop_purchases (item_id, user_id, debit_tx_id) VALUES (?, ?, ?)`,
		itemID, userID, debitTxID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetPurchaseByID(id)
}

func (s *ShopStore) GetPurchaseByID(id int64) (*model.ShopPurchase, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM shop_purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ReviewPurchase moves a PENDING purchase to BOUGHT or REJECTED, recording
// the reviewer. Returns false if the row was not PENDING.
func (s *ShopStore) ReviewPurchase(id int64, status model.PurchaseStatus, adminID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE shop_purchases
		 SET status = ?, reviewed_at = CURRENT_TIMESTAMP, reviewed_by = ?
		 WHERE id = ? AND status = 'PENDING'`,
		string(status), adminID, id,
	)
	if err != nil {
		return false, fmt.Errorf("review purchase: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListPurchasesByUser returns a user's purchases, newest first.
func (s *ShopStore) ListPurchasesByUser(userID int64) ([]model.ShopPurchase, error) {
	rows, err := s.db.Query(
		`SELECT `+purchaseCols+` FROM shop_purchases WHERE user_id = ? ORDER BY purchased_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases by user: %w", err)
	}
	defer rows.Close()

	var purchases []model.ShopPurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// ListPending returns pending purchases joined with item and buyer info,
// oldest first.
func (s *ShopStore) ListPending() ([]model.PurchaseDetail, error) {
	rows, err := s.db.Query(
		`SELECT sp.id, sp.item_id, sp.user_id, sp.status, sp.debit_tx_id, sp.purchased_at, sp.reviewed_at, sp.reviewed_by,
		        si.name, si.price, si.image_url, u.name, u.avatar_emoji
		 FROM shop_purchases sp
		 JOIN shop_items si ON sp.item_id = si.id
		 JOIN users u ON sp.user_id = u.id
		 WHERE sp.status = 'PENDING'
		 ORDER BY sp.purchased_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending purchases: %w", err)
	}
	defer rows.Close()

	var details []model.PurchaseDetail
	for rows.Next() {
		var d model.PurchaseDetail
		var debitTxID, reviewedBy sql.NullInt64
		var reviewedAt sql.NullTime
		err := rows.Scan(
			&d.ID, &d.ItemID, &d.UserID, &d.Status, &debitTxID, &d.PurchasedAt, &reviewedAt, &reviewedBy,
			&d.ItemName, &d.ItemPrice, &d.ItemImage, &d.UserName, &d.UserEmoji,
		)
		if err != nil {
			return nil, fmt.Errorf("scan purchase detail: %w", err)
		}
		if debitTxID.Valid {
			d.DebitTxID = &debitTxID.Int64
		}
		if reviewedAt.Valid {
			d.ReviewedAt = &reviewedAt.Time
		}
		if reviewedBy.Valid {
			d.ReviewedBy = &reviewedBy.Int64
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *ShopStore) PendingCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM shop_purchases WHERE status = 'PENDING'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending purchases: %w", err)
	}
	return count, nil
}

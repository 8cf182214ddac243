package store

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

type NotificationStore struct {
	db DB
}

func NewNotificationStore(db DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// WithTx returns a NotificationStore bound to the given transaction.
func (s *NotificationStore) WithTx(tx *sql.Tx) *NotificationStore {
	return &NotificationStore{db: tx}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var itemID sql.NullInt64
	var isRead int

	err := scanner.Scan(&n.ID, &n.Kind, &n.UserID, &itemID, &n.Message, &isRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if itemID.Valid {
		n.ItemID = &itemID.Int64
	}
	n.Read = isRead != 0
	return &n, nil
}

const notificationCols = `id, kind, user_id, item_id, message, is_read, created_at`

func (s *NotificationStore) Create(kind string, userID int64, itemID *int64, message string) (*model.Notification, error) {
	var item sql.NullInt64
	if itemID != nil {
		item = sql.NullInt64{Int64: *itemID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO notifications (kind, user_id, item_id, message) VALUES (?, ?, ?, ?)`,
		kind, userID, item, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListForUser returns the user's newest notifications.
func (s *NotificationStore) ListForUser(userID int64, limit int) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) UnreadCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification read, scoped to its owner. Returns
// false if the notification does not exist or belongs to someone else.
func (s *NotificationStore) MarkRead(id, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkAllRead marks all of the user's unread notifications read and returns
// how many were affected.
func (s *NotificationStore) MarkAllRead(userID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

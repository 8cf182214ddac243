package store

import (
	"database/sql"
	"fmt"

	"github.com/mpavliv/respectled/internal/model"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// WithTx returns a UserStore bound to the given transaction.
func (s *UserStore) WithTx(tx *sql.Tx) *UserStore {
	return &UserStore{db: tx}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Name, &u.PINHash, &u.AvatarEmoji, &u.Role, &u.Balance, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, name, pin_hash, avatar_emoji, role, balance, created_at`

func (s *UserStore) Create(name, pinHash, avatarEmoji, role string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, pin_hash, avatar_emoji, role) VALUES (?, ?, ?, ?)`,
		name, pinHash, avatarEmoji, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByName(name string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE name = ?`, name)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}

func (s *UserStore) NameExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check user name: %w", err)
	}
	return count > 0, nil
}

// List returns all users ordered by id.
func (s *UserStore) List() ([]model.User, error) {
	return s.list(`SELECT ` + userCols + ` FROM users ORDER BY id ASC`)
}

// ListMembers returns non-admin users ordered by balance descending.
func (s *UserStore) ListMembers() ([]model.User, error) {
	return s.list(`SELECT ` + userCols + ` FROM users WHERE role = 'member' ORDER BY balance DESC, id ASC`)
}

// ListAdmins returns admin users ordered by id.
func (s *UserStore) ListAdmins() ([]model.User, error) {
	return s.list(`SELECT ` + userCols + ` FROM users WHERE role = 'admin' ORDER BY id ASC`)
}

func (s *UserStore) list(query string) ([]model.User, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetBalance writes a recomputed balance. Only the ledger recalculator should
// call this; everything else treats balance as read-only.
func (s *UserStore) SetBalance(id int64, balance int) error {
	_, err := s.db.Exec(`UPDATE users SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

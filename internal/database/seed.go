package database

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

type seedUser struct {
	name    string
	pin     string
	avatar  string
	role    string
	respect int
}

var seedUsers = []seedUser{
	{name: "Bozhena", pin: "2606", avatar: "💣", role: model.RoleAdmin},
	{name: "Ulyana", pin: "1111", avatar: "🃏", role: model.RoleMember, respect: 3},
	{name: "Andrii", pin: "0606", avatar: "🍑", role: model.RoleMember, respect: 8},
	{name: "admin", pin: "1976", avatar: "👑", role: model.RoleAdmin},
}

// Seed creates the starter accounts and their initial respect grants, but
// only when the users table is empty, so existing data survives restarts.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	users := store.NewUserStore(db)
	transactions := store.NewTransactionStore(db)

	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.pin), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed pin: %w", err)
		}
		u, err := users.Create(su.name, string(hash), su.avatar, su.role)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.name, err)
		}
		for i := 0; i < su.respect; i++ {
			if _, err := transactions.Insert(nil, &u.ID, model.KindRespect, 1, "Initial respect"); err != nil {
				return fmt.Errorf("seed respect for %s: %w", su.name, err)
			}
		}
	}
	return nil
}

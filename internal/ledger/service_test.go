package ledger

import (
	"database/sql"
	"log/slog"
	"testing"

	"github.com/mpavliv/respectled/internal/database"
	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

func setupLedgerTest(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database; keep the
	// pool at one so concurrent service calls share the same data.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return New(db, nil, slog.New(slog.DiscardHandler)), db
}

func createUser(t *testing.T, db *sql.DB, name, role string) *model.User {
	t.Helper()
	u, err := store.NewUserStore(db).Create(name, "unused-hash", "🙂", role)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func createQuest(t *testing.T, db *sql.DB, title string, reward int) *model.Quest {
	t.Helper()
	q, err := store.NewQuestStore(db).Create(title, reward)
	if err != nil {
		t.Fatalf("create quest %s: %v", title, err)
	}
	return q
}

func createItem(t *testing.T, db *sql.DB, name string, price int) *model.ShopItem {
	t.Helper()
	item, err := store.NewShopStore(db).CreateItem(name, price, "", "")
	if err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return item
}

func userBalance(t *testing.T, db *sql.DB, id int64) int {
	t.Helper()
	u, err := store.NewUserStore(db).GetByID(id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil {
		t.Fatalf("user %d not found", id)
	}
	return u.Balance
}

func countTransactions(t *testing.T, db *sql.DB, where string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&n); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

package store_test

import (
	"testing"

	"github.com/mpavliv/respectled/internal/database"

	"github.com/mpavliv/respectled/internal/model"
	. "github.com/mpavliv/respectled/internal/store"
)

func setupShopTestDB(t *testing.T) (*ShopStore, *TransactionStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewShopStore(db), NewTransactionStore(db), NewUserStore(db)
}

func TestShopItemCRUD(t *testing.T) {
	ss, _, _ := setupShopTestDB(t)

	item, err := ss.CreateItem("Candy", 2, "https://img.example/candy.png", "img-1")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Name != "Candy" {
		t.Errorf("name = %q, want Candy", item.Name)
	}
	if item.Price != 2 {
		t.Errorf("price = %d, want 2", item.Price)
	}

	got, err := ss.GetItemByID(item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got == nil || got.ImageURL != "https://img.example/candy.png" {
		t.Errorf("got = %+v, want image url", got)
	}

	if err := ss.DeleteItem(item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	got, _ = ss.GetItemByID(item.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestShopListItemsOrderedByPrice(t *testing.T) {
	ss, _, _ := setupShopTestDB(t)

	ss.CreateItem("Bike", 50, "", "")
	ss.CreateItem("Candy", 2, "", "")
	ss.CreateItem("Movie", 10, "", "")

	items, err := ss.ListItems()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Name != "Candy" || items[2].Name != "Bike" {
		t.Errorf("order = [%s, %s, %s], want cheapest first", items[0].Name, items[1].Name, items[2].Name)
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	ss, ts, us := setupShopTestDB(t)
	admin, _ := us.Create("Boss", "hash", "💣", model.RoleAdmin)
	member, _ := us.Create("Kid", "hash", "🙂", model.RoleMember)
	item, _ := ss.CreateItem("Candy", 2, "", "")

	debit, _ := ts.Insert(&member.ID, nil, model.KindShopPurchase, -2, "debit")

	purchase, err := ss.CreatePurchase(item.ID, member.ID, debit.ID)
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if purchase.Status != model.PurchasePending {
		t.Errorf("status = %q, want PENDING", purchase.Status)
	}
	if purchase.DebitTxID == nil || *purchase.DebitTxID != debit.ID {
		t.Errorf("debit_tx_id = %v, want %d", purchase.DebitTxID, debit.ID)
	}

	ok, err := ss.ReviewPurchase(purchase.ID, model.PurchaseBought, admin.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !ok {
		t.Fatal("expected review to apply")
	}
	ok, _ = ss.ReviewPurchase(purchase.ID, model.PurchaseRejected, admin.ID)
	if ok {
		t.Error("second review should not apply")
	}

	got, _ := ss.GetPurchaseByID(purchase.ID)
	if got.Status != model.PurchaseBought {
		t.Errorf("status = %q, want BOUGHT", got.Status)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != admin.ID {
		t.Errorf("reviewed_by = %v, want %d", got.ReviewedBy, admin.ID)
	}
}

func TestListPendingPurchases(t *testing.T) {
	ss, ts, us := setupShopTestDB(t)
	admin, _ := us.Create("Boss", "hash", "💣", model.RoleAdmin)
	member, _ := us.Create("Kid", "hash", "🙂", model.RoleMember)
	candy, _ := ss.CreateItem("Candy", 2, "", "")
	movie, _ := ss.CreateItem("Movie", 10, "", "")

	d1, _ := ts.Insert(&member.ID, nil, model.KindShopPurchase, -2, "debit")
	d2, _ := ts.Insert(&member.ID, nil, model.KindShopPurchase, -10, "debit")

	p1, _ := ss.CreatePurchase(candy.ID, member.ID, d1.ID)
	ss.CreatePurchase(movie.ID, member.ID, d2.ID)
	ss.ReviewPurchase(p1.ID, model.PurchaseBought, admin.ID)

	pending, err := ss.ListPending()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].ItemName != "Movie" {
		t.Errorf("item = %q, want Movie", pending[0].ItemName)
	}
	if pending[0].ItemPrice != 10 {
		t.Errorf("price = %d, want 10", pending[0].ItemPrice)
	}
	if pending[0].UserName != "Kid" {
		t.Errorf("user = %q, want Kid", pending[0].UserName)
	}

	count, _ := ss.PendingCount()
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}
}

func TestListPurchasesByUser(t *testing.T) {
	ss, ts, us := setupShopTestDB(t)
	alice, _ := us.Create("Alice", "hash", "🅰️", model.RoleMember)
	bob, _ := us.Create("Bob", "hash", "🅱️", model.RoleMember)
	item, _ := ss.CreateItem("Candy", 2, "", "")

	d1, _ := ts.Insert(&alice.ID, nil, model.KindShopPurchase, -2, "debit")
	d2, _ := ts.Insert(&bob.ID, nil, model.KindShopPurchase, -2, "debit")
	ss.CreatePurchase(item.ID, alice.ID, d1.ID)
	ss.CreatePurchase(item.ID, bob.ID, d2.ID)

	purchases, err := ss.ListPurchasesByUser(alice.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(purchases) != 1 {
		t.Fatalf("purchases = %d, want 1", len(purchases))
	}
	if purchases[0].UserID != alice.ID {
		t.Errorf("user_id = %d, want %d", purchases[0].UserID, alice.ID)
	}
}

func TestDeleteItemCascadesPurchasesNotLedger(t *testing.T) {
	ss, ts, us := setupShopTestDB(t)
	member, _ := us.Create("Kid", "hash", "🙂", model.RoleMember)
	item, _ := ss.CreateItem("Candy", 2, "", "")

	debit, _ := ts.Insert(&member.ID, nil, model.KindShopPurchase, -2, "debit")
	purchase, _ := ss.CreatePurchase(item.ID, member.ID, debit.ID)

	if err := ss.DeleteItem(item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	got, _ := ss.GetPurchaseByID(purchase.ID)
	if got != nil {
		t.Error("expected purchase to cascade with item")
	}

	// The debit stays in the ledger: history is immutable.
	tx, err := ts.GetByID(debit.ID)
	if err != nil {
		t.Fatalf("get debit: %v", err)
	}
	if tx == nil {
		t.Error("expected ledger entry to survive item deletion")
	}
}

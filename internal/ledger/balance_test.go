package ledger

import (
	"errors"
	"testing"

	"github.com/mpavliv/respectled/internal/model"
	"github.com/mpavliv/respectled/internal/store"
)

func TestRecalculateFromFullHistory(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	// Write raw history, then clobber the stored balance to prove the
	// recalculation derives it from the log alone.
	transactions := store.NewTransactionStore(db)
	transactions.Insert(&admin.ID, &member.ID, model.KindRespect, 5, "respect")
	transactions.Insert(nil, &member.ID, model.KindQuestReward, 3, "quest")
	transactions.Insert(&admin.ID, &member.ID, model.KindDisrespect, -2, "disrespect")
	transactions.Insert(&member.ID, nil, model.KindShopPurchase, -4, "debit")
	transactions.Insert(nil, &member.ID, model.KindShopPurchase, 4, "refund")

	if err := store.NewUserStore(db).SetBalance(member.ID, 99); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	balance, err := svc.Recalculate(member.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	// 5 + 3 - 2 - 4 + 4
	if balance != 6 {
		t.Errorf("balance = %d, want 6", balance)
	}
	if got := userBalance(t, db, member.ID); got != 6 {
		t.Errorf("stored balance = %d, want 6", got)
	}
}

func TestRecalculateIgnoresZeroAmountEntries(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	transactions := store.NewTransactionStore(db)
	transactions.Insert(&admin.ID, &member.ID, model.KindRespect, 2, "respect")
	transactions.Insert(&admin.ID, &member.ID, model.KindShopPurchase, 0, "approval note")

	balance, err := svc.Recalculate(member.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if balance != 2 {
		t.Errorf("balance = %d, want 2", balance)
	}
}

func TestRecalculatePinsAdminsToZero(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)

	// Even with stray credits addressed to an admin the balance stays zero.
	store.NewTransactionStore(db).Insert(nil, &admin.ID, model.KindRespect, 7, "stray")
	store.NewUserStore(db).SetBalance(admin.ID, 7)

	balance, err := svc.Recalculate(admin.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if balance != 0 {
		t.Errorf("admin balance = %d, want 0", balance)
	}
	if got := userBalance(t, db, admin.ID); got != 0 {
		t.Errorf("stored admin balance = %d, want 0", got)
	}
}

func TestRecalculateUnknownUser(t *testing.T) {
	svc, _ := setupLedgerTest(t)

	if _, err := svc.Recalculate(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecalculateAll(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	alice := createUser(t, db, "Alice", model.RoleMember)
	bob := createUser(t, db, "Bob", model.RoleMember)

	transactions := store.NewTransactionStore(db)
	transactions.Insert(&admin.ID, &alice.ID, model.KindRespect, 4, "respect")
	transactions.Insert(&admin.ID, &bob.ID, model.KindRespect, 1, "respect")

	users := store.NewUserStore(db)
	users.SetBalance(alice.ID, 0)
	users.SetBalance(bob.ID, 50)

	if err := svc.RecalculateAll(); err != nil {
		t.Fatalf("recalculate all: %v", err)
	}
	if got := userBalance(t, db, alice.ID); got != 4 {
		t.Errorf("alice balance = %d, want 4", got)
	}
	if got := userBalance(t, db, bob.ID); got != 1 {
		t.Errorf("bob balance = %d, want 1", got)
	}
}

package ledger

import (
	"errors"
	"testing"

	"github.com/mpavliv/respectled/internal/model"
)

func TestGiveRespect(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	balance, err := svc.GiveRespect(admin.ID, member.ID, 3, "")
	if err != nil {
		t.Fatalf("give respect: %v", err)
	}
	if balance != 3 {
		t.Errorf("balance = %d, want 3", balance)
	}
	if got := userBalance(t, db, member.ID); got != 3 {
		t.Errorf("stored balance = %d, want 3", got)
	}
	if n := countTransactions(t, db, "kind = ? AND to_user_id = ?", model.KindRespect, member.ID); n != 1 {
		t.Errorf("respect transactions = %d, want 1", n)
	}
}

func TestGiveDisrespectStoresNegativeAmount(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	svc.GiveRespect(admin.ID, member.ID, 5, "")
	balance, err := svc.GiveDisrespect(admin.ID, member.ID, 2, "")
	if err != nil {
		t.Fatalf("give disrespect: %v", err)
	}
	if balance != 3 {
		t.Errorf("balance = %d, want 3", balance)
	}

	var amount int
	err = db.QueryRow("SELECT amount FROM transactions WHERE kind = ?", model.KindDisrespect).Scan(&amount)
	if err != nil {
		t.Fatalf("read disrespect row: %v", err)
	}
	if amount != -2 {
		t.Errorf("disrespect amount = %d, want -2", amount)
	}
}

func TestBalanceCanGoNegative(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	balance, err := svc.GiveDisrespect(admin.ID, member.ID, 4, "")
	if err != nil {
		t.Fatalf("give disrespect: %v", err)
	}
	if balance != -4 {
		t.Errorf("balance = %d, want -4", balance)
	}
}

func TestGrantValidation(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	other := createUser(t, db, "Boss2", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	if _, err := svc.GiveRespect(admin.ID, member.ID, 0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.GiveRespect(admin.ID, member.ID, -1, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative amount: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.GiveRespect(admin.ID, admin.ID, 1, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("self grant: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GiveRespect(member.ID, admin.ID, 1, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("member as actor: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GiveRespect(admin.ID, other.ID, 1, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("admin as target: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GiveRespect(admin.ID, 999, 1, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing target: err = %v, want ErrNotFound", err)
	}

	// No ledger rows from any of the rejected grants.
	if n := countTransactions(t, db, "1=1"); n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
}

func TestGrantDefaultDescriptions(t *testing.T) {
	svc, db := setupLedgerTest(t)
	admin := createUser(t, db, "Boss", model.RoleAdmin)
	member := createUser(t, db, "Kid", model.RoleMember)

	svc.GiveRespect(admin.ID, member.ID, 1, "")
	svc.GiveDisrespect(admin.ID, member.ID, 1, "")
	svc.GiveRespect(admin.ID, member.ID, 1, "Cleaned the kitchen")

	var desc string
	db.QueryRow("SELECT description FROM transactions WHERE kind = ? ORDER BY id LIMIT 1", model.KindRespect).Scan(&desc)
	if desc != "Gave respect" {
		t.Errorf("respect description = %q, want %q", desc, "Gave respect")
	}
	db.QueryRow("SELECT description FROM transactions WHERE kind = ?", model.KindDisrespect).Scan(&desc)
	if desc != "Gave disrespect" {
		t.Errorf("disrespect description = %q, want %q", desc, "Gave disrespect")
	}
	db.QueryRow("SELECT description FROM transactions ORDER BY id DESC LIMIT 1").Scan(&desc)
	if desc != "Cleaned the kitchen" {
		t.Errorf("custom description = %q, want %q", desc, "Cleaned the kitchen")
	}
}

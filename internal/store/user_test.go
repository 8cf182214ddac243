package store_test

import (
	"testing"

	"github.com/mpavliv/respectled/internal/database"

	"github.com/mpavliv/respectled/internal/model"
	. "github.com/mpavliv/respectled/internal/store"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	us := setupUserTestDB(t)

	user, err := us.Create("Ulyana", "hash", "🃏", model.RoleMember)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Name != "Ulyana" {
		t.Errorf("name = %q, want %q", user.Name, "Ulyana")
	}
	if user.Role != model.RoleMember {
		t.Errorf("role = %q, want %q", user.Role, model.RoleMember)
	}
	if user.Balance != 0 {
		t.Errorf("balance = %d, want 0", user.Balance)
	}

	got, err := us.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.AvatarEmoji != "🃏" {
		t.Errorf("avatar = %q, want %q", got.AvatarEmoji, "🃏")
	}

	byName, err := us.GetByName("Ulyana")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if byName == nil || byName.ID != user.ID {
		t.Errorf("get by name = %v, want id %d", byName, user.ID)
	}
}

func TestUserNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	got, err := us.GetByID(999)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got != nil {
		t.Error("expected nil for non-existent user")
	}

	got, err = us.GetByName("nobody")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got != nil {
		t.Error("expected nil for non-existent name")
	}
}

func TestUserNameExists(t *testing.T) {
	us := setupUserTestDB(t)
	us.Create("Andrii", "hash", "🍑", model.RoleMember)

	exists, err := us.NameExists("Andrii")
	if err != nil {
		t.Fatalf("name exists: %v", err)
	}
	if !exists {
		t.Error("expected Andrii to exist")
	}

	exists, _ = us.NameExists("Other")
	if exists {
		t.Error("expected Other to not exist")
	}
}

func TestUserNameUnique(t *testing.T) {
	us := setupUserTestDB(t)
	us.Create("Andrii", "hash", "🍑", model.RoleMember)

	if _, err := us.Create("Andrii", "hash2", "🍎", model.RoleMember); err == nil {
		t.Error("expected error on duplicate name")
	}
}

func TestListMembersOrderedByBalance(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("Boss", "hash", "💣", model.RoleAdmin)
	alice, _ := us.Create("Alice", "hash", "🅰️", model.RoleMember)
	bob, _ := us.Create("Bob", "hash", "🅱️", model.RoleMember)

	us.SetBalance(alice.ID, 3)
	us.SetBalance(bob.ID, 8)

	members, err := us.ListMembers()
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].Name != "Bob" || members[1].Name != "Alice" {
		t.Errorf("order = [%s, %s], want [Bob, Alice]", members[0].Name, members[1].Name)
	}

	admins, err := us.ListAdmins()
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Name != "Boss" {
		t.Errorf("admins = %v, want [Boss]", admins)
	}
}

func TestSetBalance(t *testing.T) {
	us := setupUserTestDB(t)
	user, _ := us.Create("Kid", "hash", "🙂", model.RoleMember)

	if err := us.SetBalance(user.ID, -4); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	got, _ := us.GetByID(user.ID)
	if got.Balance != -4 {
		t.Errorf("balance = %d, want -4", got.Balance)
	}
}

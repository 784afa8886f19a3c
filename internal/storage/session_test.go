package storage

import (
	"testing"

	"cfp/internal/keys"
	"cfp/internal/model"
)

func TestSessionLogin(t *testing.T) {
	s, _ := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleConsumer); err != nil {
		t.Fatalf("create account: %v", err)
	}

	ok, err := s.Session().Login("u1", "wrong")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if ok {
		t.Fatalf("bad password accepted")
	}
	// A failed login leaves the session untouched.
	if got := s.Session().Account(); got != "" {
		t.Fatalf("failed login set account %q", got)
	}

	ok, err = s.Session().Login("u1", "pw")
	if err != nil || !ok {
		t.Fatalf("login: (%v,%v)", ok, err)
	}
	sess := s.Session()
	if sess.Account() != "u1" {
		t.Fatalf("account %q", sess.Account())
	}
	if sess.Role() != model.RoleConsumer {
		t.Fatalf("role %q", sess.Role())
	}
	// No shops yet: the current shop falls back to the default namespace.
	if sess.CurrentShopID() != keys.DefaultShopID {
		t.Fatalf("current shop %q", sess.CurrentShopID())
	}

	if ok, err := s.Session().Login("ghost", "pw"); err != nil || ok {
		t.Fatalf("unknown account: (%v,%v)", ok, err)
	}
}

func TestSessionLogin_RestoresOwnedShop(t *testing.T) {
	s, _ := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	shop, err := s.CreateShop("Alpha", "u1")
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	s.Session().SoftLogout()

	ok, err := s.Session().Login("u1", "pw")
	if err != nil || !ok {
		t.Fatalf("login: (%v,%v)", ok, err)
	}
	if got := s.Session().CurrentShopID(); got != shop.ID {
		t.Fatalf("owned shop not restored: %q", got)
	}
}

func TestSetCurrentShopID_MirrorsIntoMeta(t *testing.T) {
	s, _ := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if ok, err := s.Session().Login("u1", "pw"); err != nil || !ok {
		t.Fatalf("login: (%v,%v)", ok, err)
	}

	if err := s.Session().SetCurrentShopID("shop_x"); err != nil {
		t.Fatalf("set current: %v", err)
	}
	if got := s.Session().CurrentShopID(); got != "shop_x" {
		t.Fatalf("scalar %q", got)
	}
	if got := s.AccountsMeta()["u1"].CurrentShopID; got != "shop_x" {
		t.Fatalf("meta mirror %q", got)
	}
}

func TestSoftLogoutAndLogout(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if ok, err := s.Session().Login("u1", "pw"); err != nil || !ok {
		t.Fatalf("login: (%v,%v)", ok, err)
	}
	if err := port.Set(keys.AuthToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	s.Session().SoftLogout()
	if s.Session().Account() != "" || s.Session().CurrentShopID() != "" {
		t.Fatalf("scalars survived soft logout")
	}
	if s.Session().Role() != model.RoleNone {
		t.Fatalf("role survived soft logout")
	}
	// Soft logout keeps the API token.
	if _, ok := port.Get(keys.AuthToken); !ok {
		t.Fatalf("soft logout dropped the token")
	}

	if ok, err := s.Session().Login("u1", "pw"); err != nil || !ok {
		t.Fatalf("re-login: (%v,%v)", ok, err)
	}
	s.Session().Logout()
	if _, ok := port.Get(keys.AuthToken); ok {
		t.Fatalf("logout kept the token")
	}
}

func TestMigrateLegacyAuthKeys(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := port.Set(keys.LegacyCurrentAccount, "u1"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	s.Session().MigrateLegacyAuthKeys()

	if _, ok := port.Get(keys.LegacyCurrentAccount); ok {
		t.Fatalf("legacy scalar survived")
	}
	if got := s.Session().Account(); got != "u1" {
		t.Fatalf("account not migrated: %q", got)
	}
	// The role scalar is backfilled from the registry.
	if got := s.Session().Role(); got != model.RoleFarmer {
		t.Fatalf("role not backfilled: %q", got)
	}
}

func TestMigrateLegacyAuthKeys_CurrentWins(t *testing.T) {
	s, port := newTestStore()
	if err := port.Set(keys.CurrentAccount, "new_user"); err != nil {
		t.Fatalf("seed current: %v", err)
	}
	if err := port.Set(keys.LegacyCurrentAccount, "old_user"); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	s.Session().MigrateLegacyAuthKeys()

	if got := s.Session().Account(); got != "new_user" {
		t.Fatalf("legacy overwrote current: %q", got)
	}
	if _, ok := port.Get(keys.LegacyCurrentAccount); ok {
		t.Fatalf("legacy scalar survived")
	}
}

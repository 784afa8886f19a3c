package storage

import (
	"errors"
	"strings"
	"testing"

	"cfp/internal/keys"
	"cfp/internal/model"
)

func TestCreateShop(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}

	shop, err := s.CreateShop("Alpha", "u1")
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	if shop.Name != "Alpha" || shop.Owner != "u1" {
		t.Fatalf("unexpected shop: %+v", shop)
	}
	if !strings.HasPrefix(shop.ID, "shop_") {
		t.Fatalf("shop id not opaque: %q", shop.ID)
	}

	meta := s.AccountsMeta()["u1"]
	if len(meta.ShopIDs) != 1 || meta.ShopIDs[0] != shop.ID {
		t.Fatalf("shop not attached to owner: %+v", meta)
	}
	if meta.CurrentShopID != shop.ID {
		t.Fatalf("owner current shop not set: %+v", meta)
	}
	if cur, _ := port.Get(keys.CurrentShop); cur != shop.ID {
		t.Fatalf("session current shop not set: %q", cur)
	}
}

func TestCreateShop_NameRules(t *testing.T) {
	s, _ := newTestStore()
	if _, err := s.CreateShop("Alpha", "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Uniqueness folds case.
	if _, err := s.CreateShop("ALPHA", "u2"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("want ErrDuplicateName, got %v", err)
	}
	if _, err := s.CreateShop("  alpha  ", "u2"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("want ErrDuplicateName for trimmed variant, got %v", err)
	}
	if _, err := s.CreateShop("   ", "u2"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("want ErrEmptyName, got %v", err)
	}
	if len(s.ShopsMap()) != 1 {
		t.Fatalf("failed creates leaked into the registry")
	}
}

func TestDeleteShop_CascadesAndAdjustsCurrent(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if ok, err := s.Session().Login("u1", "pw"); err != nil || !ok {
		t.Fatalf("login: %v %v", ok, err)
	}

	first, err := s.CreateShop("Alpha", "u1")
	if err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	second, err := s.CreateShop("Beta", "u1")
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}

	p, err := s.AddProduct(second.ID, "Green Tea", "")
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if _, err := s.StageConfig(second.ID, p.ID); err != nil {
		t.Fatalf("stage config: %v", err)
	}

	// Beta is current after its creation; deleting it falls back to Alpha.
	if err := s.DeleteShop(second.ID); err != nil {
		t.Fatalf("delete shop: %v", err)
	}

	if _, ok := s.ShopsMap()[second.ID]; ok {
		t.Fatalf("registry entry survived")
	}
	if got := s.Products(second.ID); len(got) != 0 {
		t.Fatalf("products survived: %v", got)
	}
	for _, k := range port.Keys() {
		if strings.Contains(k, second.ID) {
			t.Fatalf("leftover key %q", k)
		}
	}

	meta := s.AccountsMeta()["u1"]
	if meta.CurrentShopID != first.ID {
		t.Fatalf("owner current shop not adjusted: %+v", meta)
	}
	if cur := s.Session().CurrentShopID(); cur != first.ID {
		t.Fatalf("session current shop not adjusted: %q", cur)
	}

	// Deleting the last shop clears the scalar entirely.
	if err := s.DeleteShop(first.ID); err != nil {
		t.Fatalf("delete last shop: %v", err)
	}
	if cur := s.Session().CurrentShopID(); cur != "" {
		t.Fatalf("scalar should be cleared, got %q", cur)
	}

	// Missing shops no-op.
	if err := s.DeleteShop("ghost"); err != nil {
		t.Fatalf("delete missing shop: %v", err)
	}
}

func TestListShops(t *testing.T) {
	s, _ := newTestStore()
	for _, tc := range []struct{ name, owner string }{
		{"Gamma", "u1"},
		{"Alpha", "u1"},
		{"Beta", "u2"},
	} {
		if _, err := s.CreateShop(tc.name, tc.owner); err != nil {
			t.Fatalf("create %q: %v", tc.name, err)
		}
	}

	mine := s.ListMyShops("u1")
	if len(mine) != 2 || mine[0].Name != "Alpha" || mine[1].Name != "Gamma" {
		t.Fatalf("unexpected my shops: %+v", mine)
	}
	all := s.ListAllShops()
	if len(all) != 3 || all[0].Name != "Alpha" || all[1].Name != "Beta" || all[2].Name != "Gamma" {
		t.Fatalf("unexpected all shops: %+v", all)
	}
}

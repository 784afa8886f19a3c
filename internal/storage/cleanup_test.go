package storage

import (
	"strings"
	"testing"

	"cfp/internal/keys"
	"cfp/internal/metrics"
	"cfp/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSweepOrphanDataForShop(t *testing.T) {
	s, port := newTestStore()
	if err := s.SaveProducts("s1", []model.Product{{ID: "p_live", Name: "Green Tea", SerialNo: 1}}); err != nil {
		t.Fatalf("save products: %v", err)
	}

	seed := map[string]string{
		keys.Records("s1", "p_live"):          `[]`, // live, kept
		keys.Records("s1", "p_dead"):          `[]`, // orphan
		keys.StageConfig("s1", "p_dead"):      `[]`, // orphan
		keys.StageConfig("s1", ""):            `[]`, // blank pid, invalid
		keys.StepOrder("s1", "p_dead", "raw"): `[]`, // orphan
		"stage_config::p_live":                `[]`, // legacy shape, always garbage
		"stage_config::" + keys.DefaultShopID + ":x": `[]`, // legacy shape
		"shop__records_p9":             `[]`, // blank-shop record shape
		keys.Records("s2", "p_other"): `[]`, // other shop, untouched
		keys.Products("s2"):           `[{"id":"x"}]`,
	}
	for k, v := range seed {
		if err := port.Set(k, v); err != nil {
			t.Fatalf("seed %q: %v", k, err)
		}
	}

	rep := s.SweepOrphanDataForShop("s1")
	if rep.Records != 1 || rep.StageConfigs != 4 || rep.StepOrders != 1 || rep.Legacy != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	if _, ok := port.Get(keys.Records("s1", "p_live")); !ok {
		t.Fatalf("live record list swept")
	}
	if _, ok := port.Get(keys.Records("s2", "p_other")); !ok {
		t.Fatalf("other shop's records swept")
	}
	for _, k := range []string{
		keys.Records("s1", "p_dead"),
		keys.StageConfig("s1", "p_dead"),
		keys.StageConfig("s1", ""),
		keys.StepOrder("s1", "p_dead", "raw"),
		"stage_config::p_live",
		"shop__records_p9",
	} {
		if _, ok := port.Get(k); ok {
			t.Fatalf("orphan %q survived", k)
		}
	}

	// Idempotent: nothing left to remove.
	if rep := s.SweepOrphanDataForShop("s1"); rep.Total() != 0 {
		t.Fatalf("second sweep removed %+v", rep)
	}
}

func TestSweepIncrementsMetrics(t *testing.T) {
	s, port := newTestStore()
	reg := metrics.NewRegistry()
	s.SetMetrics(reg)

	if err := port.Set(keys.Records("s1", "p_dead"), `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := port.Set("shop__records_p9", `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s.SweepOrphanDataForShop("s1")

	if got := testutil.ToFloat64(reg.SweepRemovedRecords); got != 1 {
		t.Fatalf("records counter %v", got)
	}
	if got := testutil.ToFloat64(reg.SweepRemovedLegacy); got != 1 {
		t.Fatalf("legacy counter %v", got)
	}
}

func TestClearShopAllData(t *testing.T) {
	s, port := newTestStore()
	p, err := s.AddProduct("s1", "Green Tea", "")
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if _, err := s.AddCategory("s1", "Black"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := s.UpsertRecord("s1", model.Record{ProductID: p.ID, Material: "water", Amount: 1, Unit: "L"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.StageConfig("s1", p.ID); err != nil {
		t.Fatalf("stage config: %v", err)
	}
	if err := s.PushRecentCategoryID("s1", "cat_x"); err != nil {
		t.Fatalf("push recent: %v", err)
	}

	s.ClearShopAllData("s1")

	for _, k := range port.Keys() {
		if strings.Contains(k, "s1") {
			t.Fatalf("leftover key %q", k)
		}
	}
}

func TestSweepAllShops(t *testing.T) {
	s, port := newTestStore()
	// A namespace known only from its key prefix still gets swept.
	if err := port.Set(keys.Products("ghost"), `[{"id":"p1"}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := port.Set(keys.Records("ghost", "p_dead"), `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := port.Set(keys.LegacyFrequent, `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s.SweepAllShops()

	if _, ok := port.Get(keys.Records("ghost", "p_dead")); ok {
		t.Fatalf("inferred shop not swept")
	}
	if _, ok := port.Get(keys.LegacyFrequent); ok {
		t.Fatalf("retired frequentProducts key survived")
	}
}

func TestClearShopsData(t *testing.T) {
	s, port := newTestStore()
	seed := map[string]string{
		keys.Products("s1"):               `[{"id":"p1"}]`,
		keys.Records("s1", "p1"):          `[]`,
		keys.StageConfig("s1", "p1"):      `[]`,
		keys.StepOrder("s1", "p1", "raw"): `[]`,
		"target:s1:p1":                    `5`,
		keys.Products("s2"):               `[{"id":"p2"}]`,
	}
	for k, v := range seed {
		if err := port.Set(k, v); err != nil {
			t.Fatalf("seed %q: %v", k, err)
		}
	}

	s.ClearShopsData([]string{"s1"})

	for k := range seed {
		_, ok := port.Get(k)
		if k == keys.Products("s2") {
			if !ok {
				t.Fatalf("unlisted shop cleared")
			}
			continue
		}
		if ok {
			t.Fatalf("key %q survived", k)
		}
	}
}

func TestClearShopsData_DefaultShopMalformedPrefixes(t *testing.T) {
	s, port := newTestStore()
	for _, k := range []string{
		"shop____default_shop___products",
		"shop__default_shop__records_p1",
	} {
		if err := port.Set(k, `[]`); err != nil {
			t.Fatalf("seed %q: %v", k, err)
		}
	}

	s.ClearShopsData([]string{keys.DefaultShopID})

	for _, k := range port.Keys() {
		if strings.HasPrefix(k, "shop_") {
			t.Fatalf("malformed default key %q survived", k)
		}
	}
}

func TestHardAppResetKeepsMigrationFlagsAndAccounts(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := port.Set(keys.FlagMultiShop, "1"); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	if err := port.Set(keys.Products("s1"), `[{"id":"p1"}]`); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	if err := port.Set(keys.AuthToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	s.HardAppReset()

	if _, ok := port.Get(keys.FlagMultiShop); !ok {
		t.Fatalf("migration flag lost")
	}
	if !s.AccountExists("u1") {
		t.Fatalf("account registry lost")
	}
	if _, ok := port.Get(keys.Products("s1")); ok {
		t.Fatalf("shop data survived")
	}
	if _, ok := port.Get(keys.AuthToken); ok {
		t.Fatalf("auth token survived")
	}
}

func TestHardAppNuke(t *testing.T) {
	s, port := newTestStore()
	if err := s.CreateAccount("u1", "pw", model.RoleFarmer); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := s.SaveNotes("u1", []model.Note{{ID: "n1"}}); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if err := port.Set(keys.Products("s1"), `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s.HardAppNuke()

	if s.AccountExists("u1") {
		t.Fatalf("account registry survived nuke")
	}
	if _, ok := port.Get(keys.Notes("u1")); ok {
		t.Fatalf("notes survived nuke")
	}
	if _, ok := port.Get(keys.Products("s1")); ok {
		t.Fatalf("shop data survived nuke")
	}
}

func TestPurgeStrayTargetsAndLegacyBatches(t *testing.T) {
	s, port := newTestStore()
	shop, err := s.CreateShop("Alpha", "u1")
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	p, err := s.AddProduct(shop.ID, "Green Tea", "")
	if err != nil {
		t.Fatalf("add product: %v", err)
	}

	seed := map[string]string{
		"target:" + shop.ID + ":" + p.ID:      "5", // live, kept
		"target:" + shop.ID + ":p_dead":       "5", // product gone
		"target:ghost:p1":                     "5", // shop gone
		"target:" + keys.DefaultShopID + ":x": "5", // default, kept unless included
		"shop___default_shop___batches":       `[]`,
	}
	for k, v := range seed {
		if err := port.Set(k, v); err != nil {
			t.Fatalf("seed %q: %v", k, err)
		}
	}

	n := s.PurgeStrayTargetsAndLegacyBatches(false)
	if n != 3 {
		t.Fatalf("want 3 removals, got %d", n)
	}
	if _, ok := port.Get("target:" + shop.ID + ":" + p.ID); !ok {
		t.Fatalf("live target removed")
	}
	if _, ok := port.Get("target:" + keys.DefaultShopID + ":x"); !ok {
		t.Fatalf("default target removed without includeDefault")
	}
	if _, ok := port.Get("shop___default_shop___batches"); ok {
		t.Fatalf("default batches key survived")
	}

	if n := s.PurgeStrayTargetsAndLegacyBatches(true); n != 1 {
		t.Fatalf("want 1 removal with includeDefault, got %d", n)
	}
	if _, ok := port.Get("target:" + keys.DefaultShopID + ":x"); ok {
		t.Fatalf("default target survived includeDefault purge")
	}
}

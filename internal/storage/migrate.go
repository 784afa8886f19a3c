package storage

import (
	"encoding/json"
	"fmt"
	"log"

	"cfp/internal/keys"
	"cfp/internal/model"
)

const legacyAccount = "legacy_user"
const legacyShopName = "My tea shop"

// MigrateLegacyData runs the two one-time schema upgrades, each gated by
// its own completion flag so every boot can call this unconditionally:
//
//  1. single-tenant -> multi-tenant: an unscoped legacy product list is
//     moved under a synthesized account and default shop;
//  2. numeric -> opaque product ids: every shop's products are re-keyed
//     and their record lists rewritten.
//
// Finishes with a sweep across every namespace holding data.
func (s *Store) MigrateLegacyData() error {
	if err := s.migrateMultiShop(); err != nil {
		return fmt.Errorf("multi-shop migration: %w", err)
	}
	if err := s.migrateOpaqueIDs(); err != nil {
		return fmt.Errorf("opaque-id migration: %w", err)
	}
	s.SweepAllShops()
	return nil
}

func (s *Store) migrateMultiShop() error {
	if _, done := s.port.Get(keys.FlagMultiShop); done {
		return nil
	}
	if s.metrics != nil {
		s.metrics.MigrationRuns.Inc()
	}

	if rawProducts, ok := s.port.Get(keys.LegacyProducts); ok && rawProducts != "" {
		sess := s.Session()
		acc := sess.Account()
		if acc == "" {
			acc = legacyAccount
			if err := sess.SetAccount(acc); err != nil {
				return err
			}
		}
		if sess.Role() == model.RoleNone {
			if err := sess.SetRole(model.RoleFarmer); err != nil {
				return err
			}
		}
		metas := s.AccountsMeta()
		if _, ok := metas[acc]; !ok {
			metas[acc] = model.AccountMeta{Role: model.RoleFarmer}
			if err := s.SaveAccountsMeta(metas); err != nil {
				return err
			}
		}

		shop, err := s.CreateShop(legacyShopName, acc)
		if err != nil {
			return err
		}

		// Move the payload as-is; the id rewrite is the next pass's job.
		if err := s.port.Set(keys.Products(shop.ID), rawProducts); err != nil {
			return err
		}
		for _, id := range legacyProductIDs(rawProducts) {
			legacyKey := keys.LegacyRecords(id)
			if recs, ok := s.port.Get(legacyKey); ok {
				if err := s.port.Set(keys.Records(shop.ID, id), recs); err != nil {
					return err
				}
				s.port.Remove(legacyKey)
			}
		}
		s.port.Remove(keys.LegacyProducts)
	}

	return s.port.Set(keys.FlagMultiShop, "1")
}

// legacyProductIDs extracts id fields from a historically-shaped product
// list, where ids may be numbers or strings. Unparsable input yields nil.
func legacyProductIDs(raw string) []string {
	var generic []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		log.Printf("storage: unparsable legacy product list: %v", err)
		return nil
	}
	var ids []string
	for _, p := range generic {
		if id := rawScalarString(p["id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) migrateOpaqueIDs() error {
	if _, done := s.port.Get(keys.FlagUIDPK); done {
		return nil
	}
	if s.metrics != nil {
		s.metrics.MigrationRuns.Inc()
	}

	shopIDs := map[string]bool{keys.DefaultShopID: true}
	for _, k := range s.port.Keys() {
		if sid, ok := keys.MatchProducts(k); ok {
			shopIDs[sid] = true
		}
	}

	migrated := 0
	for sid := range shopIDs {
		n, err := s.migrateShopOpaqueIDs(sid)
		if err != nil {
			return err
		}
		migrated += n
	}

	if err := s.port.Set(keys.FlagUIDPK, "1"); err != nil {
		return err
	}
	if migrated > 0 {
		log.Printf("storage: migrated %d products to string ids", migrated)
		if s.metrics != nil {
			s.metrics.MigratedProducts.Add(float64(migrated))
		}
	}
	return nil
}

func (s *Store) migrateShopOpaqueIDs(sid string) (int, error) {
	raw, ok := s.port.Get(keys.Products(sid))
	if !ok || raw == "" {
		return 0, nil
	}
	var generic []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		log.Printf("storage: skip unparsable product list for shop %q: %v", sid, err)
		return 0, nil
	}
	if len(generic) == 0 || !anyNonStringID(generic) {
		return 0, nil
	}

	idMap := map[string]string{} // old id (stringified) -> new opaque id
	newList := make([]model.Product, 0, len(generic))
	for _, p := range generic {
		oldID := rawScalarString(p["id"])
		fresh := newID("prod")
		if oldID != "" {
			idMap[oldID] = fresh
		}
		prod := model.Product{
			ID:          fresh,
			Name:        rawScalarString(p["name"]),
			CategoryID:  rawScalarString(p["categoryId"]),
			LegacyNumID: oldID,
		}
		if prod.Name == "" {
			prod.Name = untitledProduct
		}
		var serial int
		if json.Unmarshal(p["serialNo"], &serial) == nil && serial > 0 {
			prod.SerialNo = serial
		}
		newList = append(newList, prod)
	}

	// Serial numbers survive where present and are backfilled with the
	// smallest unused positive integers where absent.
	used := map[int]bool{}
	for _, p := range newList {
		if p.SerialNo > 0 {
			used[p.SerialNo] = true
		}
	}
	next := 1
	for i := range newList {
		if newList[i].SerialNo > 0 {
			continue
		}
		for used[next] {
			next++
		}
		newList[i].SerialNo = next
		used[next] = true
	}

	if err := s.SaveProducts(sid, newList); err != nil {
		return 0, err
	}

	for oldID, newPID := range idMap {
		oldKey := keys.Records(sid, oldID)
		rawRecs, ok := s.port.Get(oldKey)
		if !ok {
			continue
		}
		var recs []map[string]json.RawMessage
		if err := json.Unmarshal([]byte(rawRecs), &recs); err != nil {
			log.Printf("storage: skip unparsable record list at %q: %v", oldKey, err)
			continue
		}
		pidJSON, _ := json.Marshal(newPID)
		for _, r := range recs {
			r["productId"] = pidJSON
		}
		b, err := json.Marshal(recs)
		if err != nil {
			return 0, fmt.Errorf("re-encode records %q: %w", oldKey, err)
		}
		if err := s.port.Set(keys.Records(sid, newPID), string(b)); err != nil {
			return 0, err
		}
		s.port.Remove(oldKey)
	}
	return len(idMap), nil
}

func anyNonStringID(products []map[string]json.RawMessage) bool {
	for _, p := range products {
		var str string
		if json.Unmarshal(p["id"], &str) != nil {
			return true
		}
	}
	return false
}

// rawScalarString renders a JSON scalar (string or number) as its string
// form; null, objects and absent fields yield "".
func rawScalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	var num json.Number
	if json.Unmarshal(raw, &num) == nil {
		return num.String()
	}
	return ""
}

// BootHousekeeping is the process-start bundle: legacy auth-key
// migration, then both data migrations, then the all-shops sweep (run by
// MigrateLegacyData), and a full nuke when no account registry survives.
func (s *Store) BootHousekeeping() error {
	s.Session().MigrateLegacyAuthKeys()
	if err := s.MigrateLegacyData(); err != nil {
		return err
	}
	if len(s.AccountsMeta()) == 0 {
		s.HardAppNuke()
	}
	return nil
}

package storage

import (
	"log"
	"strings"

	"cfp/internal/keys"
)

// SweepReport counts what one orphan sweep removed.
type SweepReport struct {
	Records      int
	StageConfigs int
	StepOrders   int
	Legacy       int
}

func (r SweepReport) Total() int {
	return r.Records + r.StageConfigs + r.StepOrders + r.Legacy
}

// SweepOrphanDataForShop enumerates every stored key, classifies it
// against the key scheme, and deletes record/stage-config/step-order
// keys whose product id is blank or not in the shop's current product
// set, plus known legacy/malformed shapes. Unmatched keys are left
// alone; classification never errs on the side of deletion. Idempotent:
// a second run with no intervening writes removes nothing.
func (s *Store) SweepOrphanDataForShop(shopID string) SweepReport {
	sid := s.ensureShopID(shopID)
	productIDs := map[string]bool{}
	for _, p := range s.Products(sid) {
		productIDs[p.ID] = true
	}

	var rep SweepReport
	for _, key := range s.port.Keys() {
		if shop, pid, ok := keys.MatchRecords(key); ok && shop == sid {
			if !productIDs[pid] {
				s.port.Remove(key)
				rep.Records++
			}
			continue
		}
		if shop, pid, ok := keys.MatchStageConfig(key); ok && shop == sid {
			if pid == "" || !productIDs[pid] {
				s.port.Remove(key)
				rep.StageConfigs++
			}
			continue
		}
		if shop, pid, _, ok := keys.MatchStepOrder(key); ok && shop == sid {
			if !productIDs[pid] {
				s.port.Remove(key)
				rep.StepOrders++
			}
			continue
		}
		// Doubly-prefixed stage configs are an earlier naming scheme;
		// always garbage, never merged with a current equivalent.
		if keys.IsLegacyDoubleStageConfig(key) {
			s.port.Remove(key)
			rep.StageConfigs++
			continue
		}
		if keys.IsWeirdRecordsKey(key) {
			s.port.Remove(key)
			rep.Legacy++
		}
	}

	if rep.Total() > 0 {
		log.Printf("storage: sweep %q removed records=%d stageCfgs=%d stepOrders=%d legacy=%d",
			sid, rep.Records, rep.StageConfigs, rep.StepOrders, rep.Legacy)
	}
	if s.metrics != nil {
		s.metrics.SweepRemovedRecords.Add(float64(rep.Records))
		s.metrics.SweepRemovedStageCfgs.Add(float64(rep.StageConfigs))
		s.metrics.SweepRemovedStepOrders.Add(float64(rep.StepOrders))
		s.metrics.SweepRemovedLegacy.Add(float64(rep.Legacy))
	}
	return rep
}

// ClearShopAllData unconditionally removes every product, category,
// record, stage config and step order under the shop, then sweeps in
// case of key-shape drift.
func (s *Store) ClearShopAllData(shopID string) {
	sid := s.ensureShopID(shopID)

	for _, p := range s.Products(sid) {
		s.port.Remove(keys.Records(sid, p.ID))
		s.removeStageConfigForProduct(sid, p.ID)
		s.removeAllStepOrdersForProduct(sid, p.ID)
	}

	s.port.Remove(keys.Products(sid))
	s.port.Remove(keys.Categories(sid))
	s.port.Remove(keys.RecentCategories(sid))

	s.SweepOrphanDataForShop(sid)
}

// SweepAllShops sweeps every namespace holding data: shops inferred from
// key prefixes, the default shop, and every registered shop. Also drops
// the retired "frequentProducts" key.
func (s *Store) SweepAllShops() {
	ids := map[string]bool{keys.DefaultShopID: true}
	for _, k := range s.port.Keys() {
		if sid, ok := keys.MatchShopData(k); ok {
			ids[sid] = true
		}
	}
	for id := range s.ShopsMap() {
		ids[id] = true
	}

	if _, ok := s.port.Get(keys.LegacyFrequent); ok {
		s.port.Remove(keys.LegacyFrequent)
	}
	for sid := range ids {
		s.SweepOrphanDataForShop(sid)
	}
}

// ClearShopsData removes every key under each listed shop namespace,
// including the retired target/batches families, then sweeps.
func (s *Store) ClearShopsData(shopIDs []string) {
	for _, sid := range shopIDs {
		prefixes := keys.ShopPrefixes(sid)
		for _, k := range s.port.Keys() {
			for _, p := range prefixes {
				if strings.HasPrefix(k, p) {
					s.port.Remove(k)
					break
				}
			}
		}
		if sid == keys.DefaultShopID {
			// Malformed default-namespace spellings from the
			// single-tenant era (doubled and under-underscored).
			for _, k := range s.port.Keys() {
				if strings.HasPrefix(k, "shop____default_shop___") ||
					strings.HasPrefix(k, "shop__default_shop__") {
					s.port.Remove(k)
				}
			}
		}
	}
	for _, sid := range shopIDs {
		s.SweepOrphanDataForShop(sid)
	}
}

// ClearAllAppDataKeepMigrations wipes all per-shop data and the session,
// leaving the migration flags and the account registry so a later boot
// does not re-run one-shot migrations or drop users.
func (s *Store) ClearAllAppDataKeepMigrations() {
	for _, k := range s.port.Keys() {
		if strings.HasPrefix(k, "shop_") ||
			strings.HasPrefix(k, "stage_config:") ||
			strings.HasPrefix(k, "step_order:") ||
			strings.HasPrefix(k, "target:") ||
			keys.IsBatchesKey(k) {
			s.port.Remove(k)
		}
	}
	s.port.Remove(keys.AuthToken)
	s.Session().nukeAuthAndMaps()
}

// HardAppReset is ClearAllAppDataKeepMigrations under its UI-facing name.
func (s *Store) HardAppReset() { s.ClearAllAppDataKeepMigrations() }

// HardAppNuke removes every key family the application has ever owned,
// including registries and notes. Migration flags survive by design:
// re-running a completed migration on an empty store is a no-op anyway.
func (s *Store) HardAppNuke() {
	for _, k := range s.port.Keys() {
		if strings.HasPrefix(k, "shop_") ||
			strings.HasPrefix(k, "stage_config:") ||
			strings.HasPrefix(k, "step_order:") ||
			strings.HasPrefix(k, "target:") ||
			strings.HasPrefix(k, "notes_") ||
			keys.IsBatchesKey(k) {
			s.port.Remove(k)
		}
	}
	s.port.Remove(keys.AuthToken)
	s.port.Remove(keys.Accounts)
	s.Session().nukeAuthAndMaps()
}

// PurgeStrayTargetsAndLegacyBatches deletes target keys pointing at
// shops or products that no longer exist, and the retired default-shop
// batches keys. The default namespace is kept unless includeDefault.
func (s *Store) PurgeStrayTargetsAndLegacyBatches(includeDefault bool) int {
	existing := map[string]bool{keys.DefaultShopID: true}
	for id := range s.ShopsMap() {
		existing[id] = true
	}
	for _, k := range s.port.Keys() {
		if sid, ok := keys.MatchShopData(k); ok {
			existing[sid] = true
		}
	}

	var toDelete []string
	for _, k := range s.port.Keys() {
		if sid, pid, ok := keys.MatchTarget(k); ok {
			if sid == keys.DefaultShopID && !includeDefault {
				continue
			}
			if !existing[sid] {
				toDelete = append(toDelete, k)
				continue
			}
			found := false
			for _, p := range s.Products(sid) {
				if p.ID == pid {
					found = true
					break
				}
			}
			if !found {
				toDelete = append(toDelete, k)
			}
			continue
		}
		if keys.IsBatchesKey(k) && strings.Contains(k, keys.DefaultShopID) {
			toDelete = append(toDelete, k)
		}
	}

	for _, k := range toDelete {
		s.port.Remove(k)
	}
	if len(toDelete) > 0 {
		log.Printf("storage: purged %d stray target/batches keys", len(toDelete))
	}
	return len(toDelete)
}

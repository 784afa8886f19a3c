package storage

import (
	"fmt"
	"sort"
	"strings"

	"cfp/internal/keys"
	"cfp/internal/model"
)

const defaultShopName = "Default shop"

// ListBrowsableShops unions the registered shops with namespaces that
// hold data but drifted out of the registry: shops inferred from key
// prefixes, plus a synthetic default-shop entry. Read-only. Sort is
// default shop first, then by name.
func (s *Store) ListBrowsableShops() []model.Shop {
	registry := s.ShopsMap()
	all := make(map[string]model.Shop, len(registry))
	for id, shop := range registry {
		all[id] = shop
	}

	for _, k := range s.port.Keys() {
		sid, ok := keys.MatchProducts(k)
		if !ok {
			if sid2, ok2 := matchCategoriesKey(k); ok2 {
				sid, ok = sid2, true
			}
		}
		if !ok || sid == "" {
			continue
		}
		if _, registered := registry[sid]; registered {
			continue
		}
		if _, seen := all[sid]; seen {
			continue
		}
		if !s.shopHoldsData(sid) {
			continue
		}
		all[sid] = model.Shop{
			ID:    sid,
			Name:  fmt.Sprintf("Unknown shop (%s)", sid),
			Owner: "(unknown)",
		}
	}

	if _, registered := registry[keys.DefaultShopID]; !registered && s.shopHoldsData(keys.DefaultShopID) {
		all[keys.DefaultShopID] = model.Shop{
			ID:    keys.DefaultShopID,
			Name:  defaultShopName,
			Owner: "(system)",
		}
	}

	list := make([]model.Shop, 0, len(all))
	for _, shop := range all {
		list = append(list, shop)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ID == keys.DefaultShopID {
			return true
		}
		if list[j].ID == keys.DefaultShopID {
			return false
		}
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// shopHoldsData reports whether any non-empty product/category/record/
// stage-config/step-order key lives under the namespace.
func (s *Store) shopHoldsData(sid string) bool {
	if len(s.Products(sid)) > 0 || len(s.Categories(sid)) > 0 {
		return true
	}
	recPrefix := "shop_" + sid + "_records_"
	cfgPrefix := "stage_config:" + sid + ":"
	ordPrefix := "step_order:" + sid + ":"
	for _, k := range s.port.Keys() {
		if strings.HasPrefix(k, recPrefix) ||
			strings.HasPrefix(k, cfgPrefix) ||
			strings.HasPrefix(k, ordPrefix) {
			return true
		}
	}
	return false
}

func matchCategoriesKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "shop_") || !strings.HasSuffix(key, "_categories") {
		return "", false
	}
	sid := strings.TrimSuffix(strings.TrimPrefix(key, "shop_"), "_categories")
	return sid, sid != ""
}

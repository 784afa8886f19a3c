package storage

import (
	"fmt"
	"sort"
	"strings"

	"cfp/internal/keys"
	"cfp/internal/model"
)

// ShopsMap loads the global shop registry.
func (s *Store) ShopsMap() map[string]model.Shop {
	shops := map[string]model.Shop{}
	s.loadJSON(keys.Shops, &shops)
	return shops
}

func (s *Store) SaveShopsMap(shops map[string]model.Shop) error {
	return s.saveJSON(keys.Shops, shops)
}

// IsShopNameTaken folds case: shop names are globally unique at creation
// regardless of casing.
func (s *Store) IsShopNameTaken(name string) bool {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, shop := range s.ShopsMap() {
		if strings.ToLower(shop.Name) == want {
			return true
		}
	}
	return false
}

// CreateShop registers a shop, attaches it to the owner's account entry
// and makes it the owner's (and the session's) current shop.
func (s *Store) CreateShop(name, owner string) (model.Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Shop{}, fmt.Errorf("create shop: %w", ErrEmptyName)
	}
	shops := s.ShopsMap()
	if s.IsShopNameTaken(name) {
		return model.Shop{}, fmt.Errorf("create shop %q: %w", name, ErrDuplicateName)
	}

	shop := model.Shop{ID: newID("shop"), Name: name, Owner: owner}
	shops[shop.ID] = shop
	if err := s.SaveShopsMap(shops); err != nil {
		return model.Shop{}, err
	}

	metas := s.AccountsMeta()
	meta, ok := metas[owner]
	if !ok {
		meta = model.AccountMeta{Role: model.RoleFarmer}
	}
	meta.ShopIDs = appendUnique(meta.ShopIDs, shop.ID)
	meta.CurrentShopID = shop.ID
	metas[owner] = meta
	if err := s.SaveAccountsMeta(metas); err != nil {
		return model.Shop{}, err
	}

	if err := s.Session().SetCurrentShopID(shop.ID); err != nil {
		return model.Shop{}, err
	}
	return shop, nil
}

// DeleteShop removes the shop's entire namespace, detaches it from the
// owner and adjusts the current-shop scalar if it pointed here. Missing
// shops no-op.
func (s *Store) DeleteShop(shopID string) error {
	shops := s.ShopsMap()
	shop, ok := shops[shopID]
	if !ok {
		return nil
	}

	s.ClearShopAllData(shopID)

	metas := s.AccountsMeta()
	if meta, ok := metas[shop.Owner]; ok {
		kept := meta.ShopIDs[:0]
		for _, id := range meta.ShopIDs {
			if id != shopID {
				kept = append(kept, id)
			}
		}
		meta.ShopIDs = kept
		if meta.CurrentShopID == shopID {
			meta.CurrentShopID = ""
			if len(meta.ShopIDs) > 0 {
				meta.CurrentShopID = meta.ShopIDs[0]
			}
			if s.Session().Account() == shop.Owner {
				if meta.CurrentShopID != "" {
					if err := s.Session().SetCurrentShopID(meta.CurrentShopID); err != nil {
						return err
					}
				} else {
					s.port.Remove(keys.CurrentShop)
				}
			}
		}
		metas[shop.Owner] = meta
		if err := s.SaveAccountsMeta(metas); err != nil {
			return err
		}
	}

	delete(shops, shopID)
	return s.SaveShopsMap(shops)
}

// ListMyShops returns the shops owned by account, sorted by name.
func (s *Store) ListMyShops(account string) []model.Shop {
	var out []model.Shop
	for _, shop := range s.ShopsMap() {
		if shop.Owner == account {
			out = append(out, shop)
		}
	}
	sortShops(out)
	return out
}

// ListAllShops returns every registered shop, sorted by name.
func (s *Store) ListAllShops() []model.Shop {
	shops := s.ShopsMap()
	out := make([]model.Shop, 0, len(shops))
	for _, shop := range shops {
		out = append(out, shop)
	}
	sortShops(out)
	return out
}

func sortShops(shops []model.Shop) {
	sort.Slice(shops, func(i, j int) bool {
		if shops[i].Name != shops[j].Name {
			return shops[i].Name < shops[j].Name
		}
		return shops[i].ID < shops[j].ID
	})
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

package storage

import (
	"log"

	"cfp/internal/keys"
	"cfp/internal/model"
)

// Session is the explicit replacement for the ambient current-account/
// current-shop globals: one object, derived from the persisted scalars,
// cleared on logout. The scalars are plain strings, not JSON.
type Session struct {
	store *Store
}

func (s *Store) Session() *Session { return &Session{store: s} }

func (s *Session) Account() string {
	v, _ := s.store.port.Get(keys.CurrentAccount)
	return v
}

func (s *Session) SetAccount(account string) error {
	return s.store.port.Set(keys.CurrentAccount, account)
}

func (s *Session) ClearAccount() {
	s.store.port.Remove(keys.CurrentAccount)
}

func (s *Session) Role() model.Role {
	v, ok := s.store.port.Get(keys.CurrentRole)
	if !ok || v == "" {
		return model.RoleNone
	}
	return model.Role(v)
}

func (s *Session) SetRole(r model.Role) error {
	return s.store.port.Set(keys.CurrentRole, string(r))
}

func (s *Session) CurrentShopID() string {
	v, _ := s.store.port.Get(keys.CurrentShop)
	return v
}

// SetCurrentShopID persists the scalar and mirrors it into the logged-in
// account's registry entry.
func (s *Session) SetCurrentShopID(shopID string) error {
	if err := s.store.port.Set(keys.CurrentShop, shopID); err != nil {
		return err
	}
	acc := s.Account()
	if acc == "" {
		return nil
	}
	metas := s.store.AccountsMeta()
	meta, ok := metas[acc]
	if !ok {
		return nil
	}
	meta.CurrentShopID = shopID
	metas[acc] = meta
	return s.store.SaveAccountsMeta(metas)
}

// Login verifies credentials and initializes the session scalars. It
// reports false on a bad account/password pair without touching state.
func (s *Session) Login(account, password string) (bool, error) {
	metas := s.store.AccountsMeta()
	meta, ok := metas[account]
	if !ok || meta.Password != password {
		return false, nil
	}
	if err := s.SetAccount(account); err != nil {
		return false, err
	}
	role := meta.Role
	if role == "" {
		role = model.RoleNone
	}
	if err := s.SetRole(role); err != nil {
		return false, err
	}
	shopID := meta.CurrentShopID
	if shopID == "" && len(meta.ShopIDs) > 0 {
		shopID = meta.ShopIDs[0]
	}
	if shopID == "" {
		shopID = keys.DefaultShopID
	}
	if err := s.SetCurrentShopID(shopID); err != nil {
		return false, err
	}
	return true, nil
}

// SoftLogout clears the session scalars and nothing else.
func (s *Session) SoftLogout() {
	s.store.port.Remove(keys.CurrentAccount)
	s.store.port.Remove(keys.CurrentRole)
	s.store.port.Remove(keys.CurrentShop)
}

// Logout additionally drops the API auth token.
func (s *Session) Logout() {
	s.SoftLogout()
	s.store.port.Remove(keys.AuthToken)
}

// MigrateLegacyAuthKeys moves the pre-rename "current_account" scalar to
// its current key and backfills the role scalar from the account registry.
// Safe to run on every boot.
func (s *Session) MigrateLegacyAuthKeys() {
	if legacy, ok := s.store.port.Get(keys.LegacyCurrentAccount); ok {
		if _, exists := s.store.port.Get(keys.CurrentAccount); !exists && legacy != "" {
			if err := s.store.port.Set(keys.CurrentAccount, legacy); err != nil {
				log.Printf("storage: migrate legacy auth key: %v", err)
			}
		}
		s.store.port.Remove(keys.LegacyCurrentAccount)
	}

	acc := s.Account()
	if acc == "" {
		return
	}
	meta, ok := s.store.AccountsMeta()[acc]
	if ok && s.Role() == model.RoleNone && meta.Role != "" && meta.Role != model.RoleNone {
		if err := s.SetRole(meta.Role); err != nil {
			log.Printf("storage: migrate legacy auth role: %v", err)
		}
	}
}

// nukeAuthAndMaps drops the session scalars, auth token and the shop
// registry, for deletion flows.
func (s *Session) nukeAuthAndMaps() {
	for _, k := range []string{keys.AuthToken, keys.CurrentAccount, keys.CurrentRole, keys.CurrentShop, keys.Shops} {
		s.store.port.Remove(k)
	}
}

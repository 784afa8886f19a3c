package storage

import (
	"fmt"
	"sort"

	"cfp/internal/keys"
	"cfp/internal/model"
)

// AccountsMeta loads the global account registry. Missing or corrupt
// payloads decode to an empty registry.
func (s *Store) AccountsMeta() map[string]model.AccountMeta {
	metas := map[string]model.AccountMeta{}
	s.loadJSON(keys.Accounts, &metas)
	return metas
}

func (s *Store) SaveAccountsMeta(metas map[string]model.AccountMeta) error {
	return s.saveJSON(keys.Accounts, metas)
}

func (s *Store) AccountExists(account string) bool {
	_, ok := s.AccountsMeta()[account]
	return ok
}

// CreateAccount registers a new account. The existence check and the
// write happen in one synchronous call; on violation nothing is written.
func (s *Store) CreateAccount(account, password string, role model.Role) error {
	if isBlank(account) {
		return fmt.Errorf("create account: %w", ErrEmptyName)
	}
	if role == "" {
		role = model.RoleNone
	}
	metas := s.AccountsMeta()
	if _, ok := metas[account]; ok {
		return fmt.Errorf("create account %q: %w", account, ErrAccountExists)
	}
	metas[account] = model.AccountMeta{Role: role, Password: password, ShopIDs: []string{}}
	return s.SaveAccountsMeta(metas)
}

func (s *Store) VerifyLogin(account, password string) bool {
	meta, ok := s.AccountsMeta()[account]
	return ok && meta.Password == password
}

// SetRoleOf updates an account's role; missing accounts are a no-op.
func (s *Store) SetRoleOf(account string, role model.Role) error {
	metas := s.AccountsMeta()
	meta, ok := metas[account]
	if !ok {
		return nil
	}
	meta.Role = role
	metas[account] = meta
	return s.SaveAccountsMeta(metas)
}

func (s *Store) AllAccountIDs() []string {
	metas := s.AccountsMeta()
	ids := make([]string, 0, len(metas))
	for id := range metas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeleteAccountCompletely removes the account and everything it owns:
// every shop's data, the shops' registry entries, the account's notes,
// and the registry entry itself. Leaf data goes first so a crash
// mid-cascade leaves only unreachable leaves. Missing accounts no-op.
func (s *Store) DeleteAccountCompletely(account string) error {
	metas := s.AccountsMeta()
	meta, ok := metas[account]
	if !ok {
		return nil
	}

	s.ClearShopsData(meta.ShopIDs)

	shops := s.ShopsMap()
	for _, id := range meta.ShopIDs {
		delete(shops, id)
	}
	if err := s.SaveShopsMap(shops); err != nil {
		return err
	}

	s.port.Remove(keys.Notes(account))
	delete(metas, account)
	if err := s.SaveAccountsMeta(metas); err != nil {
		return err
	}

	sess := s.Session()
	if sess.Account() == account {
		s.port.Remove(keys.AuthToken)
		sess.SoftLogout()
	}

	s.SweepAllShops()
	if len(metas) == 0 {
		s.HardAppNuke()
	}
	return nil
}

// DeleteAllAccountsCompletely removes every account, then the registries
// themselves and known leftovers.
func (s *Store) DeleteAllAccountsCompletely() error {
	for _, id := range s.AllAccountIDs() {
		if err := s.DeleteAccountCompletely(id); err != nil {
			return err
		}
	}
	s.port.Remove(keys.Accounts)
	s.port.Remove(keys.Shops)
	s.port.Remove(keys.AuthToken)

	for _, k := range s.port.Keys() {
		if _, _, ok := keys.MatchTarget(k); ok {
			s.port.Remove(k)
			continue
		}
		if keys.IsBatchesKey(k) {
			s.port.Remove(k)
		}
	}
	s.SweepAllShops()
	return nil
}

package storage

import (
	"cfp/internal/keys"
	"cfp/internal/model"
)

// Notes loads an account's notes. A blank account yields an empty list.
func (s *Store) Notes(account string) []model.Note {
	if isBlank(account) {
		return nil
	}
	var list []model.Note
	s.loadJSON(keys.Notes(account), &list)
	return list
}

// SaveNotes replaces the account's note list. Blank accounts are a no-op.
func (s *Store) SaveNotes(account string, list []model.Note) error {
	if isBlank(account) {
		return nil
	}
	if list == nil {
		list = []model.Note{}
	}
	return s.saveJSON(keys.Notes(account), list)
}

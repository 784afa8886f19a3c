package storage

import (
	"log"

	"cfp/internal/keys"
	"cfp/internal/model"
)

// Records loads one product's record list. A blank product id yields an
// empty list; missing or corrupt payloads decode to an empty list.
func (s *Store) Records(shopID, productID string) []model.Record {
	sid := s.ensureShopID(shopID)
	if isBlank(productID) {
		log.Printf("storage: load records with blank product id in shop %q", sid)
		return nil
	}
	var list []model.Record
	s.loadJSON(keys.Records(sid, productID), &list)
	return list
}

// SaveRecords replaces the whole record list. A blank product id is
// skipped: an empty-keyed record list is exactly the orphan shape the
// sweep exists to delete.
func (s *Store) SaveRecords(shopID, productID string, list []model.Record) error {
	sid := s.ensureShopID(shopID)
	if isBlank(productID) {
		log.Printf("storage: save records with blank product id in shop %q, skipped", sid)
		return nil
	}
	if list == nil {
		list = []model.Record{}
	}
	return s.saveJSON(keys.Records(sid, productID), list)
}

// UpsertRecord appends the record (empty id) or replaces the entry with
// the same id, stamping timestamps. It returns the resulting list.
func (s *Store) UpsertRecord(shopID string, rec model.Record) ([]model.Record, error) {
	sid := s.ensureShopID(shopID)
	if isBlank(rec.ProductID) {
		log.Printf("storage: upsert record without product id, skipped")
		return nil, nil
	}
	list := s.Records(sid, rec.ProductID)
	now := nowUnix()
	rec.UpdatedAt = now

	replaced := false
	if rec.ID != "" {
		for i := range list {
			if list[i].ID == rec.ID {
				if rec.Timestamp == 0 {
					rec.Timestamp = list[i].Timestamp
				}
				list[i] = rec
				replaced = true
				break
			}
		}
	} else {
		rec.ID = newID("rec")
	}
	if !replaced {
		if rec.Timestamp == 0 {
			rec.Timestamp = now
		}
		list = append(list, rec)
	}
	if err := s.SaveRecords(sid, rec.ProductID, list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateRecord applies mutate to the record with the given id and
// refreshes its timestamp. Missing records leave the list untouched.
func (s *Store) UpdateRecord(shopID, productID, recordID string, mutate func(*model.Record)) ([]model.Record, error) {
	sid := s.ensureShopID(shopID)
	list := s.Records(sid, productID)
	for i := range list {
		if list[i].ID == recordID {
			mutate(&list[i])
			list[i].ID = recordID
			list[i].ProductID = productID
			list[i].Timestamp = nowUnix()
			list[i].UpdatedAt = list[i].Timestamp
			if err := s.SaveRecords(sid, productID, list); err != nil {
				return nil, err
			}
			return list, nil
		}
	}
	return list, nil
}

// DeleteRecord removes one record by id and returns the remaining list.
func (s *Store) DeleteRecord(shopID, productID, recordID string) ([]model.Record, error) {
	sid := s.ensureShopID(shopID)
	list := s.Records(sid, productID)
	kept := list[:0]
	for _, r := range list {
		if r.ID != recordID {
			kept = append(kept, r)
		}
	}
	if err := s.SaveRecords(sid, productID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

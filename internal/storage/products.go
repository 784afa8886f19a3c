package storage

import (
	"fmt"
	"strconv"
	"strings"

	"cfp/internal/keys"
	"cfp/internal/model"
)

const untitledProduct = "Untitled product"

// Products loads the shop's product list. Missing or corrupt payloads
// decode to an empty list.
func (s *Store) Products(shopID string) []model.Product {
	sid := s.ensureShopID(shopID)
	var list []model.Product
	s.loadJSON(keys.Products(sid), &list)
	return list
}

func (s *Store) SaveProducts(shopID string, list []model.Product) error {
	sid := s.ensureShopID(shopID)
	if list == nil {
		list = []model.Product{}
	}
	return s.saveJSON(keys.Products(sid), list)
}

// NextSerialNo returns the smallest positive integer not already
// assigned, keeping the serial set dense.
func NextSerialNo(products []model.Product) int {
	used := make(map[int]bool, len(products))
	for _, p := range products {
		if p.SerialNo > 0 {
			used[p.SerialNo] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return n
}

// AddProduct appends a product with a fresh id and serial number.
// categoryID may be empty for "unassigned".
func (s *Store) AddProduct(shopID, name, categoryID string) (model.Product, error) {
	sid := s.ensureShopID(shopID)
	list := s.Products(sid)
	p := model.Product{
		ID:         newID("prod"),
		Name:       strings.TrimSpace(name),
		SerialNo:   NextSerialNo(list),
		CategoryID: categoryID,
	}
	if p.Name == "" {
		p.Name = untitledProduct
	}
	if err := s.SaveProducts(sid, append(list, p)); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// DuplicateProduct deep-copies a product and its records under fresh ids
// and a fresh timestamp. Stage config and step orders are not copied;
// they materialize from the template on first access to the duplicate.
func (s *Store) DuplicateProduct(shopID, srcIdent, newName string) (model.Product, error) {
	sid := s.ensureShopID(shopID)
	products := s.Products(sid)

	srcID, ok := s.FindProductIDByAnyIdent(sid, srcIdent)
	if !ok {
		return model.Product{}, fmt.Errorf("duplicate product %q: %w", srcIdent, ErrNotFound)
	}
	var src model.Product
	for _, p := range products {
		if p.ID == srcID {
			src = p
			break
		}
	}

	dup := model.Product{
		ID:         newID("prod"),
		Name:       strings.TrimSpace(newName),
		SerialNo:   NextSerialNo(products),
		CategoryID: src.CategoryID,
	}
	if dup.Name == "" {
		dup.Name = src.Name + " (copy)"
	}
	if err := s.SaveProducts(sid, append(products, dup)); err != nil {
		return model.Product{}, err
	}

	now := nowUnix()
	srcRecords := s.Records(sid, srcID)
	cloned := make([]model.Record, len(srcRecords))
	for i, r := range srcRecords {
		r.ID = newID("rec")
		r.ProductID = dup.ID
		r.Timestamp = now
		r.UpdatedAt = now
		cloned[i] = r
	}
	if err := s.SaveRecords(sid, dup.ID, cloned); err != nil {
		return model.Product{}, err
	}
	return dup, nil
}

// RenameProduct updates the product name; an unknown id is an error.
func (s *Store) RenameProduct(shopID, ident, newName string) error {
	sid := s.ensureShopID(shopID)
	pid, ok := s.FindProductIDByAnyIdent(sid, ident)
	if !ok {
		return fmt.Errorf("rename product %q: %w", ident, ErrNotFound)
	}
	list := s.Products(sid)
	for i := range list {
		if list[i].ID == pid {
			list[i].Name = newName
			return s.SaveProducts(sid, list)
		}
	}
	return fmt.Errorf("rename product %q: %w", ident, ErrNotFound)
}

// FindProductIDByAnyIdent resolves a product by id, by serial number, or
// by a numeric id surviving from the pre-migration era.
func (s *Store) FindProductIDByAnyIdent(shopID, ident string) (string, bool) {
	sid := s.ensureShopID(shopID)
	products := s.Products(sid)
	want := strings.TrimSpace(ident)
	if want == "" {
		return "", false
	}

	for _, p := range products {
		if p.ID == want {
			return p.ID, true
		}
	}
	if n, err := strconv.Atoi(want); err == nil {
		for _, p := range products {
			if p.SerialNo == n {
				return p.ID, true
			}
		}
	}
	for _, p := range products {
		if p.LegacyNumID != "" && p.LegacyNumID == want {
			return p.ID, true
		}
	}
	return "", false
}

// DeleteProduct removes the product and cascades: record list, stage
// config and step orders first under both the resolved and the raw
// ident (prior corruption may have keyed them differently), then an
// orphan sweep.
func (s *Store) DeleteProduct(shopID, ident string) error {
	sid := s.ensureShopID(shopID)
	raw := strings.TrimSpace(ident)
	realID, ok := s.FindProductIDByAnyIdent(sid, raw)
	if !ok {
		realID = raw
	}

	products := s.Products(sid)
	kept := products[:0]
	for _, p := range products {
		if p.ID != realID {
			kept = append(kept, p)
		}
	}
	if err := s.SaveProducts(sid, kept); err != nil {
		return err
	}

	s.port.Remove(keys.Records(sid, realID))
	s.removeStageConfigForProduct(sid, realID)
	s.removeAllStepOrdersForProduct(sid, realID)
	if raw != realID {
		s.port.Remove(keys.Records(sid, raw))
		s.removeStageConfigForProduct(sid, raw)
		s.removeAllStepOrdersForProduct(sid, raw)
	}

	s.SweepOrphanDataForShop(sid)
	return nil
}

package storage

import (
	"fmt"
	"sort"
	"strings"

	"cfp/internal/keys"
	"cfp/internal/model"
)

func normalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func categoryNameTaken(list []model.Category, name, excludeID string) bool {
	want := normalizeCategoryName(name)
	for _, c := range list {
		if c.ID != excludeID && normalizeCategoryName(c.Name) == want {
			return true
		}
	}
	return false
}

// Categories loads the shop's category list.
func (s *Store) Categories(shopID string) []model.Category {
	sid := s.ensureShopID(shopID)
	var list []model.Category
	s.loadJSON(keys.Categories(sid), &list)
	return list
}

func (s *Store) SaveCategories(shopID string, list []model.Category) error {
	sid := s.ensureShopID(shopID)
	if list == nil {
		list = []model.Category{}
	}
	return s.saveJSON(keys.Categories(sid), list)
}

func (s *Store) IsCategoryNameTaken(shopID, name, excludeID string) bool {
	return categoryNameTaken(s.Categories(shopID), name, excludeID)
}

// AddCategory appends a category at the end of the order. Names are
// unique within the shop, case-insensitive; the check and the write are
// one synchronous call with no interleaving.
func (s *Store) AddCategory(shopID, name string) (model.Category, error) {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return model.Category{}, fmt.Errorf("add category: %w", ErrEmptyName)
	}
	if categoryNameTaken(list, trimmed, "") {
		return model.Category{}, fmt.Errorf("add category %q: %w", trimmed, ErrDuplicateName)
	}

	maxOrder := -1
	for _, c := range list {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
	}
	cat := model.Category{ID: newID("cat"), Name: trimmed, Order: maxOrder + 1}
	if err := s.SaveCategories(sid, append(list, cat)); err != nil {
		return model.Category{}, err
	}
	return cat, nil
}

// RenameCategory validates the new name; an unknown id is a no-op.
func (s *Store) RenameCategory(shopID, catID, newName string) error {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	idx := -1
	for i, c := range list {
		if c.ID == catID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return fmt.Errorf("rename category: %w", ErrEmptyName)
	}
	if categoryNameTaken(list, trimmed, catID) {
		return fmt.Errorf("rename category to %q: %w", trimmed, ErrDuplicateName)
	}
	list[idx].Name = trimmed
	return s.SaveCategories(sid, list)
}

// DeleteCategoryAndUnassign removes the category and clears the
// reference on every product that pointed at it; no product is ever left
// referencing a nonexistent category.
func (s *Store) DeleteCategoryAndUnassign(shopID, catID string) error {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	kept := list[:0]
	for _, c := range list {
		if c.ID != catID {
			kept = append(kept, c)
		}
	}
	if err := s.SaveCategories(sid, kept); err != nil {
		return err
	}

	products := s.Products(sid)
	changed := false
	for i := range products {
		if products[i].CategoryID == catID {
			products[i].CategoryID = ""
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.SaveProducts(sid, products)
}

// SetProductCategory assigns a product to a category (empty to
// unassign). An unknown product is an error.
func (s *Store) SetProductCategory(shopID, productIdent, catID string) error {
	sid := s.ensureShopID(shopID)
	pid, ok := s.FindProductIDByAnyIdent(sid, productIdent)
	if !ok {
		return fmt.Errorf("set category of %q: %w", productIdent, ErrNotFound)
	}
	list := s.Products(sid)
	for i := range list {
		if list[i].ID == pid {
			list[i].CategoryID = catID
			return s.SaveProducts(sid, list)
		}
	}
	return fmt.Errorf("set category of %q: %w", productIdent, ErrNotFound)
}

// MoveDirection selects MoveCategory's direction.
type MoveDirection int

const (
	MoveUp MoveDirection = iota
	MoveDown
)

// MoveCategory swaps the category with its neighbor and renumbers the
// ranks 0..n-1. Unknown ids and edge positions are no-ops.
func (s *Store) MoveCategory(shopID, catID string, dir MoveDirection) error {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })

	idx := -1
	for i, c := range list {
		if c.ID == catID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	if dir == MoveUp && idx == 0 {
		return nil
	}
	if dir == MoveDown && idx == len(list)-1 {
		return nil
	}

	target := idx - 1
	if dir == MoveDown {
		target = idx + 1
	}
	list[idx], list[target] = list[target], list[idx]
	for i := range list {
		list[i].Order = i
	}
	return s.SaveCategories(sid, list)
}

// SetCategoriesOrder reorders by the given id sequence; ids not listed
// keep their relative order after the listed ones, unknown ids are
// ignored.
func (s *Store) SetCategoriesOrder(shopID string, orderedIDs []string) error {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	byID := make(map[string]model.Category, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}

	reordered := make([]model.Category, 0, len(list))
	for _, id := range orderedIDs {
		if c, ok := byID[id]; ok {
			c.Order = len(reordered)
			reordered = append(reordered, c)
			delete(byID, id)
		}
	}
	rest := make([]model.Category, 0, len(byID))
	for _, c := range list {
		if _, ok := byID[c.ID]; ok {
			rest = append(rest, c)
		}
	}
	for _, c := range rest {
		c.Order = len(reordered)
		reordered = append(reordered, c)
	}
	return s.SaveCategories(sid, reordered)
}

// SearchCategories filters by case-insensitive substring, sorted by rank.
func (s *Store) SearchCategories(shopID, query string) []model.Category {
	sid := s.ensureShopID(shopID)
	list := s.Categories(sid)
	sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	var out []model.Category
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// RecentCategoryIDs returns the most-recently-used category ids, newest
// first.
func (s *Store) RecentCategoryIDs(shopID string) []string {
	sid := s.ensureShopID(shopID)
	var ids []string
	s.loadJSON(keys.RecentCategories(sid), &ids)
	return ids
}

// PushRecentCategoryID moves the id to the front of the recency list,
// capped at MaxRecentCategories. Empty ids are ignored.
func (s *Store) PushRecentCategoryID(shopID, catID string) error {
	sid := s.ensureShopID(shopID)
	if catID == "" {
		return nil
	}
	cur := s.RecentCategoryIDs(sid)
	next := make([]string, 0, len(cur)+1)
	next = append(next, catID)
	for _, id := range cur {
		if id != catID {
			next = append(next, id)
		}
	}
	if len(next) > keys.MaxRecentCategories {
		next = next[:keys.MaxRecentCategories]
	}
	return s.saveJSON(keys.RecentCategories(sid), next)
}

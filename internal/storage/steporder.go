package storage

import (
	"strings"

	"cfp/internal/emitter"
	"cfp/internal/journal"
	"cfp/internal/keys"
	"cfp/internal/model"
)

// StepOrder loads the persisted step ordering for one stage. The second
// return is false when no order has been stored (or it is unreadable).
func (s *Store) StepOrder(shopID, productID, stageID string) ([]string, bool) {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)
	if pid == "" || isBlank(stageID) {
		return nil, false
	}
	var order []string
	if s.loadJSON(keys.StepOrder(sid, pid, stageID), &order) != DecodeValid {
		return nil, false
	}
	return order, true
}

// SaveStepOrder replaces the ordering and announces the change. Blank
// product or stage ids are no-ops.
func (s *Store) SaveStepOrder(shopID, productID, stageID string, order []string) error {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)
	if pid == "" || isBlank(stageID) {
		return nil
	}
	if order == nil {
		order = []string{}
	}
	if err := s.saveJSON(keys.StepOrder(sid, pid, stageID), order); err != nil {
		return err
	}
	s.bus.EmitStepOrderChanged(emitter.StepOrderChanged{
		ShopID:    sid,
		ProductID: pid,
		StageID:   stageID,
		Order:     append([]string(nil), order...),
	})
	s.appendJournal(journal.Entry{
		Type:      "steporder:changed",
		ShopID:    sid,
		ProductID: pid,
		StageID:   stageID,
		Order:     append([]string(nil), order...),
		TS:        nowUnix(),
	})
	return nil
}

// EnsureStepOrderFromSteps converges the stored order with the step ids
// currently declared in the stage config: ids missing from the order are
// appended in declaration order, ids no longer declared are dropped, and
// the relative order of surviving ids is preserved. The merge is written
// back only when it differs from what was stored.
func (s *Store) EnsureStepOrderFromSteps(shopID, productID, stageID string, steps []model.UserStep) ([]string, error) {
	sid := s.ensureShopID(shopID)
	pid := strings.TrimSpace(productID)

	incoming := make([]string, len(steps))
	declared := make(map[string]bool, len(steps))
	for i, st := range steps {
		incoming[i] = st.ID
		declared[st.ID] = true
	}

	cur, ok := s.StepOrder(sid, pid, stageID)
	if !ok || len(cur) == 0 {
		if err := s.SaveStepOrder(sid, pid, stageID, incoming); err != nil {
			return nil, err
		}
		return incoming, nil
	}

	merged := make([]string, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for _, id := range cur {
		if declared[id] && !seen[id] {
			merged = append(merged, id)
			seen[id] = true
		}
	}
	for _, id := range incoming {
		if !seen[id] {
			merged = append(merged, id)
			seen[id] = true
		}
	}

	if !equalStrings(merged, cur) {
		if err := s.SaveStepOrder(sid, pid, stageID, merged); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// removeAllStepOrdersForProduct drops every stage's order under one
// product.
func (s *Store) removeAllStepOrdersForProduct(sid, pid string) {
	prefix := "step_order:" + sid + ":" + strings.TrimSpace(pid) + ":"
	for _, k := range s.port.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.port.Remove(k)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

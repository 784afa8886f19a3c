package storage

import (
	"testing"

	"cfp/internal/emitter"
	"cfp/internal/model"
)

func steps(ids ...string) []model.UserStep {
	out := make([]model.UserStep, len(ids))
	for i, id := range ids {
		out[i] = model.UserStep{ID: id, Label: id}
	}
	return out
}

func TestStepOrder_RoundTrip(t *testing.T) {
	s, _ := newTestStore()

	if _, ok := s.StepOrder("s1", "p1", model.StageRaw); ok {
		t.Fatalf("missing order reported as present")
	}
	if err := s.SaveStepOrder("s1", "p1", model.StageRaw, []string{"a", "b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	order, ok := s.StepOrder("s1", "p1", model.StageRaw)
	if !ok || len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("got (%v,%v)", order, ok)
	}

	// Blank ids are no-ops on both paths.
	if err := s.SaveStepOrder("s1", "", model.StageRaw, []string{"a"}); err != nil {
		t.Fatalf("save blank pid: %v", err)
	}
	if _, ok := s.StepOrder("s1", "", model.StageRaw); ok {
		t.Fatalf("blank pid order present")
	}
	if _, ok := s.StepOrder("s1", "p1", " "); ok {
		t.Fatalf("blank stage order present")
	}
}

func TestSaveStepOrder_Announces(t *testing.T) {
	s, _ := newTestStore()
	var events []emitter.StepOrderChanged
	s.Bus().OnStepOrderChanged(func(e emitter.StepOrderChanged) { events = append(events, e) })

	if err := s.SaveStepOrder("s1", "p1", model.StageRaw, []string{"a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ShopID != "s1" || ev.ProductID != "p1" || ev.StageID != model.StageRaw {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Order) != 1 || ev.Order[0] != "a" {
		t.Fatalf("unexpected order: %v", ev.Order)
	}
}

func TestEnsureStepOrderFromSteps_FirstWrite(t *testing.T) {
	s, _ := newTestStore()
	got, err := s.EnsureStepOrderFromSteps("s1", "p1", model.StageRaw, steps("a", "b", "c"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("first write should use declaration order: %v", got)
	}
	stored, ok := s.StepOrder("s1", "p1", model.StageRaw)
	if !ok || len(stored) != 3 {
		t.Fatalf("not persisted: (%v,%v)", stored, ok)
	}
}

func TestEnsureStepOrderFromSteps_Converges(t *testing.T) {
	s, _ := newTestStore()
	// User-chosen order differs from declaration order.
	if err := s.SaveStepOrder("s1", "p1", model.StageRaw, []string{"c", "a", "b"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// "b" was deleted from the config, "d" was added.
	got, err := s.EnsureStepOrderFromSteps("s1", "p1", model.StageRaw, steps("a", "c", "d"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	want := []string{"c", "a", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}

	// The merge converged; re-running it changes nothing and writes nothing.
	var rewrites int
	s.Bus().OnStepOrderChanged(func(emitter.StepOrderChanged) { rewrites++ })
	again, err := s.EnsureStepOrderFromSteps("s1", "p1", model.StageRaw, steps("a", "c", "d"))
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if rewrites != 0 {
		t.Fatalf("idempotent merge rewrote the order")
	}
	for i := range want {
		if again[i] != want[i] {
			t.Fatalf("second merge diverged: %v", again)
		}
	}
}

func TestEnsureStepOrderFromSteps_DropsDuplicates(t *testing.T) {
	s, _ := newTestStore()
	// A historically corrupted order can hold duplicates.
	if err := s.SaveStepOrder("s1", "p1", model.StageRaw, []string{"a", "b", "a"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.EnsureStepOrderFromSteps("s1", "p1", model.StageRaw, steps("a", "b"))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("duplicates survived: %v", got)
	}
}

// Package emitter is the in-process change bus. Publication is
// synchronous and in registration order; scope is one running instance,
// with no persistence and no cross-tab delivery. Components that need
// freshness across writers re-load after user actions instead.
package emitter

import (
	"log"
	"sync"

	"cfp/internal/model"
)

// StageConfigChanged announces a replaced stage configuration.
type StageConfigChanged struct {
	ShopID    string
	ProductID string
	Cfg       []model.StageConfig
}

// StepOrderChanged announces a replaced step order for one stage.
type StepOrderChanged struct {
	ShopID    string
	ProductID string
	StageID   string
	Order     []string
}

type stageCfgEntry struct {
	id int
	fn func(StageConfigChanged)
}

type stepOrderEntry struct {
	id int
	fn func(StepOrderChanged)
}

// Bus fans events out to registered handlers. A panicking handler is
// isolated so the remaining handlers still run.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	stageCfg  []stageCfgEntry
	stepOrder []stepOrderEntry
}

func New() *Bus { return &Bus{} }

// OnStageConfigChanged registers a handler and returns its unsubscribe.
func (b *Bus) OnStageConfigChanged(fn func(StageConfigChanged)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.stageCfg = append(b.stageCfg, stageCfgEntry{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.stageCfg {
			if e.id == id {
				b.stageCfg = append(b.stageCfg[:i], b.stageCfg[i+1:]...)
				return
			}
		}
	}
}

// OnStepOrderChanged registers a handler and returns its unsubscribe.
func (b *Bus) OnStepOrderChanged(fn func(StepOrderChanged)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.stepOrder = append(b.stepOrder, stepOrderEntry{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.stepOrder {
			if e.id == id {
				b.stepOrder = append(b.stepOrder[:i], b.stepOrder[i+1:]...)
				return
			}
		}
	}
}

// EmitStageConfigChanged calls every registered handler synchronously.
func (b *Bus) EmitStageConfigChanged(ev StageConfigChanged) {
	b.mu.Lock()
	hs := append([]stageCfgEntry(nil), b.stageCfg...)
	b.mu.Unlock()
	for _, h := range hs {
		callIsolated(func() { h.fn(ev) })
	}
}

// EmitStepOrderChanged calls every registered handler synchronously.
func (b *Bus) EmitStepOrderChanged(ev StepOrderChanged) {
	b.mu.Lock()
	hs := append([]stepOrderEntry(nil), b.stepOrder...)
	b.mu.Unlock()
	for _, h := range hs {
		callIsolated(func() { h.fn(ev) })
	}
}

func callIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("emitter: handler panic: %v", r)
		}
	}()
	fn()
}

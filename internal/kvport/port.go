// Package kvport abstracts the flat string key-value substrate the data
// layer is built on. The contract mirrors a browser localStorage: reads
// never fail, Remove is total, and Set can only fail on quota exhaustion.
// There is no cross-key transaction and no coordination between writers;
// last write wins at the key level.
package kvport

import (
	"errors"
	"sort"
	"sync"
)

// ErrQuotaExceeded is returned by Set when the backing store is full.
// It propagates unchanged to the caller of the triggering store operation.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Port is the synchronous key-value contract all higher layers use.
type Port interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
	Keys() []string
}

// MemoryPort is a thread-safe map store. A quota of zero means unlimited.
type MemoryPort struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

func NewMemoryPort() *MemoryPort {
	return &MemoryPort{data: make(map[string]string)}
}

// NewMemoryPortWithQuota limits the total bytes of keys plus values.
func NewMemoryPortWithQuota(maxBytes int) *MemoryPort {
	return &MemoryPort{data: make(map[string]string), quota: maxBytes}
}

func (m *MemoryPort) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryPort) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.used + len(key) + len(value)
	if old, ok := m.data[key]; ok {
		next -= len(key) + len(old)
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	m.used = next
	return nil
}

func (m *MemoryPort) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
}

func (m *MemoryPort) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ks := make([]string, 0, len(m.data))
	for k := range m.data {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

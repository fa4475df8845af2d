package storage

import (
	"strings"
	"sync"
)

// MemoryRegistry remembers the connected accounts this process has seen and
// the designated treasury account. It lives as long as the process does;
// a restart forgets everything, and ids can be re-linked through the verify endpoints.
type MemoryRegistry struct {
	mu       sync.RWMutex
	order    []string
	known    map[string]struct{}
	treasury string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{known: make(map[string]struct{})}
}

// Register adds an account id. Re-registering keeps the original position.
func (r *MemoryRegistry) Register(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.known[id]; exists {
		return
	}
	r.known[id] = struct{}{}
	r.order = append(r.order, id)
}

// AccountIDs lists registered ids in registration order.
func (r *MemoryRegistry) AccountIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Treasury returns the treasury id, if one is set.
func (r *MemoryRegistry) Treasury() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.treasury, r.treasury != ""
}

// SetTreasury designates the treasury account. Last write wins.
func (r *MemoryRegistry) SetTreasury(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.treasury = id
}

package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/liamcoop/updategate/gate"
)

// Registry holds the known platform descriptors keyed by tag.
// Safe for concurrent use.
type Registry struct {
	descriptors map[gate.Platform]Descriptor
	mu          sync.RWMutex
}

// NewRegistry creates a registry seeded with Android and IOS
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[gate.Platform]Descriptor)}
	for _, d := range []Descriptor{Android(), IOS()} {
		r.descriptors[d.Tag] = d
	}
	return r
}

// Register adds or replaces a descriptor
func (r *Registry) Register(d Descriptor) error {
	if err := ValidateDescriptor(d); err != nil {
		return fmt.Errorf("invalid descriptor: %w", err)
	}

	r.mu.Lock()
	r.descriptors[d.Tag] = d
	r.mu.Unlock()

	return nil
}

// Get retrieves the descriptor for tag
func (r *Registry) Get(tag gate.Platform) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.descriptors[tag]
	if !exists {
		return Descriptor{}, fmt.Errorf("platform %s not found", tag)
	}
	return d, nil
}

// List returns all descriptors ordered by tag
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Tag < list[j].Tag })
	return list
}

// Remove deletes the descriptor for tag
func (r *Registry) Remove(tag gate.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[tag]; !exists {
		return fmt.Errorf("platform %s not found", tag)
	}

	delete(r.descriptors, tag)
	return nil
}

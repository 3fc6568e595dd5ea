// Package spawn tracks the player spawn points registered while a level's
// content is generated.
package spawn

import (
	"sync"

	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

type cell struct {
	x, y int
}

// Registry holds spawn points in registration order. Claims are kept per
// cell and survive Reset, so a regenerated level must offer a spawn on a
// cell not already handed out when unused spawns are required.
type Registry struct {
	mu      sync.RWMutex
	points  []wfc.SpawnPoint
	claimed mapset.Set[cell]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{claimed: mapset.New[cell]()}
}

// Register adds a spawn point. A second point on the same cell is ignored.
func (r *Registry) Register(p wfc.SpawnPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.points {
		if existing.X == p.X && existing.Y == p.Y {
			return
		}
	}
	r.points = append(r.points, p)
}

// HasValidSpawnPoint reports whether any point is registered, or any
// unclaimed point when requireUnused is set
func (r *Registry) HasValidSpawnPoint(requireUnused bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !requireUnused {
		return len(r.points) > 0
	}
	for _, p := range r.points {
		if !r.claimed.Has(cell{p.X, p.Y}) {
			return true
		}
	}
	return false
}

// Claim marks the first unclaimed point as used and returns it
func (r *Registry) Claim() (wfc.SpawnPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.points {
		key := cell{p.X, p.Y}
		if !r.claimed.Has(key) {
			r.claimed.Put(key)
			return p, true
		}
	}
	return wfc.SpawnPoint{}, false
}

// Release returns the point on (x, y) to the unclaimed pool
func (r *Registry) Release(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed.Remove(cell{x, y})
}

// Points returns a copy of every registered point
func (r *Registry) Points() []wfc.SpawnPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wfc.SpawnPoint, len(r.points))
	copy(out, r.points)
	return out
}

// Claimed returns the number of claimed cells
func (r *Registry) Claimed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.claimed.Size()
}

// ReleaseAll drops every claim
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed = mapset.New[cell]()
}

// Count returns the number of registered points
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points)
}

// Reset drops every point. Claims are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = nil
}

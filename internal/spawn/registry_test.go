package spawn

import (
	"sync"
	"testing"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	if r.HasValidSpawnPoint(false) || r.HasValidSpawnPoint(true) {
		t.Error("empty registry should have no valid spawn point")
	}
	if _, ok := r.Claim(); ok {
		t.Error("Claim on empty registry should fail")
	}
}

func TestRegistryClaim(t *testing.T) {
	r := NewRegistry()
	r.Register(wfc.SpawnPoint{X: 1, Y: 1, TileID: "floor"})
	r.Register(wfc.SpawnPoint{X: 2, Y: 1, TileID: "floor"})

	p, ok := r.Claim()
	if !ok || p.X != 1 || p.Y != 1 {
		t.Fatalf("first claim = %+v, %v; want (1,1)", p, ok)
	}
	if !r.HasValidSpawnPoint(true) {
		t.Error("one point is still unclaimed")
	}

	if p, ok = r.Claim(); !ok || p.X != 2 {
		t.Fatalf("second claim = %+v, %v; want (2,1)", p, ok)
	}
	if r.HasValidSpawnPoint(true) {
		t.Error("all points claimed, requireUnused should fail")
	}
	if !r.HasValidSpawnPoint(false) {
		t.Error("claimed points still count when unused is not required")
	}

	r.Release(1, 1)
	if !r.HasValidSpawnPoint(true) {
		t.Error("released point should be unclaimed again")
	}
}

func TestRegistryDeduplicatesCells(t *testing.T) {
	r := NewRegistry()
	r.Register(wfc.SpawnPoint{X: 3, Y: 4, TileID: "a"})
	r.Register(wfc.SpawnPoint{X: 3, Y: 4, TileID: "b"})

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if got := r.Points()[0].TileID; got != "a" {
		t.Errorf("first registration should win, got %q", got)
	}
}

func TestRegistryResetKeepsClaims(t *testing.T) {
	r := NewRegistry()
	r.Register(wfc.SpawnPoint{X: 1, Y: 1})
	r.Claim()
	r.Reset()

	if r.Count() != 0 || r.HasValidSpawnPoint(false) {
		t.Error("Reset should drop all points")
	}
	if r.Claimed() != 1 {
		t.Errorf("Claimed() = %d after Reset, want 1", r.Claimed())
	}

	// the level is regenerated with a spawn on the claimed cell only
	r.Register(wfc.SpawnPoint{X: 1, Y: 1})
	if !r.HasValidSpawnPoint(false) {
		t.Error("any spawn point should satisfy the relaxed check")
	}
	if r.HasValidSpawnPoint(true) {
		t.Error("a claimed cell should not count as unused after Reset")
	}

	r.Register(wfc.SpawnPoint{X: 2, Y: 3})
	if !r.HasValidSpawnPoint(true) {
		t.Error("a new cell should count as unused")
	}

	r.ReleaseAll()
	if r.Claimed() != 0 {
		t.Errorf("Claimed() = %d after ReleaseAll, want 0", r.Claimed())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register(wfc.SpawnPoint{X: i, Y: 0})
			r.HasValidSpawnPoint(true)
			r.Points()
		}(i)
	}
	wg.Wait()

	if r.Count() != 20 {
		t.Errorf("Count() = %d, want 20", r.Count())
	}
}

// Registry satisfies the generator's collaborator interface
var _ wfc.SpawnRegistry = (*Registry)(nil)

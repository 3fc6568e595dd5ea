package wfc

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("wfc: level failed validation")

// ValidationError carries the first issue the validator found
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "wfc: level failed validation: " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AdjacencyCheck selects how the validator counts barrier neighbors
type AdjacencyCheck string

const (
	// AdjacencyStrict counts every barrier neighbor of a cell
	AdjacencyStrict AdjacencyCheck = "strict"
	// AdjacencyLegacy counts at most one barrier neighbor per cell, matching
	// an if/else-if chain over the four directions. With a threshold above
	// one it never fails a level.
	AdjacencyLegacy AdjacencyCheck = "legacy"
)

// ParseAdjacencyCheck converts a config string to an AdjacencyCheck
func ParseAdjacencyCheck(s string) (AdjacencyCheck, bool) {
	switch AdjacencyCheck(s) {
	case "", AdjacencyStrict:
		return AdjacencyStrict, true
	case AdjacencyLegacy:
		return AdjacencyLegacy, true
	}
	return AdjacencyStrict, false
}

// DefaultMaxWallNeighbors is the barrier-neighbor count at which an
// interior cell is considered boxed in
const DefaultMaxWallNeighbors = 4

// Validator runs post-generation sanity checks
type Validator struct {
	Spawns           SpawnRegistry
	RequireUnused    bool
	Check            AdjacencyCheck
	MaxWallNeighbors int
	Wall             *TileDefinition
}

// Validate returns a *ValidationError describing the first failed check,
// or nil if the grid is playable
func (v *Validator) Validate(g *Grid) error {
	if n := g.EmptyCount(); n > 0 {
		return &ValidationError{Reason: fmt.Sprintf("%d cells left uncollapsed", n)}
	}

	if v.Spawns == nil || !v.Spawns.HasValidSpawnPoint(v.RequireUnused) {
		return &ValidationError{Reason: "no valid spawn point"}
	}

	limit := v.MaxWallNeighbors
	if limit <= 0 {
		limit = DefaultMaxWallNeighbors
	}

	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			if v.isBarrier(g.At(x, y)) {
				continue
			}
			if count := v.barrierNeighbors(g, x, y); count >= limit {
				return &ValidationError{
					Reason: fmt.Sprintf("cell (%d,%d) is boxed in by %d walls", x, y, count),
				}
			}
		}
	}

	return nil
}

func (v *Validator) barrierNeighbors(g *Grid, x, y int) int {
	count := 0
	for _, dir := range AllDirections() {
		if v.isBarrier(g.Neighbor(x, y, dir)) {
			count++
			if v.Check == AdjacencyLegacy {
				break
			}
		}
	}
	return count
}

func (v *Validator) isBarrier(inst *TileInstance) bool {
	if inst == nil {
		return false
	}
	return (v.Wall != nil && inst.Def == v.Wall) || inst.Def.Tags.Has(TagBarrier)
}

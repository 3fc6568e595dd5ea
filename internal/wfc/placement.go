package wfc

import (
	"fmt"
	"math/rand"
)

// fixedPlacementDraws is how many random cells are tried for a fixed tile
// before falling back to an exhaustive scan
const fixedPlacementDraws = 50

// PlacementFailure records a fixed tile that found no legal position.
// Generation continues without it.
type PlacementFailure struct {
	TileID string
}

func (f PlacementFailure) Error() string {
	return fmt.Sprintf("wfc: no legal position for fixed tile %q", f.TileID)
}

// placementPass places mandatory content before free collapse: the
// boundary ring, then each fixed tile in descriptor order
type placementPass struct {
	grid *Grid
	desc *Descriptor
	rng  *rand.Rand
}

func newPlacementPass(grid *Grid, desc *Descriptor, rng *rand.Rand) *placementPass {
	return &placementPass{grid: grid, desc: desc, rng: rng}
}

// run executes boundary and fixed placement and returns the fixed tiles
// that could not be placed
func (p *placementPass) run() []PlacementFailure {
	if p.desc.Enclose {
		p.placeBoundary()
	}

	var failures []PlacementFailure
	for _, def := range p.desc.Fixed {
		if _, ok := p.placeFixed(def); !ok {
			failures = append(failures, PlacementFailure{TileID: def.ID})
		}
	}
	return failures
}

// placeBoundary puts the wall tile on every perimeter cell. Walls are always
// legal at the edge, so no compatibility check is made.
func (p *placementPass) placeBoundary() int {
	placed := 0
	for y := 0; y < p.grid.Height; y++ {
		for x := 0; x < p.grid.Width; x++ {
			if !p.grid.IsBoundary(x, y) || !p.grid.IsEmpty(x, y) {
				continue
			}
			if _, err := p.grid.Place(p.desc.Wall, x, y); err == nil {
				placed++
			}
		}
	}
	return placed
}

// placeFixed tries random draws inside the tile's placement rectangle, then
// scans every cell in row-major order
func (p *placementPass) placeFixed(def *TileDefinition) (*TileInstance, bool) {
	x0, y0, x1, y1, ok := def.Placement.Bounds(p.grid.Width, p.grid.Height, p.desc.Enclose)
	if ok {
		for i := 0; i < fixedPlacementDraws; i++ {
			x := x0 + p.rng.Intn(x1-x0+1)
			y := y0 + p.rng.Intn(y1-y0+1)
			if p.canPlace(def, x, y) {
				return p.place(def, x, y)
			}
		}
	}

	for y := 0; y < p.grid.Height; y++ {
		for x := 0; x < p.grid.Width; x++ {
			if p.canPlace(def, x, y) {
				return p.place(def, x, y)
			}
		}
	}

	return nil, false
}

func (p *placementPass) place(def *TileDefinition, x, y int) (*TileInstance, bool) {
	inst, err := p.grid.Place(def, x, y)
	return inst, err == nil
}

// canPlace checks emptiness, footprint fit, the boundary predicate and
// compatibility with every placed neighbor around the footprint
func (p *placementPass) canPlace(def *TileDefinition, x, y int) bool {
	if !p.grid.IsEmpty(x, y) {
		return false
	}
	fp := def.Size()
	if !def.Placement.Permits(x, y, fp, p.grid.Width, p.grid.Height, p.desc.Enclose) {
		return false
	}
	if !p.grid.Fits(def, x, y) {
		return false
	}
	return footprintCompatible(p.grid, def, x, y)
}

// footprintCompatible checks def anchored at (x, y) against every placed
// cell bordering its footprint. Both sides must list each other.
func footprintCompatible(g *Grid, def *TileDefinition, x, y int) bool {
	fp := def.Size()
	for cx := x; cx < x+fp.Width; cx++ {
		for cy := y; cy < y+fp.Depth; cy++ {
			for _, dir := range AllDirections() {
				dx, dy := dir.Offset()
				nx, ny := cx+dx, cy+dy
				if nx >= x && nx < x+fp.Width && ny >= y && ny < y+fp.Depth {
					continue
				}
				n := g.At(nx, ny)
				if n == nil {
					continue
				}
				if !def.CompatibleWith(dir, n.Def) {
					return false
				}
			}
		}
	}
	return true
}

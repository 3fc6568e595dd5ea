package wfc

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration    = errors.New("wfc: invalid configuration")
	ErrInvalidSize      = errors.New("wfc: invalid grid size")
	ErrInvalidLotSize   = errors.New("wfc: lot size must be positive")
	ErrNoTiles          = errors.New("wfc: tile catalog is empty")
	ErrNoDefaultTile    = errors.New("wfc: descriptor has no default tile")
	ErrNoWallTile       = errors.New("wfc: enclosed descriptor has no wall tile")
	ErrOversizedFill    = errors.New("wfc: wall and default tiles must have a 1x1 footprint")
	ErrUnknownNeighbour = errors.New("wfc: compatibility list references a nil tile")
	ErrNilTile          = errors.New("wfc: nil tile definition")
)

// LotSize is the world-space extent of one grid cell
type LotSize struct {
	Width float64
	Depth float64
}

// Descriptor is the read-only level configuration one generation works from
type Descriptor struct {
	Name    string
	Width   int
	Height  int
	LotSize LotSize

	// Seed seeds generation when positive; otherwise a time-derived seed is used
	Seed int64

	Enclose bool
	Wall    *TileDefinition
	Default *TileDefinition

	Tiles        []*TileDefinition // full catalog for this level
	Forbidden    []string          // tile IDs never collapsed into this level
	ExcludedTags TagSet
	Fixed        []*TileDefinition // pre-placed in this order before collapse
}

// Validate checks the descriptor for configuration failures. Every error
// it returns wraps ErrConfiguration.
func (d *Descriptor) Validate() error {
	fail := func(err error) error {
		return fmt.Errorf("descriptor %q: %w: %w", d.Name, ErrConfiguration, err)
	}

	if d.Width < 1 || d.Height < 1 {
		return fail(ErrInvalidSize)
	}
	if d.Enclose && (d.Width < 3 || d.Height < 3) {
		return fail(ErrInvalidSize)
	}
	if d.LotSize.Width <= 0 || d.LotSize.Depth <= 0 {
		return fail(ErrInvalidLotSize)
	}
	if len(d.Tiles) == 0 {
		return fail(ErrNoTiles)
	}
	if d.Default == nil {
		return fail(ErrNoDefaultTile)
	}
	if d.Default.Size().Area() != 1 {
		return fail(ErrOversizedFill)
	}
	if d.Enclose {
		if d.Wall == nil {
			return fail(ErrNoWallTile)
		}
		if d.Wall.Size().Area() != 1 {
			return fail(ErrOversizedFill)
		}
	}

	for i, t := range d.Tiles {
		if t == nil {
			return fail(fmt.Errorf("%w: tiles[%d]", ErrNilTile, i))
		}
	}
	for i, t := range d.Fixed {
		if t == nil {
			return fail(fmt.Errorf("%w: fixed[%d]", ErrNilTile, i))
		}
	}

	for _, t := range d.Tiles {
		for _, dir := range AllDirections() {
			for _, adj := range t.Neighbors[dir] {
				if adj.Tile == nil {
					return fail(fmt.Errorf("%w: %s %s", ErrUnknownNeighbour, t.ID, dir))
				}
			}
		}
	}

	return nil
}

// Tile returns the catalog entry with the given ID, or nil
func (d *Descriptor) Tile(id string) *TileDefinition {
	for _, t := range d.Tiles {
		if t.ID == id {
			return t
		}
	}
	return nil
}

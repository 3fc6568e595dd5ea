package wfc

import "math"

// Direction represents a cardinal direction in the grid
type Direction int

const (
	North Direction = iota // -Y
	East                   // +X
	South                  // +Y
	West                   // -X
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		return d
	}
}

// Offset returns the grid delta for one step in the direction
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	}
	return 0, 0
}

// ParseDirection converts a direction name to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "north", "n", "-y":
		return North, true
	case "east", "e", "+x":
		return East, true
	case "south", "s", "+y":
		return South, true
	case "west", "w", "-x":
		return West, true
	}
	return North, false
}

// AllDirections returns all four cardinal directions
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

// TagSet is a bitset of tile type tags
type TagSet uint64

// TagBarrier marks tiles that count as walls for adjacency validation.
// Catalogs always map the "barrier" tag to this bit.
const TagBarrier TagSet = 1

// Has returns true if any bit of other is set in t
func (t TagSet) Has(other TagSet) bool {
	return t&other != 0
}

// Footprint is the number of grid cells a tile covers along X (Width) and Y (Depth)
type Footprint struct {
	Width int
	Depth int
}

// Area returns the number of covered cells
func (f Footprint) Area() int {
	return f.Width * f.Depth
}

// Adjacency is one entry of a directional compatibility list
type Adjacency struct {
	Tile   *TileDefinition
	Weight int
}

// PlacementRule constrains where a fixed tile may be placed. The rectangle is
// expressed in fractions of the map extent; a zero rule covers the whole map.
type PlacementRule struct {
	MinX, MinY float64
	MaxX, MaxY float64

	// AllowBoundary permits the footprint to touch the outer ring. Ignored
	// for enclosed levels, whose ring always holds walls.
	AllowBoundary bool
}

func (p PlacementRule) isZero() bool {
	return p.MinX == 0 && p.MinY == 0 && p.MaxX == 0 && p.MaxY == 0
}

// Bounds converts the normalized rectangle into an inclusive cell range.
// When enclosed, the range is clamped to interior cells. ok is false when
// the range is empty.
func (p PlacementRule) Bounds(width, height int, enclose bool) (x0, y0, x1, y1 int, ok bool) {
	minX, minY, maxX, maxY := p.MinX, p.MinY, p.MaxX, p.MaxY
	if p.isZero() {
		maxX, maxY = 1, 1
	}

	x0 = int(minX * float64(width))
	y0 = int(minY * float64(height))
	x1 = int(math.Ceil(maxX*float64(width))) - 1
	y1 = int(math.Ceil(maxY*float64(height))) - 1

	lo, hiX, hiY := 0, width-1, height-1
	if enclose || !p.AllowBoundary {
		lo, hiX, hiY = 1, width-2, height-2
	}
	x0, y0 = max(x0, lo), max(y0, lo)
	x1, y1 = min(x1, hiX), min(y1, hiY)

	return x0, y0, x1, y1, x0 <= x1 && y0 <= y1
}

// Permits reports whether a footprint anchored at (x, y) satisfies the
// boundary predicate of the rule
func (p PlacementRule) Permits(x, y int, fp Footprint, width, height int, enclose bool) bool {
	if x < 0 || y < 0 || x+fp.Width > width || y+fp.Depth > height {
		return false
	}
	if enclose || !p.AllowBoundary {
		if x == 0 || y == 0 || x+fp.Width >= width || y+fp.Depth >= height {
			return false
		}
	}
	return true
}

// TileDefinition is an immutable catalog entry describing one kind of
// placeable content and what may sit next to it.
type TileDefinition struct {
	ID        string
	Kind      string // selects the content generator
	Glyph     rune
	Footprint Footprint
	Neighbors [4][]Adjacency // indexed by Direction
	Tags      TagSet
	Placement PlacementRule
}

// NewTileDefinition creates a 1x1 tile definition
func NewTileDefinition(id, kind string, glyph rune) *TileDefinition {
	return &TileDefinition{
		ID:        id,
		Kind:      kind,
		Glyph:     glyph,
		Footprint: Footprint{Width: 1, Depth: 1},
	}
}

// Size returns the footprint, treating unset dimensions as 1
func (t *TileDefinition) Size() Footprint {
	fp := t.Footprint
	if fp.Width < 1 {
		fp.Width = 1
	}
	if fp.Depth < 1 {
		fp.Depth = 1
	}
	return fp
}

// Allow adds other to the compatibility list for dir
func (t *TileDefinition) Allow(dir Direction, other *TileDefinition, weight int) {
	t.Neighbors[dir] = append(t.Neighbors[dir], Adjacency{Tile: other, Weight: weight})
}

// AllowAll adds other to the compatibility list of every direction
func (t *TileDefinition) AllowAll(other *TileDefinition, weight int) {
	for _, dir := range AllDirections() {
		t.Allow(dir, other, weight)
	}
}

// Allows returns the summed weight of other in the list for dir and whether
// it is listed at all
func (t *TileDefinition) Allows(dir Direction, other *TileDefinition) (int, bool) {
	weight, found := 0, false
	for _, adj := range t.Neighbors[dir] {
		if adj.Tile == other {
			weight += adj.Weight
			found = true
		}
	}
	return weight, found
}

// CompatibleWith returns true if t may sit with other on its dir side and
// other lists t back on the reciprocal side
func (t *TileDefinition) CompatibleWith(dir Direction, other *TileDefinition) bool {
	if _, ok := t.Allows(dir, other); !ok {
		return false
	}
	_, ok := other.Allows(dir.Opposite(), t)
	return ok
}

// String returns the tile ID
func (t *TileDefinition) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.ID
}

package wfc

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/levelgen/internal/scene"
)

var ErrOverlap = errors.New("wfc: footprint overlaps placed tile or leaves grid")

// TileInstance is a placed occurrence of a TileDefinition. All cells of its
// footprint reference the same instance.
type TileInstance struct {
	Def      *TileDefinition
	X, Y     int // anchor cell (minimum corner of the footprint)
	Position scene.Vec3
	Node     *scene.Node // content subtree, set once content is generated
}

// Covers returns true if the instance's footprint includes (x, y)
func (ti *TileInstance) Covers(x, y int) bool {
	fp := ti.Def.Size()
	return x >= ti.X && x < ti.X+fp.Width && y >= ti.Y && y < ti.Y+fp.Depth
}

// Grid is the mutable working state of one generation attempt. Cells are
// indexed cells[x][y].
type Grid struct {
	Width, Height int
	Origin        scene.Vec3
	Lot           LotSize

	cells     [][]*TileInstance
	instances []*TileInstance
}

// NewGrid creates an empty grid
func NewGrid(width, height int, origin scene.Vec3, lot LotSize) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		Origin: origin,
		Lot:    lot,
	}
	g.cells = make([][]*TileInstance, width)
	for x := range g.cells {
		g.cells[x] = make([]*TileInstance, height)
	}
	return g
}

// InBounds returns true if (x, y) is inside the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// IsBoundary returns true if (x, y) lies on the outer ring
func (g *Grid) IsBoundary(x, y int) bool {
	return x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1
}

// At returns the instance covering (x, y), or nil if empty or out of bounds
func (g *Grid) At(x, y int) *TileInstance {
	if !g.InBounds(x, y) {
		return nil
	}
	return g.cells[x][y]
}

// IsEmpty returns true if (x, y) is inside the grid and uncollapsed
func (g *Grid) IsEmpty(x, y int) bool {
	return g.InBounds(x, y) && g.cells[x][y] == nil
}

// Neighbor returns the instance one step from (x, y) in dir, or nil
func (g *Grid) Neighbor(x, y int, dir Direction) *TileInstance {
	dx, dy := dir.Offset()
	return g.At(x+dx, y+dy)
}

// EmptyCount returns the number of uncollapsed cells
func (g *Grid) EmptyCount() int {
	count := 0
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if g.cells[x][y] == nil {
				count++
			}
		}
	}
	return count
}

// PlacedCount returns the number of placed instances
func (g *Grid) PlacedCount() int {
	return len(g.instances)
}

// Fits returns true if def's footprint anchored at (x, y) lies inside the
// grid and covers only empty cells
func (g *Grid) Fits(def *TileDefinition, x, y int) bool {
	fp := def.Size()
	if x < 0 || y < 0 || x+fp.Width > g.Width || y+fp.Depth > g.Height {
		return false
	}
	for cx := x; cx < x+fp.Width; cx++ {
		for cy := y; cy < y+fp.Depth; cy++ {
			if g.cells[cx][cy] != nil {
				return false
			}
		}
	}
	return true
}

// Place puts def at (x, y), covering its whole footprint
func (g *Grid) Place(def *TileDefinition, x, y int) (*TileInstance, error) {
	if !g.Fits(def, x, y) {
		return nil, ErrOverlap
	}

	inst := &TileInstance{
		Def:      def,
		X:        x,
		Y:        y,
		Position: g.WorldPosition(x, y),
	}

	fp := def.Size()
	for cx := x; cx < x+fp.Width; cx++ {
		for cy := y; cy < y+fp.Depth; cy++ {
			g.cells[cx][cy] = inst
		}
	}
	g.instances = append(g.instances, inst)
	return inst, nil
}

// Instances returns every placed instance sorted by anchor, Y then X
func (g *Grid) Instances() []*TileInstance {
	out := make([]*TileInstance, len(g.instances))
	copy(out, g.instances)
	SortInstancesByPosition(out)
	return out
}

// WorldPosition converts a cell coordinate to world space
func (g *Grid) WorldPosition(x, y int) scene.Vec3 {
	return scene.Vec3{
		X: g.Origin.X + float64(x)*g.Lot.Width,
		Y: g.Origin.Y,
		Z: g.Origin.Z + float64(y)*g.Lot.Depth,
	}
}

// CellAt converts a world position to the cell containing it. ok is false
// if the position falls outside the grid.
func (g *Grid) CellAt(pos scene.Vec3) (x, y int, ok bool) {
	if g.Lot.Width <= 0 || g.Lot.Depth <= 0 {
		return 0, 0, false
	}
	x = int(math.Floor((pos.X - g.Origin.X) / g.Lot.Width))
	y = int(math.Floor((pos.Z - g.Origin.Z) / g.Lot.Depth))
	return x, y, g.InBounds(x, y)
}

// Fingerprint returns a BLAKE2b-256 digest of the layout: dimensions plus
// the tile ID and anchor of every cell. Identical layouts always produce
// identical fingerprints.
func (g *Grid) Fingerprint() string {
	h, _ := blake2b.New256(nil)

	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	writeInt(g.Width)
	writeInt(g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			inst := g.cells[x][y]
			if inst == nil {
				writeInt(-1)
				continue
			}
			h.Write([]byte(inst.Def.ID))
			h.Write([]byte{0})
			writeInt(inst.X)
			writeInt(inst.Y)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// SortInstancesByPosition sorts instances by Y then X for deterministic output
func SortInstancesByPosition(instances []*TileInstance) {
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Y != instances[j].Y {
			return instances[i].Y < instances[j].Y
		}
		return instances[i].X < instances[j].X
	})
}

// String renders the grid one row per line using tile glyphs. Empty cells
// print as '?'.
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			inst := g.cells[x][y]
			switch {
			case inst == nil:
				sb.WriteRune('?')
			case inst.Def.Glyph != 0:
				sb.WriteRune(inst.Def.Glyph)
			default:
				sb.WriteRune('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

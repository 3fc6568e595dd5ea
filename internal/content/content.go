// Package content builds the scene content of placed tiles. Generators are
// selected by the tile definition's Kind.
package content

import (
	"fmt"
	"sort"

	"github.com/lawnchairsociety/levelgen/internal/scene"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// Node kinds created by the built-in generators
const (
	KindFloor = "floor"
	KindWall  = "wall"
	KindSpawn = "spawn"
	KindProp  = "prop"
)

// Default chances used by DefaultRegistry
const (
	DefaultPropChance      = 0.3
	DefaultRoomSpawnChance = 0.5
)

// Func adapts a plain function to wfc.TileContentGenerator
type Func func(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext)

// Generate calls f
func (f Func) Generate(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
	f(x, y, grid, ctx)
}

// Registry maps tile kinds to content generators
type Registry struct {
	generators map[string]wfc.TileContentGenerator
	fallback   wfc.TileContentGenerator
}

// NewRegistry creates an empty registry with no fallback
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]wfc.TileContentGenerator)}
}

// DefaultRegistry returns a registry with the built-in generators. Unknown
// kinds get plain floor content.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("floor", Func(Floor))
	r.Register("wall", Func(Wall))
	r.Register("spawn", Func(Spawn))
	r.Register("room", Room(DefaultRoomSpawnChance))
	r.Register("decor", Decor(DefaultPropChance))
	r.SetFallback(Func(Floor))
	return r
}

// Register binds a generator to a tile kind, replacing any previous one
func (r *Registry) Register(kind string, gen wfc.TileContentGenerator) {
	r.generators[kind] = gen
}

// SetFallback sets the generator used for kinds with no registration
func (r *Registry) SetFallback(gen wfc.TileContentGenerator) {
	r.fallback = gen
}

// GeneratorFor implements wfc.ContentProvider
func (r *Registry) GeneratorFor(def *wfc.TileDefinition) wfc.TileContentGenerator {
	if gen, ok := r.generators[def.Kind]; ok {
		return gen
	}
	return r.fallback
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.generators))
	for k := range r.generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// addCellNodes adds one node of the given kind per cell of the instance's
// footprint
func addCellNodes(grid *wfc.Grid, ctx *wfc.ContentContext, kind string) {
	inst := ctx.Instance
	fp := inst.Def.Size()
	for cy := inst.Y; cy < inst.Y+fp.Depth; cy++ {
		for cx := inst.X; cx < inst.X+fp.Width; cx++ {
			n := scene.NewNode(fmt.Sprintf("%s %d,%d", kind, cx, cy), grid.WorldPosition(cx, cy))
			n.Kind = kind
			ctx.Node.AddChild(n)
		}
	}
}

// addSpawn registers a spawn point on cell (x, y) and marks it in the scene
func addSpawn(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
	pos := grid.WorldPosition(x, y)
	marker := scene.NewNode(fmt.Sprintf("spawn %d,%d", x, y), pos)
	marker.Kind = KindSpawn
	ctx.Node.AddChild(marker)

	if ctx.Spawns != nil {
		ctx.Spawns.Register(wfc.SpawnPoint{X: x, Y: y, Position: pos, TileID: ctx.Instance.Def.ID})
	}
}

// Floor lays a walkable floor over the tile's footprint
func Floor(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
	addCellNodes(grid, ctx, KindFloor)
}

// Wall builds solid geometry over the tile's footprint
func Wall(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
	addCellNodes(grid, ctx, KindWall)
}

// Spawn lays floor and registers a spawn point on the anchor cell
func Spawn(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
	addCellNodes(grid, ctx, KindFloor)
	addSpawn(x, y, grid, ctx)
}

// Room lays floor over a multi-cell room and, with the given chance,
// registers a spawn point on its centre cell
func Room(spawnChance float64) Func {
	return func(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
		addCellNodes(grid, ctx, KindFloor)
		if ctx.Rand.Float64() < spawnChance {
			fp := ctx.Instance.Def.Size()
			addSpawn(x+fp.Width/2, y+fp.Depth/2, grid, ctx)
		}
	}
}

// Decor lays floor and, with the given chance, adds a prop at a random
// offset inside the anchor lot
func Decor(propChance float64) Func {
	return func(x, y int, grid *wfc.Grid, ctx *wfc.ContentContext) {
		addCellNodes(grid, ctx, KindFloor)
		if ctx.Rand.Float64() >= propChance {
			return
		}
		offset := scene.Vec3{
			X: ctx.Rand.Float64() * grid.Lot.Width,
			Z: ctx.Rand.Float64() * grid.Lot.Depth,
		}
		prop := scene.NewNode(fmt.Sprintf("prop %d,%d", x, y), grid.WorldPosition(x, y).Add(offset))
		prop.Kind = KindProp
		ctx.Node.AddChild(prop)
	}
}

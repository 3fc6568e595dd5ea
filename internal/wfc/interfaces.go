package wfc

import (
	"context"
	"math/rand"

	"github.com/lawnchairsociety/levelgen/internal/scene"
)

// SpawnPoint is a location where the player may enter the level
type SpawnPoint struct {
	X, Y     int
	Position scene.Vec3
	TileID   string
}

// SpawnRegistry collects the spawn points registered by content generators.
// The validator queries it once per attempt.
type SpawnRegistry interface {
	Register(p SpawnPoint)
	HasValidSpawnPoint(requireUnused bool) bool
	Reset()
}

// ContentContext is handed to a TileContentGenerator for each placed tile
type ContentContext struct {
	Descriptor *Descriptor
	Instance   *TileInstance
	Node       *scene.Node // the instance's scene node; children hang off it
	Rand       *rand.Rand
	Spawns     SpawnRegistry
}

// TileContentGenerator populates one placed tile. It is fire-and-forget:
// any failure is the generator's own concern.
type TileContentGenerator interface {
	Generate(x, y int, grid *Grid, ctx *ContentContext)
}

// ContentProvider selects the content generator for a tile definition.
// A nil generator means the tile has no content beyond its node.
type ContentProvider interface {
	GeneratorFor(def *TileDefinition) TileContentGenerator
}

// Reporter receives the report of every Generate call
type Reporter interface {
	Report(ctx context.Context, r *Report) error
}

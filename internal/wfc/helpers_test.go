package wfc

import (
	"context"
	"math/rand"

	"github.com/lawnchairsociety/levelgen/internal/scene"
)

// fakeSpawns is an in-memory SpawnRegistry. The first denyFirst queries
// report no valid spawn point regardless of registrations.
type fakeSpawns struct {
	points    []SpawnPoint
	denyFirst int
	queries   int
	resets    int
}

func (f *fakeSpawns) Register(p SpawnPoint) {
	f.points = append(f.points, p)
}

func (f *fakeSpawns) HasValidSpawnPoint(bool) bool {
	f.queries++
	if f.queries <= f.denyFirst {
		return false
	}
	return len(f.points) > 0
}

func (f *fakeSpawns) Reset() {
	f.points = nil
	f.resets++
}

// spawnOnKind registers a spawn point on every tile of the given kind and
// counts invocations
type spawnOnKind struct {
	kind  string
	calls int
}

func (s *spawnOnKind) Generate(x, y int, grid *Grid, ctx *ContentContext) {
	s.calls++
	if ctx.Instance.Def.Kind != s.kind {
		return
	}
	ctx.Node.AddChild(scene.NewNode("spawn", ctx.Instance.Position)).Kind = "spawn"
	ctx.Spawns.Register(SpawnPoint{X: x, Y: y, Position: ctx.Instance.Position, TileID: ctx.Instance.Def.ID})
}

// singleProvider returns the same generator for every tile
type singleProvider struct {
	gen TileContentGenerator
}

func (p singleProvider) GeneratorFor(*TileDefinition) TileContentGenerator {
	return p.gen
}

type recordingReporter struct {
	reports []*Report
}

func (r *recordingReporter) Report(_ context.Context, rep *Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// twoRegionLevel is a 5x5 enclosed level whose content tiles A and B only
// accept their own kind or walls
func twoRegionLevel() *Descriptor {
	w := NewTileDefinition("W", "wall", '#')
	d := NewTileDefinition("D", "floor", '.')
	a := NewTileDefinition("A", "floor", 'a')
	b := NewTileDefinition("B", "floor", 'b')

	w.AllowAll(a, 1)
	w.AllowAll(b, 1)
	a.AllowAll(a, 1)
	a.AllowAll(w, 1)
	b.AllowAll(b, 1)
	b.AllowAll(w, 1)

	return &Descriptor{
		Name:      "two-region",
		Width:     5,
		Height:    5,
		LotSize:   LotSize{Width: 1, Depth: 1},
		Enclose:   true,
		Wall:      w,
		Default:   d,
		Tiles:     []*TileDefinition{w, d, a, b},
		Forbidden: []string{"W"},
	}
}

// cramped is a 3x3 enclosed level with a 2x2 fixed tile that cannot fit
func cramped() *Descriptor {
	w := NewTileDefinition("W", "wall", '#')
	d := NewTileDefinition("D", "floor", '.')
	p := NewTileDefinition("P", "pad", 'P')
	p.Footprint = Footprint{Width: 2, Depth: 2}
	p.AllowAll(w, 1)
	w.AllowAll(p, 1)

	return &Descriptor{
		Name:    "cramped",
		Width:   3,
		Height:  3,
		LotSize: LotSize{Width: 2, Depth: 2},
		Enclose: true,
		Wall:    w,
		Default: d,
		Tiles:   []*TileDefinition{w, d, p},
		Fixed:   []*TileDefinition{p},
	}
}

// dungeon is a 12x10 enclosed level mixing 1x1 floor, 2x2 rooms and a
// fixed 2x2 pad
func dungeon() *Descriptor {
	w := NewTileDefinition("W", "wall", '#')
	f := NewTileDefinition("F", "floor", '.')
	r := NewTileDefinition("R", "room", 'R')
	r.Footprint = Footprint{Width: 2, Depth: 2}
	p := NewTileDefinition("P", "pad", 'P')
	p.Footprint = Footprint{Width: 2, Depth: 2}
	p.Placement = PlacementRule{MinX: 0.25, MinY: 0.25, MaxX: 0.75, MaxY: 0.75}

	w.AllowAll(f, 3)
	w.AllowAll(r, 1)
	w.AllowAll(p, 1)
	f.AllowAll(f, 3)
	f.AllowAll(r, 1)
	f.AllowAll(w, 1)
	f.AllowAll(p, 1)
	r.AllowAll(f, 1)
	r.AllowAll(w, 1)
	p.AllowAll(f, 1)
	p.AllowAll(w, 1)

	return &Descriptor{
		Name:      "dungeon",
		Width:     12,
		Height:    10,
		LotSize:   LotSize{Width: 4, Depth: 4},
		Enclose:   true,
		Wall:      w,
		Default:   f,
		Tiles:     []*TileDefinition{w, f, r, p},
		Forbidden: []string{"W", "P"},
		Fixed:     []*TileDefinition{p},
	}
}

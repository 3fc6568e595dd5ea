package wfc

import (
	"errors"
	"strings"
	"testing"

	"github.com/lawnchairsociety/levelgen/internal/scene"
)

func TestGridPlaceFootprint(t *testing.T) {
	g := NewGrid(4, 4, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
	room := NewTileDefinition("room", "room", 'R')
	room.Footprint = Footprint{Width: 2, Depth: 3}

	inst, err := g.Place(room, 1, 0)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			covered := x >= 1 && x <= 2 && y <= 2
			if got := g.At(x, y); covered && got != inst {
				t.Errorf("cell (%d,%d) should reference the room instance", x, y)
			} else if !covered && got != nil {
				t.Errorf("cell (%d,%d) should be empty", x, y)
			}
			if inst.Covers(x, y) != covered {
				t.Errorf("Covers(%d,%d) = %v, want %v", x, y, !covered, covered)
			}
		}
	}

	if got := g.EmptyCount(); got != 10 {
		t.Errorf("EmptyCount() = %d, want 10", got)
	}
	if got := g.PlacedCount(); got != 1 {
		t.Errorf("PlacedCount() = %d, want 1", got)
	}
}

func TestGridPlaceRejectsOverlap(t *testing.T) {
	g := NewGrid(3, 3, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
	floor := NewTileDefinition("floor", "floor", '.')
	big := NewTileDefinition("big", "room", 'B')
	big.Footprint = Footprint{Width: 2, Depth: 2}

	if _, err := g.Place(floor, 1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Place(big, 0, 0); !errors.Is(err, ErrOverlap) {
		t.Errorf("overlapping Place error = %v, want ErrOverlap", err)
	}
	if _, err := g.Place(big, 2, 0); !errors.Is(err, ErrOverlap) {
		t.Errorf("out-of-bounds Place error = %v, want ErrOverlap", err)
	}
	if _, err := g.Place(floor, 1, 1); !errors.Is(err, ErrOverlap) {
		t.Errorf("double Place error = %v, want ErrOverlap", err)
	}
}

func TestGridNeighborAndBoundary(t *testing.T) {
	g := NewGrid(3, 3, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
	floor := NewTileDefinition("floor", "floor", '.')
	inst, _ := g.Place(floor, 1, 0)

	if got := g.Neighbor(1, 1, North); got != inst {
		t.Error("north neighbor of (1,1) should be the instance at (1,0)")
	}
	if got := g.Neighbor(1, 0, North); got != nil {
		t.Error("neighbor outside the grid should be nil")
	}
	if !g.IsBoundary(0, 1) || !g.IsBoundary(2, 2) || g.IsBoundary(1, 1) {
		t.Error("IsBoundary misclassifies cells")
	}
	if g.IsEmpty(-1, 0) {
		t.Error("out-of-bounds cells are never empty")
	}
}

func TestGridWorldPositionRoundTrip(t *testing.T) {
	g := NewGrid(8, 6, scene.Vec3{X: 100, Y: 5, Z: -20}, LotSize{Width: 4, Depth: 2.5})

	pos := g.WorldPosition(3, 2)
	want := scene.Vec3{X: 112, Y: 5, Z: -15}
	if pos != want {
		t.Errorf("WorldPosition(3,2) = %+v, want %+v", pos, want)
	}

	// anywhere inside the lot maps back to the same cell
	probe := pos.Add(scene.Vec3{X: 3.9, Z: 2.4})
	x, y, ok := g.CellAt(probe)
	if !ok || x != 3 || y != 2 {
		t.Errorf("CellAt(%+v) = (%d,%d,%v), want (3,2,true)", probe, x, y, ok)
	}

	if _, _, ok := g.CellAt(scene.Vec3{X: 99, Z: -20}); ok {
		t.Error("position west of the origin should be outside the grid")
	}
}

func TestGridFingerprint(t *testing.T) {
	build := func(second string) *Grid {
		g := NewGrid(2, 1, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
		g.Place(NewTileDefinition("a", "floor", 'a'), 0, 0)
		g.Place(NewTileDefinition(second, "floor", 'x'), 1, 0)
		return g
	}

	if build("b").Fingerprint() != build("b").Fingerprint() {
		t.Error("identical layouts should share a fingerprint")
	}
	if build("b").Fingerprint() == build("c").Fingerprint() {
		t.Error("different layouts should not share a fingerprint")
	}
	if got := len(build("b").Fingerprint()); got != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", got)
	}
}

func TestGridInstancesSorted(t *testing.T) {
	g := NewGrid(3, 3, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
	floor := NewTileDefinition("floor", "floor", '.')
	g.Place(floor, 2, 2)
	g.Place(floor, 0, 1)
	g.Place(floor, 1, 0)
	g.Place(floor, 0, 0)

	var got []string
	for _, inst := range g.Instances() {
		got = append(got, string(rune('0'+inst.X))+string(rune('0'+inst.Y)))
	}
	if strings.Join(got, " ") != "00 10 01 22" {
		t.Errorf("Instances() order = %v, want [00 10 01 22]", got)
	}
}

func TestGridString(t *testing.T) {
	g := NewGrid(3, 2, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
	g.Place(NewTileDefinition("wall", "wall", '#'), 0, 0)
	g.Place(&TileDefinition{ID: "blank"}, 2, 1)

	want := "#??\n??#\n"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

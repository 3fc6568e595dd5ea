package wfc

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lawnchairsociety/levelgen/internal/scene"
)

func lineGrid(width int) *Grid {
	return NewGrid(width, 1, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
}

func candidateIDs(cands []Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.Tile.ID
	}
	return ids
}

func TestCandidatesIntersectAndUnion(t *testing.T) {
	a := NewTileDefinition("a", "floor", 'a')
	b := NewTileDefinition("b", "floor", 'b')
	a.Allow(East, a, 2)
	a.Allow(East, b, 1)
	b.Allow(West, b, 4)

	desc := &Descriptor{Name: "line", Tiles: []*TileDefinition{a, b}}

	g := lineGrid(3)
	g.Place(a, 0, 0)
	g.Place(b, 2, 0)

	inter := NewSolver(g, desc, newRand(1), CandidateIntersect).Candidates(1, 0)
	if len(inter) != 1 || inter[0].Tile != b || inter[0].Weight != 5 {
		t.Errorf("intersect candidates = %v (%+v), want [b] weight 5", candidateIDs(inter), inter)
	}

	union := NewSolver(g, desc, newRand(1), CandidateUnion).Candidates(1, 0)
	// east neighbor is visited before west
	ids := candidateIDs(union)
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("union candidates = %v, want [b a]", ids)
	}
	if union[0].Weight != 5 || union[1].Weight != 2 {
		t.Errorf("union weights = %d, %d; want 5, 2", union[0].Weight, union[1].Weight)
	}
}

func TestCandidatesFilters(t *testing.T) {
	anchor := NewTileDefinition("anchor", "wall", '#')
	keep := NewTileDefinition("keep", "floor", '.')
	banned := NewTileDefinition("banned", "floor", 'x')
	tagged := NewTileDefinition("tagged", "water", '~')
	tagged.Tags = TagSet(1 << 2)
	wide := NewTileDefinition("wide", "room", 'R')
	wide.Footprint = Footprint{Width: 2, Depth: 2}

	anchor.AllowAll(keep, 1)
	anchor.AllowAll(banned, 1)
	anchor.AllowAll(tagged, 1)
	anchor.AllowAll(wide, 1)

	desc := &Descriptor{
		Name:         "filters",
		Tiles:        []*TileDefinition{anchor, keep, banned, tagged, wide},
		Forbidden:    []string{"banned"},
		ExcludedTags: TagSet(1 << 2),
	}

	g := lineGrid(3)
	g.Place(anchor, 0, 0)

	ids := candidateIDs(NewSolver(g, desc, newRand(1), CandidateIntersect).Candidates(1, 0))
	if len(ids) != 1 || ids[0] != "keep" {
		t.Errorf("filtered candidates = %v, want [keep]", ids)
	}
}

func TestCandidatesWithoutPlacedNeighbors(t *testing.T) {
	desc := twoRegionLevel()
	g := NewGrid(5, 5, scene.Vec3{}, desc.LotSize)
	s := NewSolver(g, desc, newRand(1), CandidateIntersect)

	if got := s.Entropy(2, 2); got != 0 {
		t.Errorf("Entropy of isolated cell = %d, want 0", got)
	}
}

func TestSolveRequiresAnchor(t *testing.T) {
	desc := twoRegionLevel()
	g := NewGrid(5, 5, scene.Vec3{}, desc.LotSize)

	err := NewSolver(g, desc, newRand(1), CandidateIntersect).Solve()
	if !errors.Is(err, ErrNoAnchor) {
		t.Errorf("Solve() on empty grid = %v, want ErrNoAnchor", err)
	}
}

func TestSolveFillsDeadEnds(t *testing.T) {
	desc := cramped()
	g := NewGrid(desc.Width, desc.Height, scene.Vec3{}, desc.LotSize)
	newPlacementPass(g, desc, newRand(1)).run()

	s := NewSolver(g, desc, newRand(1), CandidateIntersect)
	if err := s.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if s.DeadEnds != 1 || s.Resolved != 0 {
		t.Errorf("DeadEnds = %d, Resolved = %d; want 1, 0", s.DeadEnds, s.Resolved)
	}
	if inst := g.At(1, 1); inst == nil || inst.Def != desc.Default {
		t.Error("dead end should be filled with the default tile")
	}
}

func TestSolveEntropyOneBatch(t *testing.T) {
	a := NewTileDefinition("a", "floor", 'a')
	a.AllowAll(a, 1)
	desc := &Descriptor{Name: "chain", Default: a, Tiles: []*TileDefinition{a}}

	g := lineGrid(5)
	g.Place(a, 2, 0)

	var steps []Step
	s := NewSolver(g, desc, newRand(1), CandidateIntersect)
	s.OnResolve = func(st Step) { steps = append(steps, st) }
	if err := s.Solve(); err != nil {
		t.Fatal(err)
	}

	if g.EmptyCount() != 0 {
		t.Fatalf("grid not full:\n%s", g)
	}
	// (1,0) and (3,0) resolve together, then (0,0) and (4,0)
	if s.Iterations != 2 || len(steps) != 4 {
		t.Fatalf("Iterations = %d, steps = %d; want 2, 4", s.Iterations, len(steps))
	}
	for _, st := range steps {
		if !st.Batch || st.Entropy != 1 {
			t.Errorf("step %+v should be an entropy-1 batch resolution", st)
		}
	}
	if steps[0].Iteration != steps[1].Iteration || steps[0].Iteration == steps[2].Iteration {
		t.Error("batch steps should share their iteration number")
	}
}

func TestSolveResolvesMinimumEntropyFirst(t *testing.T) {
	w := NewTileDefinition("W", "wall", '#')
	a := NewTileDefinition("a", "floor", 'a')
	b := NewTileDefinition("b", "floor", 'b')
	only := NewTileDefinition("only", "decor", 'o')
	w.AllowAll(a, 1)
	w.AllowAll(b, 1)
	only.AllowAll(a, 1)
	a.AllowAll(a, 1)
	a.AllowAll(b, 1)
	b.AllowAll(a, 1)
	b.AllowAll(b, 1)

	desc := &Descriptor{Name: "order", Default: a, Tiles: []*TileDefinition{w, a, b, only}}

	for seed := int64(1); seed <= 10; seed++ {
		g := NewGrid(5, 3, scene.Vec3{}, LotSize{Width: 1, Depth: 1})
		g.Place(w, 0, 1)
		g.Place(only, 4, 1)

		var steps []Step
		s := NewSolver(g, desc, newRand(seed), CandidateIntersect)
		s.OnResolve = func(st Step) { steps = append(steps, st) }
		if err := s.Solve(); err != nil {
			t.Fatal(err)
		}

		if len(steps) == 0 {
			t.Fatalf("seed %d: no steps recorded", seed)
		}
		// the three cells bordering "only" start at entropy 1 and resolve first
		var first []string
		for _, st := range steps {
			if st.Iteration != 0 {
				break
			}
			if st.Tile != a || !st.Batch {
				t.Errorf("seed %d: first-iteration step %+v should be a batch resolution to a", seed, st)
			}
			first = append(first, fmt.Sprintf("%d,%d", st.X, st.Y))
		}
		if strings.Join(first, " ") != "4,0 3,1 4,2" {
			t.Errorf("seed %d: first iteration resolved %v, want [4,0 3,1 4,2]", seed, first)
		}
		for _, st := range steps {
			if st.Entropy != st.MinEntropy {
				t.Errorf("seed %d: resolved cell (%d,%d) at entropy %d above minimum %d",
					seed, st.X, st.Y, st.Entropy, st.MinEntropy)
			}
		}
	}
}

func TestSolveMaxIterations(t *testing.T) {
	a := NewTileDefinition("a", "floor", 'a')
	a.Allow(East, a, 1)
	desc := &Descriptor{Name: "slow", Default: a, Tiles: []*TileDefinition{a}}

	g := lineGrid(5)
	g.Place(a, 0, 0)

	s := NewSolver(g, desc, newRand(1), CandidateIntersect)
	s.MaxIterations = 2
	if err := s.Solve(); !errors.Is(err, ErrMaxIterations) {
		t.Errorf("Solve() = %v, want ErrMaxIterations", err)
	}
}

func TestSolveTerminatesOnDefaultLimit(t *testing.T) {
	desc := dungeon()
	for seed := int64(1); seed <= 25; seed++ {
		g := NewGrid(desc.Width, desc.Height, scene.Vec3{}, desc.LotSize)
		rng := newRand(seed)
		newPlacementPass(g, desc, rng).run()

		s := NewSolver(g, desc, rng, CandidateIntersect)
		if err := s.Solve(); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if s.Iterations > desc.Width*desc.Height {
			t.Errorf("seed %d: %d iterations exceeds cell count", seed, s.Iterations)
		}
		if g.EmptyCount() != 0 {
			t.Errorf("seed %d: %d empty cells left", seed, g.EmptyCount())
		}
	}
}

func TestWeightedPick(t *testing.T) {
	a := NewTileDefinition("a", "floor", 'a')
	b := NewTileDefinition("b", "floor", 'b')
	rng := newRand(99)

	for i := 0; i < 50; i++ {
		if got := weightedPick(rng, []Candidate{{a, 0}, {b, 5}}); got != b {
			t.Fatalf("zero-weight candidate picked")
		}
	}

	seen := map[*TileDefinition]bool{}
	for i := 0; i < 200; i++ {
		seen[weightedPick(rng, []Candidate{{a, 0}, {b, 0}})] = true
	}
	if !seen[a] || !seen[b] {
		t.Error("all-zero weights should fall back to a uniform choice")
	}

	counts := map[*TileDefinition]int{}
	for i := 0; i < 4000; i++ {
		counts[weightedPick(rng, []Candidate{{a, 1}, {b, 3}})]++
	}
	if counts[b] < 2*counts[a] {
		t.Errorf("weights not respected: a=%d b=%d", counts[a], counts[b])
	}
}

func TestParseCandidateRule(t *testing.T) {
	if r, ok := ParseCandidateRule(""); !ok || r != CandidateIntersect {
		t.Error("empty rule should default to intersect")
	}
	if r, ok := ParseCandidateRule("union"); !ok || r != CandidateUnion {
		t.Error("union should parse")
	}
	if _, ok := ParseCandidateRule("xor"); ok {
		t.Error("unknown rule should not parse")
	}
}

package wfc

import (
	"errors"
	"math/rand"

	"github.com/zyedidia/generic/mapset"
)

var (
	ErrMaxIterations = errors.New("wfc: exceeded maximum iterations")
	ErrNoAnchor      = errors.New("wfc: no placed tile to collapse from")
)

// CandidateRule selects how the candidate lists of several placed
// neighbors are combined
type CandidateRule string

const (
	// CandidateIntersect keeps only tiles every placed neighbor allows
	CandidateIntersect CandidateRule = "intersect"
	// CandidateUnion keeps tiles any placed neighbor allows. It reproduces
	// layouts generated before intersection was introduced.
	CandidateUnion CandidateRule = "union"
)

// ParseCandidateRule converts a config string to a CandidateRule
func ParseCandidateRule(s string) (CandidateRule, bool) {
	switch CandidateRule(s) {
	case "", CandidateIntersect:
		return CandidateIntersect, true
	case CandidateUnion:
		return CandidateUnion, true
	}
	return CandidateIntersect, false
}

// Candidate is one legal tile for an uncollapsed cell
type Candidate struct {
	Tile   *TileDefinition
	Weight int // sum of weights contributed by placed neighbors
}

// Step describes one collapse decision
type Step struct {
	Iteration  int
	X, Y       int
	Tile       *TileDefinition
	Entropy    int
	MinEntropy int
	Batch      bool // resolved as part of an entropy-1 batch
}

type openCell struct {
	x, y       int
	candidates []Candidate
}

// Solver is the collapse engine. It repeatedly recomputes candidate sets for
// every empty cell and resolves the lowest-entropy cells until the grid is
// full or no empty cell has a candidate; leftovers get the default tile.
type Solver struct {
	Grid *Grid
	Desc *Descriptor
	Rule CandidateRule

	// MaxIterations bounds the resolve loop; zero means one per cell
	MaxIterations int

	// OnResolve, if set, is called for every resolved cell
	OnResolve func(Step)

	Iterations int
	Resolved   int
	DeadEnds   int

	rng       *rand.Rand
	forbidden mapset.Set[string]
}

// NewSolver creates a solver over grid. rng is owned by the caller's
// generation attempt and is the only source of randomness.
func NewSolver(grid *Grid, desc *Descriptor, rng *rand.Rand, rule CandidateRule) *Solver {
	forbidden := mapset.New[string]()
	for _, id := range desc.Forbidden {
		forbidden.Put(id)
	}
	if rule == "" {
		rule = CandidateIntersect
	}
	return &Solver{
		Grid:      grid,
		Desc:      desc,
		Rule:      rule,
		rng:       rng,
		forbidden: forbidden,
	}
}

// Solve runs collapse to completion
func (s *Solver) Solve() error {
	if s.Grid.EmptyCount() == 0 {
		return nil
	}
	if s.Grid.PlacedCount() == 0 {
		return ErrNoAnchor
	}

	limit := s.MaxIterations
	if limit <= 0 {
		limit = s.Grid.Width*s.Grid.Height + 1
	}

	for {
		open, empties := s.scan()
		if empties == 0 || len(open) == 0 {
			break
		}
		if s.Iterations >= limit {
			return ErrMaxIterations
		}

		minEntropy := len(open[0].candidates)
		for _, c := range open[1:] {
			minEntropy = min(minEntropy, len(c.candidates))
		}

		if minEntropy == 1 {
			for _, c := range open {
				if len(c.candidates) != 1 {
					continue
				}
				// an earlier cell in this batch may have claimed the space
				if !s.Grid.Fits(c.candidates[0].Tile, c.x, c.y) {
					continue
				}
				s.resolve(c, c.candidates[0].Tile, minEntropy, true)
			}
		} else {
			var tied []openCell
			for _, c := range open {
				if len(c.candidates) == minEntropy {
					tied = append(tied, c)
				}
			}
			c := tied[s.rng.Intn(len(tied))]
			s.resolve(c, weightedPick(s.rng, c.candidates), minEntropy, false)
		}

		s.Iterations++
	}

	s.fillDeadEnds()
	return nil
}

func (s *Solver) resolve(c openCell, def *TileDefinition, minEntropy int, batch bool) {
	if _, err := s.Grid.Place(def, c.x, c.y); err != nil {
		return
	}
	s.Resolved++
	if s.OnResolve != nil {
		s.OnResolve(Step{
			Iteration:  s.Iterations,
			X:          c.x,
			Y:          c.y,
			Tile:       def,
			Entropy:    len(c.candidates),
			MinEntropy: minEntropy,
			Batch:      batch,
		})
	}
}

// scan recomputes the candidate set of every empty cell in row-major order.
// It returns the cells with at least one candidate and the number of empty cells.
func (s *Solver) scan() ([]openCell, int) {
	var open []openCell
	empties := 0
	for y := 0; y < s.Grid.Height; y++ {
		for x := 0; x < s.Grid.Width; x++ {
			if !s.Grid.IsEmpty(x, y) {
				continue
			}
			empties++
			if cands := s.Candidates(x, y); len(cands) > 0 {
				open = append(open, openCell{x: x, y: y, candidates: cands})
			}
		}
	}
	return open, empties
}

// Entropy returns the size of the filtered candidate set of (x, y)
func (s *Solver) Entropy(x, y int) int {
	return len(s.Candidates(x, y))
}

// Candidates returns the filtered candidate set for an empty cell, in order
// of first appearance across North, East, South, West neighbors
func (s *Solver) Candidates(x, y int) []Candidate {
	var cands []Candidate
	seen := 0

	for _, dir := range AllDirections() {
		n := s.Grid.Neighbor(x, y, dir)
		if n == nil {
			continue
		}
		allowed := collectAllowed(n.Def.Neighbors[dir.Opposite()])

		if seen == 0 || s.Rule == CandidateUnion {
			cands = mergeCandidates(cands, allowed)
		} else {
			cands = intersectCandidates(cands, allowed)
		}
		seen++
	}

	filtered := cands[:0]
	for _, c := range cands {
		if s.excluded(c.Tile) || !s.Grid.Fits(c.Tile, x, y) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func (s *Solver) excluded(def *TileDefinition) bool {
	return def.Tags.Has(s.Desc.ExcludedTags) || s.forbidden.Has(def.ID)
}

// fillDeadEnds assigns the default tile to every cell still empty
func (s *Solver) fillDeadEnds() {
	for y := 0; y < s.Grid.Height; y++ {
		for x := 0; x < s.Grid.Width; x++ {
			if !s.Grid.IsEmpty(x, y) {
				continue
			}
			if _, err := s.Grid.Place(s.Desc.Default, x, y); err == nil {
				s.DeadEnds++
			}
		}
	}
}

// collectAllowed folds one compatibility list into distinct candidates,
// summing the weights of repeated entries
func collectAllowed(list []Adjacency) []Candidate {
	var out []Candidate
	for _, adj := range list {
		if adj.Tile == nil {
			continue
		}
		merged := false
		for i := range out {
			if out[i].Tile == adj.Tile {
				out[i].Weight += adj.Weight
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, Candidate{Tile: adj.Tile, Weight: adj.Weight})
		}
	}
	return out
}

func mergeCandidates(cands, allowed []Candidate) []Candidate {
	for _, a := range allowed {
		merged := false
		for i := range cands {
			if cands[i].Tile == a.Tile {
				cands[i].Weight += a.Weight
				merged = true
				break
			}
		}
		if !merged {
			cands = append(cands, a)
		}
	}
	return cands
}

func intersectCandidates(cands, allowed []Candidate) []Candidate {
	out := cands[:0]
	for _, c := range cands {
		for _, a := range allowed {
			if a.Tile == c.Tile {
				c.Weight += a.Weight
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// weightedPick chooses a candidate with probability proportional to its
// weight, falling back to a uniform choice when no weight is positive
func weightedPick(rng *rand.Rand, cands []Candidate) *TileDefinition {
	total := 0
	for _, c := range cands {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return cands[rng.Intn(len(cands))].Tile
	}

	r := rng.Intn(total)
	for _, c := range cands {
		if c.Weight <= 0 {
			continue
		}
		if r < c.Weight {
			return c.Tile
		}
		r -= c.Weight
	}
	return cands[len(cands)-1].Tile
}

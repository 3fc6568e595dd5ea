package wfc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lawnchairsociety/levelgen/internal/logger"
	"github.com/lawnchairsociety/levelgen/internal/scene"
	"github.com/lawnchairsociety/levelgen/internal/telemetry"
)

var ErrAttemptsExhausted = errors.New("wfc: generation attempts exhausted")

// Mode selects the retry policy on validation failure
type Mode string

const (
	// ModeResilient clears the failed attempt and retries with a new seed
	ModeResilient Mode = "resilient"
	// ModeFastFail gives up after FastFailAttempts and keeps the last
	// failed attempt in place for inspection
	ModeFastFail Mode = "fast_fail"
)

// ParseMode converts a config string to a Mode
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeResilient:
		return ModeResilient, true
	case ModeFastFail:
		return ModeFastFail, true
	}
	return ModeResilient, false
}

const (
	FastFailAttempts   = 3
	DefaultMaxAttempts = 50

	// retrySeedStride separates the seeds of consecutive attempts
	retrySeedStride = 1000
)

// Options configures a LevelGenerator
type Options struct {
	Mode        Mode
	MaxAttempts int // resilient mode only; zero means DefaultMaxAttempts

	// SeedOverride, when positive, replaces the descriptor seed
	SeedOverride int64

	CandidateRule      CandidateRule
	AdjacencyCheck     AdjacencyCheck
	MaxWallNeighbors   int
	RequireUnusedSpawn bool

	// RecordSteps keeps every collapse decision in the report
	RecordSteps bool
}

// DefaultOptions returns resilient generation with intersecting candidates
// and strict adjacency checks
func DefaultOptions() Options {
	return Options{
		Mode:             ModeResilient,
		MaxAttempts:      DefaultMaxAttempts,
		CandidateRule:    CandidateIntersect,
		AdjacencyCheck:   AdjacencyStrict,
		MaxWallNeighbors: DefaultMaxWallNeighbors,
	}
}

// attempts returns the attempt ceiling for the configured mode
func (o Options) attempts() int {
	if o.Mode == ModeFastFail {
		return FastFailAttempts
	}
	if o.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return o.MaxAttempts
}

// LevelGenerator runs placement, collapse, content generation and
// validation for a descriptor, retrying on validation failure. It owns the
// grid and scene root of the last generated level. A LevelGenerator is not
// safe for concurrent use.
type LevelGenerator struct {
	opts      Options
	spawns    SpawnRegistry
	content   ContentProvider
	reporters []Reporter
	tracer    trace.Tracer

	grid   *Grid
	root   *scene.Node
	report *Report
}

// NewLevelGenerator creates a generator. content may be nil, in which case
// tiles get scene nodes but no content.
func NewLevelGenerator(opts Options, spawns SpawnRegistry, content ContentProvider) *LevelGenerator {
	return &LevelGenerator{
		opts:    opts,
		spawns:  spawns,
		content: content,
		tracer:  telemetry.Tracer("wfc"),
	}
}

// AddReporter registers a sink for generation reports
func (g *LevelGenerator) AddReporter(r Reporter) {
	g.reporters = append(g.reporters, r)
}

// Options returns the generator's configuration
func (g *LevelGenerator) Options() Options {
	return g.opts
}

// Generate builds a level with its origin at base. A positive seed takes
// precedence over Options.SeedOverride and the descriptor seed.
func (g *LevelGenerator) Generate(ctx context.Context, desc *Descriptor, base scene.Vec3, seed int64) (*Grid, error) {
	return g.generate(ctx, desc, nil, base, seed)
}

// GenerateUnder builds a level whose content hangs from parent, using the
// parent's position as the level origin
func (g *LevelGenerator) GenerateUnder(ctx context.Context, desc *Descriptor, parent *scene.Node, seed int64) (*Grid, error) {
	var base scene.Vec3
	if parent != nil {
		base = parent.Position
	}
	return g.generate(ctx, desc, parent, base, seed)
}

// resolveSeed picks the seed of the first attempt
func (g *LevelGenerator) resolveSeed(desc *Descriptor, seed int64) int64 {
	switch {
	case seed > 0:
		return seed
	case g.opts.SeedOverride > 0:
		return g.opts.SeedOverride
	case desc.Seed > 0:
		return desc.Seed
	default:
		return time.Now().UnixNano()
	}
}

func (g *LevelGenerator) generate(ctx context.Context, desc *Descriptor, parent *scene.Node, base scene.Vec3, seed int64) (*Grid, error) {
	g.Clear()

	seed = g.resolveSeed(desc, seed)
	report := newReport(desc, g.opts.Mode, seed)
	g.report = report

	ctx, span := g.tracer.Start(ctx, "level.generate", trace.WithAttributes(
		attribute.String("level.name", desc.Name),
		attribute.Int64("level.seed", seed),
		attribute.String("level.mode", string(g.opts.Mode)),
	))
	defer span.End()

	grid, err := g.run(ctx, desc, parent, base, seed, report)

	report.Duration = time.Since(report.StartedAt)
	span.SetAttributes(attribute.Int("level.attempts", report.Attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	g.publish(ctx, report)

	return grid, err
}

func (g *LevelGenerator) run(ctx context.Context, desc *Descriptor, parent *scene.Node, base scene.Vec3, seed int64, report *Report) (*Grid, error) {
	if err := desc.Validate(); err != nil {
		report.Reason = err.Error()
		return nil, err
	}
	if g.spawns == nil {
		err := fmt.Errorf("%w: no spawn registry", ErrConfiguration)
		report.Reason = err.Error()
		return nil, err
	}

	g.root = scene.NewNode("level:"+desc.Name, base)
	g.root.Kind = "level"
	if parent != nil {
		parent.AddChild(g.root)
	}

	maxAttempts := g.opts.attempts()
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			g.teardown()
			return nil, err
		}

		attemptSeed := seed + int64(attempt)*retrySeedStride
		report.Attempts = attempt + 1
		report.resetAttempt(attemptSeed)

		grid, err := g.attempt(ctx, desc, base, attemptSeed, report)
		if err == nil {
			g.grid = grid
			report.Success = true
			report.Reason = ""
			report.Fingerprint = grid.Fingerprint()
			return grid, nil
		}

		if !errors.Is(err, ErrValidation) {
			report.Reason = err.Error()
			g.teardown()
			return nil, err
		}

		lastErr = err
		report.Reason = validationReason(err)
		report.Reasons = append(report.Reasons, report.Reason)
		logger.Warning("level failed validation",
			"level", desc.Name,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"seed", attemptSeed,
			"reason", report.Reason)

		if g.opts.Mode == ModeFastFail && attempt == maxAttempts-1 {
			// keep the last attempt for inspection
			g.grid = grid
			report.Fingerprint = grid.Fingerprint()
			break
		}
		g.resetContent()
	}

	if g.opts.Mode != ModeFastFail {
		g.teardown()
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, report.Attempts, lastErr)
}

// attempt runs one full pass with its own random stream. A validation
// failure returns the built grid together with the error.
func (g *LevelGenerator) attempt(ctx context.Context, desc *Descriptor, base scene.Vec3, seed int64, report *Report) (*Grid, error) {
	_, span := g.tracer.Start(ctx, "level.attempt", trace.WithAttributes(
		attribute.Int("attempt", report.Attempts),
		attribute.Int64("seed", seed),
	))
	defer span.End()

	rng := rand.New(rand.NewSource(seed))
	grid := NewGrid(desc.Width, desc.Height, base, desc.LotSize)
	g.spawns.Reset()

	for _, f := range newPlacementPass(grid, desc, rng).run() {
		logger.Error("fixed tile could not be placed", "level", desc.Name, "tile", f.TileID)
		report.PlacementFailures = append(report.PlacementFailures, f.TileID)
	}

	solver := NewSolver(grid, desc, rng, g.opts.CandidateRule)
	if g.opts.RecordSteps {
		solver.OnResolve = func(s Step) {
			report.Steps = append(report.Steps, s)
		}
	}
	err := solver.Solve()
	report.Resolved = solver.Resolved
	report.DeadEnds = solver.DeadEnds
	report.Iterations = solver.Iterations
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("level %q: %w", desc.Name, err)
	}
	if solver.DeadEnds > 0 {
		logger.Debug("dead ends filled with default tile", "level", desc.Name, "cells", solver.DeadEnds)
	}

	g.populate(grid, desc, rng)

	v := &Validator{
		Spawns:           g.spawns,
		RequireUnused:    g.opts.RequireUnusedSpawn,
		Check:            g.opts.AdjacencyCheck,
		MaxWallNeighbors: g.opts.MaxWallNeighbors,
		Wall:             desc.Wall,
	}
	if err := v.Validate(grid); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return grid, err
	}
	return grid, nil
}

// populate creates a scene node per placed instance and runs its content
// generator, in row-major anchor order
func (g *LevelGenerator) populate(grid *Grid, desc *Descriptor, rng *rand.Rand) {
	for _, inst := range grid.Instances() {
		node := scene.NewNode(fmt.Sprintf("%s@%d,%d", inst.Def.ID, inst.X, inst.Y), inst.Position)
		node.Kind = "tile"
		inst.Node = g.root.AddChild(node)

		if g.content == nil {
			continue
		}
		gen := g.content.GeneratorFor(inst.Def)
		if gen == nil {
			continue
		}
		gen.Generate(inst.X, inst.Y, grid, &ContentContext{
			Descriptor: desc,
			Instance:   inst,
			Node:       node,
			Rand:       rng,
			Spawns:     g.spawns,
		})
	}
}

func (g *LevelGenerator) publish(ctx context.Context, r *Report) {
	for _, rep := range g.reporters {
		if err := rep.Report(ctx, r); err != nil {
			logger.Warning("report sink failed", "run_id", r.RunID, "error", err)
		}
	}
}

// resetContent drops the content of a failed attempt but keeps the root
func (g *LevelGenerator) resetContent() {
	if g.root != nil {
		g.root.Clear()
	}
	g.grid = nil
	if g.spawns != nil {
		g.spawns.Reset()
	}
}

func (g *LevelGenerator) teardown() {
	g.resetContent()
	if g.root != nil {
		g.root.Detach()
		g.root = nil
	}
}

func validationReason(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}

// Clear destroys all generated content and releases the grid
func (g *LevelGenerator) Clear() {
	g.teardown()
}

// Grid returns the grid of the last generated level, or nil
func (g *LevelGenerator) Grid() *Grid {
	return g.grid
}

// Root returns the scene node owning the generated content, or nil
func (g *LevelGenerator) Root() *scene.Node {
	return g.root
}

// LastReport returns the report of the most recent Generate call
func (g *LevelGenerator) LastReport() *Report {
	return g.report
}

// TileCoordinatesToWorldPosition converts a cell of the current level to
// world space. ok is false when no level is loaded.
func (g *LevelGenerator) TileCoordinatesToWorldPosition(x, y int) (scene.Vec3, bool) {
	if g.grid == nil {
		return scene.Vec3{}, false
	}
	return g.grid.WorldPosition(x, y), true
}

// WorldPositionToTileCoordinates is the inverse of
// TileCoordinatesToWorldPosition. ok is false outside the current level.
func (g *LevelGenerator) WorldPositionToTileCoordinates(pos scene.Vec3) (x, y int, ok bool) {
	if g.grid == nil {
		return 0, 0, false
	}
	return g.grid.CellAt(pos)
}

// HideLevelGeometry hides the generated content without destroying it
func (g *LevelGenerator) HideLevelGeometry() {
	if g.root != nil {
		g.root.SetVisible(false)
	}
}

// ShowLevelGeometry undoes HideLevelGeometry
func (g *LevelGenerator) ShowLevelGeometry() {
	if g.root != nil {
		g.root.SetVisible(true)
	}
}

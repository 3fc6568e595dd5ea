package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/levelgen/internal/render"
	"github.com/lawnchairsociety/levelgen/internal/scene"
	"github.com/lawnchairsociety/levelgen/internal/spawn"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

const helpLine = "r: reroll  n/p: seed  tab: level  s: claim start  c: release  q: quit"

// viewer shows one generated level at a time
type viewer struct {
	term   *render.Terminal
	gen    *wfc.LevelGenerator
	spawns *spawn.Registry
	levels []*wfc.Descriptor

	level   int
	seed    int64
	start   *wfc.SpawnPoint
	lastErr error
	running bool
}

func newViewer(term *render.Terminal, gen *wfc.LevelGenerator, spawns *spawn.Registry, levels []*wfc.Descriptor, level int, seed int64) *viewer {
	if seed <= 0 {
		seed = time.Now().UnixNano() % 1_000_000
	}
	return &viewer{
		term:    term,
		gen:     gen,
		spawns:  spawns,
		levels:  levels,
		level:   level,
		seed:    seed,
		running: true,
	}
}

// Run generates the current level and redraws after every key until quit
func (v *viewer) Run(ctx context.Context) {
	v.regenerate(ctx)
	for v.running {
		v.draw()

		switch ev := v.term.PollEvent().(type) {
		case *tcell.EventKey:
			v.handleKey(ctx, ev)
		case *tcell.EventResize:
			v.term.Sync()
		case nil:
			// screen finalized
			return
		}
	}
}

func (v *viewer) regenerate(ctx context.Context) {
	v.start = nil
	_, v.lastErr = v.gen.Generate(ctx, v.levels[v.level], scene.Vec3{}, v.seed)
}

func (v *viewer) handleKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.running = false
		return
	case tcell.KeyTab:
		v.level = (v.level + 1) % len(v.levels)
		v.regenerate(ctx)
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q', 'Q':
		v.running = false
	case 'r', 'R':
		v.seed = time.Now().UnixNano() % 1_000_000
		v.regenerate(ctx)
	case 'n', 'N':
		v.seed++
		v.regenerate(ctx)
	case 'p', 'P':
		if v.seed > 1 {
			v.seed--
		}
		v.regenerate(ctx)
	case 's', 'S':
		// claimed cells stay taken across regenerations
		if p, ok := v.spawns.Claim(); ok {
			v.start = &p
		}
	case 'c', 'C':
		v.spawns.ReleaseAll()
		v.start = nil
	}
}

func (v *viewer) status() string {
	desc := v.levels[v.level]
	report := v.gen.LastReport()
	if report == nil {
		return fmt.Sprintf("%s seed %d", desc.Name, v.seed)
	}
	var line string
	if v.lastErr != nil {
		line = fmt.Sprintf("%s seed %d: FAILED after %d attempts (%s)", desc.Name, v.seed, report.Attempts, report.Reason)
	} else {
		line = fmt.Sprintf("%s seed %d -> %d  attempts %d  dead ends %d  %dms",
			desc.Name, v.seed, report.FinalSeed, report.Attempts, report.DeadEnds, report.Duration.Milliseconds())
	}
	if v.start != nil {
		line += fmt.Sprintf("  start (%d,%d) claimed %d", v.start.X, v.start.Y, v.spawns.Claimed())
	}
	return line
}

func (v *viewer) draw() {
	grid := v.gen.Grid()
	if grid == nil {
		v.term.DrawMessage(v.status(), helpLine)
		return
	}
	v.term.Draw(grid, v.spawns.Points(), v.status(), helpLine)
}

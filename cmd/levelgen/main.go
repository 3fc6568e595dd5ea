// levelgen generates levels from the level directory and prints or exports
// them.
//
// Usage:
//
//	go run ./cmd/levelgen -level crypt -seed 42
//	go run ./cmd/levelgen -all -count 5 -export exports
//	go run ./cmd/levelgen -history -level marsh
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lawnchairsociety/levelgen/internal/app"
	"github.com/lawnchairsociety/levelgen/internal/catalog"
	"github.com/lawnchairsociety/levelgen/internal/render"
	"github.com/lawnchairsociety/levelgen/internal/scene"
	"github.com/lawnchairsociety/levelgen/internal/spawn"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

func main() {
	configFile := flag.String("config", "data/levelgen.yaml", "Path to levelgen config YAML file")
	levelName := flag.String("level", "", "Level to generate")
	all := flag.Bool("all", false, "Generate every level in the levels directory")
	seed := flag.Int64("seed", 0, "Seed of the first run (default: config override, level seed, or time)")
	count := flag.Int("count", 1, "Number of runs per level; run n uses seed+n")
	exportDir := flag.String("export", "", "Write each generated layout as YAML into this directory")
	quiet := flag.Bool("quiet", false, "Do not print layouts")
	list := flag.Bool("list", false, "List levels and exit")
	history := flag.Bool("history", false, "Print stored reports and exit (requires database.enabled)")
	limit := flag.Int("limit", 20, "Number of stored reports shown by -history")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx, app.LoadOptions{ConfigPath: *configFile, EnvFiles: []string{".env"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	switch {
	case *list:
		listLevels(a)
	case *history:
		err = printHistory(ctx, a, *levelName, *limit)
	default:
		err = generate(ctx, a, runOptions{
			level:     *levelName,
			all:       *all,
			seed:      *seed,
			count:     *count,
			exportDir: *exportDir,
			quiet:     *quiet,
		})
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.Close(context.Background())
		os.Exit(1)
	}
}

type runOptions struct {
	level     string
	all       bool
	seed      int64
	count     int
	exportDir string
	quiet     bool
}

func listLevels(a *app.App) {
	for _, l := range a.Levels {
		fmt.Printf("%-16s %3dx%-3d seed=%d enclosed=%t fixed=%d\n",
			l.Name, l.Width, l.Height, l.Seed, l.Enclose, len(l.Fixed))
	}
}

func generate(ctx context.Context, a *app.App, opts runOptions) error {
	var levels []*wfc.Descriptor
	switch {
	case opts.all:
		levels = a.Levels
	case opts.level != "":
		desc, err := a.Level(opts.level)
		if err != nil {
			return err
		}
		levels = []*wfc.Descriptor{desc}
	default:
		return errors.New("specify -level NAME or -all")
	}

	if opts.exportDir != "" {
		if err := os.MkdirAll(opts.exportDir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if opts.count < 1 {
		opts.count = 1
	}

	spawns := spawn.NewRegistry()
	gen := a.NewGenerator(spawns)

	failures := 0
	for _, desc := range levels {
		for run := 0; run < opts.count; run++ {
			var seed int64
			if opts.seed > 0 {
				seed = opts.seed + int64(run)
			}

			grid, err := gen.Generate(ctx, desc, scene.Vec3{}, seed)
			report := gen.LastReport()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failures++
				fmt.Printf("%s (seed %d): %v\n", desc.Name, report.Seed, err)
				continue
			}

			fmt.Printf("%s seed=%d attempts=%d dead_ends=%d fingerprint=%s\n",
				desc.Name, report.FinalSeed, report.Attempts, report.DeadEnds, report.Fingerprint[:12])
			if !opts.quiet {
				fmt.Print(render.ASCII(grid, spawns.Points()))
				fmt.Println()
			}

			if opts.exportDir != "" {
				path := filepath.Join(opts.exportDir, fmt.Sprintf("%s_%d.yaml", desc.Name, report.FinalSeed))
				if err := catalog.WriteLayoutFile(path, grid, report); err != nil {
					return err
				}
				fmt.Printf("  exported %s\n", path)
			}
		}
	}

	gen.Clear()
	if failures > 0 {
		return fmt.Errorf("%d of %d runs failed", failures, len(levels)*opts.count)
	}
	return nil
}

func printHistory(ctx context.Context, a *app.App, level string, limit int) error {
	if a.DB == nil {
		return errors.New("report store is disabled (set database.enabled in the config)")
	}

	reports, err := a.DB.RecentReports(ctx, level, limit)
	if err != nil {
		return err
	}
	for _, r := range reports {
		status := "ok"
		if !r.Success {
			status = "FAILED: " + r.Reason
		}
		fmt.Printf("%s  %-12s seed=%-20d attempts=%-3d %6dms  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Level, r.FinalSeed, r.Attempts,
			r.Duration.Milliseconds(), status)
	}

	stats, err := a.DB.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	for _, s := range stats {
		fmt.Printf("%-12s runs=%d successes=%d avg_attempts=%.2f\n", s.Level, s.Runs, s.Successes, s.AvgAttempts)
	}
	return nil
}

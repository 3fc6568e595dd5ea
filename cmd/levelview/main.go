// levelview is an interactive terminal viewer for generated levels.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/levelgen/internal/app"
	"github.com/lawnchairsociety/levelgen/internal/render"
	"github.com/lawnchairsociety/levelgen/internal/spawn"
)

func main() {
	configFile := flag.String("config", "data/levelgen.yaml", "Path to levelgen config YAML file")
	levelName := flag.String("level", "", "Level to show first (default: first level)")
	seed := flag.Int64("seed", 0, "Initial seed (default: random)")
	flag.Parse()

	ctx := context.Background()

	a, err := app.Load(ctx, app.LoadOptions{
		ConfigPath:   *configFile,
		QuietConsole: true,
		EnvFiles:     []string{".env"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	if len(a.Levels) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no levels found in", a.Config.Paths.Levels)
		return
	}

	start := 0
	if *levelName != "" {
		desc, err := a.Level(*levelName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		for i, l := range a.Levels {
			if l == desc {
				start = i
			}
		}
	}

	term, err := render.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open terminal: %v\n", err)
		return
	}
	defer term.Close()

	spawns := spawn.NewRegistry()
	v := newViewer(term, a.NewGenerator(spawns), spawns, a.Levels, start, *seed)
	v.Run(ctx)
}

// Package app wires configuration, logging, telemetry, levels and report
// sinks for the levelgen commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lawnchairsociety/levelgen/internal/catalog"
	"github.com/lawnchairsociety/levelgen/internal/config"
	"github.com/lawnchairsociety/levelgen/internal/content"
	"github.com/lawnchairsociety/levelgen/internal/database"
	"github.com/lawnchairsociety/levelgen/internal/logger"
	"github.com/lawnchairsociety/levelgen/internal/spawn"
	"github.com/lawnchairsociety/levelgen/internal/telemetry"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// ErrUnknownLevel is returned when a level name is not in the levels directory
var ErrUnknownLevel = errors.New("unknown level")

// LoadOptions adjusts startup for a particular command
type LoadOptions struct {
	// ConfigPath is the levelgen YAML config; missing means defaults
	ConfigPath string

	// QuietConsole disables console logging, e.g. while a terminal UI owns the screen
	QuietConsole bool

	// EnvFiles are loaded with godotenv before the config; missing files are skipped
	EnvFiles []string
}

// App holds everything a command needs to generate levels
type App struct {
	Config  *config.Config
	Options wfc.Options
	Levels  []*wfc.Descriptor
	DB      *database.Database

	reporters []wfc.Reporter
	shutdown  []func(context.Context) error
}

// Load reads .env files and the config, then initializes logging, telemetry,
// the report store and the level set
func Load(ctx context.Context, opts LoadOptions) (*App, error) {
	loadEnv(opts.EnvFiles)

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logConfig, _ := logger.LoadConfig(cfg.Paths.Logging)
	if opts.QuietConsole {
		logConfig.ConsoleEnabled = false
	}
	if !logConfig.ConsoleEnabled && !logConfig.FileEnabled {
		logger.Disable()
	} else if err := logger.Initialize(logConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	genOpts, err := cfg.Generator.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}

	a := &App{
		Config:    cfg,
		Options:   genOpts,
		reporters: []wfc.Reporter{wfc.LogReporter{}},
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			// generation still works without traces
			logger.Warning("Telemetry setup failed", "error", err)
		} else {
			a.shutdown = append(a.shutdown, shutdown)
		}
	}

	if cfg.Database.Enabled {
		db, err := database.OpenWithConfig(cfg.Database.Config)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		a.DB = db
		a.reporters = append(a.reporters, database.NewReporter(db))
		a.shutdown = append(a.shutdown, func(context.Context) error { return db.Close() })
		logger.Info("Report store opened", "driver", cfg.Database.Driver)
	}

	levels, err := catalog.LoadLevelsFromDirectory(cfg.Paths.Levels)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Levels = levels

	return a, nil
}

func loadEnv(files []string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			logger.Debug("Env file not loaded", "path", f, "error", err)
		}
	}
}

// Level returns the level with the given name, ignoring case
func (a *App) Level(name string) (*wfc.Descriptor, error) {
	for _, l := range a.Levels {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, name)
}

// LevelNames returns the names of all loaded levels
func (a *App) LevelNames() []string {
	names := make([]string, len(a.Levels))
	for i, l := range a.Levels {
		names[i] = l.Name
	}
	return names
}

// NewGenerator creates a generator with the default content registry and
// every configured report sink
func (a *App) NewGenerator(spawns *spawn.Registry) *wfc.LevelGenerator {
	gen := wfc.NewLevelGenerator(a.Options, spawns, content.DefaultRegistry())
	for _, r := range a.reporters {
		gen.AddReporter(r)
	}
	return gen
}

// Reporters returns the configured report sinks
func (a *App) Reporters() []wfc.Reporter {
	return a.reporters
}

// Close flushes telemetry and closes the report store, in reverse order
func (a *App) Close(ctx context.Context) {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			logger.Warning("Shutdown step failed", "error", err)
		}
	}
	a.shutdown = nil
}

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/levelgen/internal/logger"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// LotSizeYAML is the world-space size of one cell
type LotSizeYAML struct {
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
}

// LevelYAML is a level descriptor as authored
type LevelYAML struct {
	Name         string      `yaml:"name"`
	Catalog      string      `yaml:"catalog"` // relative to the level file
	Width        int         `yaml:"width"`
	Height       int         `yaml:"height"`
	LotSize      LotSizeYAML `yaml:"lot_size"`
	Seed         int64       `yaml:"seed"`
	Enclose      bool        `yaml:"enclose"`
	Wall         string      `yaml:"wall"`
	Default      string      `yaml:"default"`
	Forbidden    []string    `yaml:"forbidden"`
	ExcludedTags []string    `yaml:"excluded_tags"`
	Fixed        []string    `yaml:"fixed"`
}

// LoadLevelYAML reads a level file without resolving its tiles
func LoadLevelYAML(filename string) (*LevelYAML, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level LevelYAML
	if err := yaml.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse level YAML: %w", err)
	}
	if level.Name == "" {
		level.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if level.LotSize.Width == 0 && level.LotSize.Depth == 0 {
		level.LotSize = LotSizeYAML{Width: 1, Depth: 1}
	}
	return &level, nil
}

// Descriptor resolves the level against a catalog. The descriptor is not
// validated; the generator does that before each run.
func (l *LevelYAML) Descriptor(cat *Catalog) (*wfc.Descriptor, error) {
	desc := &wfc.Descriptor{
		Name:      l.Name,
		Width:     l.Width,
		Height:    l.Height,
		LotSize:   wfc.LotSize{Width: l.LotSize.Width, Depth: l.LotSize.Depth},
		Seed:      l.Seed,
		Enclose:   l.Enclose,
		Tiles:     cat.Tiles,
		Forbidden: l.Forbidden,
	}

	if l.Wall != "" {
		if desc.Wall = cat.Tile(l.Wall); desc.Wall == nil {
			return nil, fmt.Errorf("level %s: wall: %w: %q", l.Name, ErrUnknownTile, l.Wall)
		}
	}
	if l.Default != "" {
		if desc.Default = cat.Tile(l.Default); desc.Default == nil {
			return nil, fmt.Errorf("level %s: default: %w: %q", l.Name, ErrUnknownTile, l.Default)
		}
	}

	if _, err := cat.Lookup(l.Forbidden); err != nil {
		return nil, fmt.Errorf("level %s: forbidden: %w", l.Name, err)
	}

	fixed, err := cat.Lookup(l.Fixed)
	if err != nil {
		return nil, fmt.Errorf("level %s: fixed: %w", l.Name, err)
	}
	desc.Fixed = fixed

	mask, err := cat.TagMask(l.ExcludedTags)
	if err != nil {
		return nil, fmt.Errorf("level %s: excluded_tags: %w", l.Name, err)
	}
	desc.ExcludedTags = mask

	return desc, nil
}

// LoadLevel reads a level file and the catalog it references
func LoadLevel(filename string) (*wfc.Descriptor, error) {
	level, err := LoadLevelYAML(filename)
	if err != nil {
		return nil, err
	}
	if level.Catalog == "" {
		return nil, fmt.Errorf("level %s: no catalog", level.Name)
	}

	catPath := level.Catalog
	if !filepath.IsAbs(catPath) {
		catPath = filepath.Join(filepath.Dir(filename), catPath)
	}
	cat, err := LoadCatalog(catPath)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", level.Name, err)
	}

	return level.Descriptor(cat)
}

// LoadLevelsFromDirectory loads every level file in dir, sorted by name
func LoadLevelsFromDirectory(dir string) ([]*wfc.Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var levels []*wfc.Descriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		desc, err := LoadLevel(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		levels = append(levels, desc)
		logger.Debug("Loaded level file", "path", path, "level", desc.Name)
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].Name < levels[j].Name })
	logger.Info("Loaded levels from directory", "dir", dir, "levels", len(levels))
	return levels, nil
}

// FindLevel returns the level with the given name, or nil
func FindLevel(levels []*wfc.Descriptor, name string) *wfc.Descriptor {
	for _, l := range levels {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Package catalog loads tile catalogs and level descriptors from YAML and
// exports generated layouts.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

var (
	ErrDuplicateTile = errors.New("catalog: duplicate tile id")
	ErrUnknownTile   = errors.New("catalog: unknown tile")
	ErrUnknownTag    = errors.New("catalog: unknown tag")
	ErrTooManyTags   = errors.New("catalog: more than 64 tags")
	ErrBadDirection  = errors.New("catalog: unknown neighbor direction")
)

// BarrierTag is always mapped to wfc.TagBarrier
const BarrierTag = "barrier"

// allDirectionsKey applies a neighbor list to every direction
const allDirectionsKey = "all"

// NeighborYAML is one compatibility entry
type NeighborYAML struct {
	Tile   string `yaml:"tile"`
	Weight *int   `yaml:"weight"` // omitted means 1
}

// FootprintYAML is a tile footprint in cells
type FootprintYAML struct {
	Width int `yaml:"width"`
	Depth int `yaml:"depth"`
}

// PlacementYAML is the normalized placement rectangle of a fixed tile
type PlacementYAML struct {
	MinX          float64 `yaml:"min_x"`
	MinY          float64 `yaml:"min_y"`
	MaxX          float64 `yaml:"max_x"`
	MaxY          float64 `yaml:"max_y"`
	AllowBoundary bool    `yaml:"allow_boundary"`
}

// TileYAML is a tile definition as authored
type TileYAML struct {
	ID        string                    `yaml:"id"`
	Kind      string                    `yaml:"kind"`
	Glyph     string                    `yaml:"glyph"`
	Tags      []string                  `yaml:"tags"`
	Footprint *FootprintYAML            `yaml:"footprint"`
	Placement *PlacementYAML            `yaml:"placement"`
	Neighbors map[string][]NeighborYAML `yaml:"neighbors"` // keyed by direction or "all"
}

// CatalogYAML is the structure of a tile catalog file
type CatalogYAML struct {
	Tags  []string   `yaml:"tags"` // optional, fixes bit order after barrier
	Tiles []TileYAML `yaml:"tiles"`
}

// Catalog is a resolved set of tile definitions
type Catalog struct {
	Tiles []*wfc.TileDefinition // in file order

	byID map[string]*wfc.TileDefinition
	tags map[string]wfc.TagSet
}

// LoadCatalog reads and resolves a tile catalog file
func LoadCatalog(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cat, nil
}

// ParseCatalog resolves a tile catalog from YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw CatalogYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	cat := &Catalog{
		byID: make(map[string]*wfc.TileDefinition),
		tags: map[string]wfc.TagSet{BarrierTag: wfc.TagBarrier},
	}

	for _, name := range raw.Tags {
		if _, err := cat.defineTag(name); err != nil {
			return nil, err
		}
	}

	// first pass creates every tile so neighbor lists can reference any of them
	for _, t := range raw.Tiles {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrUnknownTile)
		}
		if _, dup := cat.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTile, t.ID)
		}

		glyph, _ := utf8.DecodeRuneInString(t.Glyph)
		if glyph == utf8.RuneError {
			glyph = 0
		}
		def := wfc.NewTileDefinition(t.ID, t.Kind, glyph)
		if t.Footprint != nil {
			def.Footprint = wfc.Footprint{Width: t.Footprint.Width, Depth: t.Footprint.Depth}
		}
		if t.Placement != nil {
			def.Placement = wfc.PlacementRule{
				MinX:          t.Placement.MinX,
				MinY:          t.Placement.MinY,
				MaxX:          t.Placement.MaxX,
				MaxY:          t.Placement.MaxY,
				AllowBoundary: t.Placement.AllowBoundary,
			}
		}
		for _, name := range t.Tags {
			bit, err := cat.defineTag(name)
			if err != nil {
				return nil, err
			}
			def.Tags |= bit
		}

		cat.Tiles = append(cat.Tiles, def)
		cat.byID[t.ID] = def
	}

	for i, t := range raw.Tiles {
		if err := cat.resolveNeighbors(cat.Tiles[i], t.Neighbors); err != nil {
			return nil, fmt.Errorf("tile %s: %w", t.ID, err)
		}
	}

	return cat, nil
}

// resolveNeighbors fills def's compatibility lists. "all" is applied
// first, then north, east, south, west, each from keys in sorted order.
func (c *Catalog) resolveNeighbors(def *wfc.TileDefinition, lists map[string][]NeighborYAML) error {
	keys := make([]string, 0, len(lists))
	for key := range lists {
		if key == allDirectionsKey {
			continue
		}
		if _, ok := wfc.ParseDirection(key); !ok {
			return fmt.Errorf("%w: %q", ErrBadDirection, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, entry := range lists[allDirectionsKey] {
		other, weight, err := c.neighbor(entry)
		if err != nil {
			return err
		}
		def.AllowAll(other, weight)
	}

	for _, dir := range wfc.AllDirections() {
		for _, key := range keys {
			if d, _ := wfc.ParseDirection(key); d != dir {
				continue
			}
			for _, entry := range lists[key] {
				other, weight, err := c.neighbor(entry)
				if err != nil {
					return err
				}
				def.Allow(dir, other, weight)
			}
		}
	}
	return nil
}

func (c *Catalog) neighbor(entry NeighborYAML) (*wfc.TileDefinition, int, error) {
	other, ok := c.byID[entry.Tile]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownTile, entry.Tile)
	}
	weight := 1
	if entry.Weight != nil {
		weight = *entry.Weight
	}
	return other, weight, nil
}

func (c *Catalog) defineTag(name string) (wfc.TagSet, error) {
	if bit, ok := c.tags[name]; ok {
		return bit, nil
	}
	if len(c.tags) >= 64 {
		return 0, fmt.Errorf("%w: %s", ErrTooManyTags, name)
	}
	bit := wfc.TagSet(1) << uint(len(c.tags))
	c.tags[name] = bit
	return bit, nil
}

// Tile returns the definition with the given ID, or nil
func (c *Catalog) Tile(id string) *wfc.TileDefinition {
	return c.byID[id]
}

// Tag returns the bit assigned to a tag name
func (c *Catalog) Tag(name string) (wfc.TagSet, bool) {
	bit, ok := c.tags[name]
	return bit, ok
}

// TagMask combines the bits of the named tags
func (c *Catalog) TagMask(names []string) (wfc.TagSet, error) {
	var mask wfc.TagSet
	for _, name := range names {
		bit, ok := c.tags[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
		}
		mask |= bit
	}
	return mask, nil
}

// Lookup resolves a list of tile IDs
func (c *Catalog) Lookup(ids []string) ([]*wfc.TileDefinition, error) {
	defs := make([]*wfc.TileDefinition, 0, len(ids))
	for _, id := range ids {
		def := c.byID[id]
		if def == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTile, id)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

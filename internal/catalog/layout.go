package catalog

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// InstanceYAML is one placed tile in an exported layout
type InstanceYAML struct {
	Tile string `yaml:"tile"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// LayoutYAML is the structure of an exported layout file
type LayoutYAML struct {
	Level       string         `yaml:"level"`
	RunID       string         `yaml:"run_id"`
	Seed        int64          `yaml:"seed"`
	Width       int            `yaml:"width"`
	Height      int            `yaml:"height"`
	Fingerprint string         `yaml:"fingerprint"`
	Rows        []string       `yaml:"rows"`
	Instances   []InstanceYAML `yaml:"instances"`
}

// WriteLayoutFile writes a generated layout to a YAML file
func WriteLayoutFile(path string, grid *wfc.Grid, report *wfc.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return WriteLayout(f, grid, report)
}

// WriteLayout encodes a layout with a fixed key order: metadata, glyph
// rows, then instances in row-major anchor order
func WriteLayout(w io.Writer, grid *wfc.Grid, report *wfc.Report) error {
	fmt.Fprintf(w, "# Level %s\n", report.Level)
	fmt.Fprintf(w, "# Generated with seed: %d (%d attempts)\n", report.FinalSeed, report.Attempts)
	fmt.Fprintf(w, "# Tiles placed: %d\n\n", grid.PlacedCount())

	doc := yaml.Node{Kind: yaml.MappingNode}
	addStringField(&doc, "level", report.Level)
	addStringField(&doc, "run_id", report.RunID)
	addIntField(&doc, "seed", report.FinalSeed)
	addIntField(&doc, "width", int64(grid.Width))
	addIntField(&doc, "height", int64(grid.Height))
	addStringField(&doc, "fingerprint", grid.Fingerprint())

	rows := yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range splitRows(grid.String()) {
		rows.Content = append(rows.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: row, Style: yaml.DoubleQuotedStyle})
	}
	doc.Content = append(doc.Content, scalar("rows"), &rows)

	instances := yaml.Node{Kind: yaml.SequenceNode}
	for _, inst := range grid.Instances() {
		entry := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		addStringField(entry, "tile", inst.Def.ID)
		addIntField(entry, "x", int64(inst.X))
		addIntField(entry, "y", int64(inst.Y))
		instances.Content = append(instances.Content, entry)
	}
	doc.Content = append(doc.Content, scalar("instances"), &instances)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ReadLayout decodes a layout written by WriteLayout
func ReadLayout(r io.Reader) (*LayoutYAML, error) {
	var layout LayoutYAML
	if err := yaml.NewDecoder(r).Decode(&layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout YAML: %w", err)
	}
	return &layout, nil
}

func splitRows(s string) []string {
	var rows []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			rows = append(rows, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		rows = append(rows, s[start:])
	}
	return rows
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		scalar(key),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func addIntField(node *yaml.Node, key string, value int64) {
	node.Content = append(node.Content,
		scalar(key),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(value, 10)},
	)
}

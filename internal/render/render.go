// Package render draws generated levels as text and on a tcell terminal.
package render

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// SpawnGlyph marks spawn points drawn over the layout
const SpawnGlyph = '@'

// ASCII renders the grid one row per line, with spawn points overlaid
func ASCII(grid *wfc.Grid, spawns []wfc.SpawnPoint) string {
	rows := strings.Split(strings.TrimSuffix(grid.String(), "\n"), "\n")
	cells := make([][]rune, len(rows))
	for i, row := range rows {
		cells[i] = []rune(row)
	}

	for _, p := range spawns {
		if p.Y >= 0 && p.Y < len(cells) && p.X >= 0 && p.X < len(cells[p.Y]) {
			cells[p.Y][p.X] = SpawnGlyph
		}
	}

	var sb strings.Builder
	for _, row := range cells {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TileStyle returns the terminal style for a tile definition
func TileStyle(def *wfc.TileDefinition) tcell.Style {
	if def.Tags.Has(wfc.TagBarrier) {
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	}
	switch def.Kind {
	case "floor":
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case "room":
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	case "spawn":
		return tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	case "decor":
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	default:
		return tcell.StyleDefault
	}
}

func glyph(def *wfc.TileDefinition) rune {
	if def.Glyph == 0 {
		return '#'
	}
	return def.Glyph
}

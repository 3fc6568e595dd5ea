package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// Terminal draws levels on a tcell screen
type Terminal struct {
	screen tcell.Screen
}

// NewTerminal creates and initializes a terminal screen
func NewTerminal() (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(s)
}

// NewTerminalWithScreen initializes the given screen, such as a simulation
// screen in tests
func NewTerminalWithScreen(s tcell.Screen) (*Terminal, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.Clear()
	return &Terminal{screen: s}, nil
}

// Close finalizes the screen and restores terminal state
func (t *Terminal) Close() {
	t.screen.Fini()
}

// PollEvent waits for and returns the next terminal event
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// Size returns the current terminal dimensions
func (t *Terminal) Size() (width, height int) {
	return t.screen.Size()
}

// Sync forces a complete redraw
func (t *Terminal) Sync() {
	t.screen.Sync()
}

// Draw renders the grid from the top-left corner, clipped to the screen,
// with spawn points overlaid and status lines below the map
func (t *Terminal) Draw(grid *wfc.Grid, spawns []wfc.SpawnPoint, status ...string) {
	t.screen.Clear()
	w, h := t.screen.Size()

	for y := 0; y < grid.Height && y < h; y++ {
		for x := 0; x < grid.Width && x < w; x++ {
			inst := grid.At(x, y)
			if inst == nil {
				t.screen.SetContent(x, y, '?', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
				continue
			}
			t.screen.SetContent(x, y, glyph(inst.Def), nil, TileStyle(inst.Def))
		}
	}

	spawnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	for _, p := range spawns {
		if p.X < w && p.Y < h {
			t.screen.SetContent(p.X, p.Y, SpawnGlyph, nil, spawnStyle)
		}
	}

	t.drawStatus(grid.Height+1, status)
	t.screen.Show()
}

// DrawMessage renders text lines without a map, e.g. a generation error
func (t *Terminal) DrawMessage(lines ...string) {
	t.screen.Clear()
	t.drawStatus(0, lines)
	t.screen.Show()
}

func (t *Terminal) drawStatus(top int, lines []string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	w, h := t.screen.Size()
	for i, line := range lines {
		y := top + i
		if y >= h {
			return
		}
		x := 0
		for _, ch := range line {
			if x >= w {
				break
			}
			t.screen.SetContent(x, y, ch, nil, style)
			x++
		}
	}
}

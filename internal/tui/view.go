package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kalambet/brainstorm/internal/board"
)

type style int

const (
	stylePlain style = iota
	styleFrame
	styleConnector
	styleSelected
	styleLoading
	styleYellow
	styleBlue
	styleGreen
	stylePink
	stylePurple
)

var styles = map[style]lipgloss.Style{
	stylePlain:     lipgloss.NewStyle(),
	styleFrame:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	styleConnector: lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
	styleSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	styleLoading:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Blink(true),
	styleYellow:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("228")),
	styleBlue:      lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("153")),
	styleGreen:     lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("157")),
	stylePink:      lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("218")),
	stylePurple:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("183")),
}

var noteStyles = map[board.Color]style{
	board.ColorYellow: styleYellow,
	board.ColorBlue:   styleBlue,
	board.ColorGreen:  styleGreen,
	board.ColorPink:   stylePink,
	board.ColorPurple: stylePurple,
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)

type cell struct {
	r rune
	s style
}

type grid struct {
	w, h  int
	cells [][]cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]cell, h)}
	for y := range g.cells {
		row := make([]cell, w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		g.cells[y] = row
	}
	return g
}

func (g *grid) set(x, y int, r rune, s style) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y][x] = cell{r: r, s: s}
}

func (g *grid) text(x, y int, s string, st style) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r, st)
	}
}

// String renders the grid, styling runs of equal style together.
func (g *grid) String() string {
	var b strings.Builder
	for y, row := range g.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].s == row[start].s {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, c := range row[start:x] {
				run = append(run, c.r)
			}
			if row[start].s == stylePlain {
				b.WriteString(string(run))
			} else {
				b.WriteString(styles[row[start].s].Render(string(run)))
			}
			start = x
		}
	}
	return b.String()
}

func (m Model) View() string {
	if m.mode == modeHelp {
		return helpText
	}

	boardH := max(m.height-2, 1)
	g := newGrid(max(m.width, 1), boardH)
	m.drawBoard(g)

	return g.String() + "\n" + m.inputLine() + "\n" + m.statusLine()
}

func (m Model) toCell(p board.Position) (int, int) {
	s := m.viewport.ToScreen(p)
	return int(math.Floor(s.X / cellW)), int(math.Floor(s.Y / cellH))
}

func (m Model) drawBoard(g *grid) {
	snap := m.store.Snapshot()

	for _, f := range board.RenderGroups(snap) {
		x0, y0 := m.toCell(board.Position{X: f.Bounds.X, Y: f.Bounds.Y})
		x1, y1 := m.toCell(board.Position{X: f.Bounds.X + f.Bounds.Width, Y: f.Bounds.Y + f.Bounds.Height})
		drawBox(g, x0, y0, x1, y1, styleFrame, '┄', '┆', [4]rune{'┌', '┐', '└', '┘'})
		g.text(x0+2, y0, " "+f.Name+" ", styleFrame)
	}

	for _, s := range board.RenderConnectors(snap) {
		x0, y0 := m.toCell(s.Start)
		x1, y1 := m.toCell(s.End)
		drawLine(g, x0, y0, x1, y1, styleConnector)
		if s.Label != "" {
			mx, my := m.toCell(s.Midpoint())
			g.text(mx-len([]rune(s.Label))/2, my, s.Label, styleConnector)
		}
	}

	var loadingID string
	if m.assist != nil {
		loadingID, _ = m.assist.Loading()
	}
	selected := m.selected
	if m.widget != nil {
		selected = m.widget.ID()
	}

	for _, n := range board.PaintOrder(snap.Notes) {
		if m.widget != nil && m.widget.ID() == n.ID {
			// Show in-flight gesture geometry.
			n.Position, n.Size = m.widget.Position(), m.widget.Size()
		}
		m.drawNote(g, n, n.ID == selected, n.ID == loadingID)
	}
}

func (m Model) drawNote(g *grid, n board.Note, selected, loading bool) {
	x0, y0 := m.toCell(n.Position)
	x1, y1 := m.toCell(board.Position{X: n.Position.X + n.Size.Width, Y: n.Position.Y + n.Size.Height})
	x1 = max(x1, x0+3)
	y1 = max(y1, y0+2)

	fill, ok := noteStyles[n.Color]
	if !ok {
		fill = styleYellow
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.set(x, y, ' ', fill)
		}
	}

	border := fill
	corners := [4]rune{'┌', '┐', '└', '┘'}
	h, v := '─', '│'
	switch {
	case loading:
		border = styleLoading
	case selected:
		border = styleSelected
		corners = [4]rune{'╔', '╗', '╚', '╝'}
		h, v = '═', '║'
	}
	drawBox(g, x0, y0, x1, y1, border, h, v, corners)

	inner := x1 - x0 - 2
	if inner <= 0 {
		return
	}
	text := n.Content
	if n.ImageURL != "" {
		text += "\n[image]"
	}
	if n.Link != "" {
		text += "\n→ " + n.Link
	}
	lines := strings.Split(wordwrap.String(text, inner), "\n")
	for i, line := range lines {
		y := y0 + 1 + i
		if y >= y1-1 {
			break
		}
		if r := []rune(line); len(r) > inner {
			line = string(r[:inner])
		}
		g.text(x0+1, y, line, fill)
	}
}

func drawBox(g *grid, x0, y0, x1, y1 int, s style, h, v rune, corners [4]rune) {
	if x1-x0 < 2 || y1-y0 < 2 {
		return
	}
	for x := x0 + 1; x < x1-1; x++ {
		g.set(x, y0, h, s)
		g.set(x, y1-1, h, s)
	}
	for y := y0 + 1; y < y1-1; y++ {
		g.set(x0, y, v, s)
		g.set(x1-1, y, v, s)
	}
	g.set(x0, y0, corners[0], s)
	g.set(x1-1, y0, corners[1], s)
	g.set(x0, y1-1, corners[2], s)
	g.set(x1-1, y1-1, corners[3], s)
}

// drawLine plots a Bresenham line of dots.
func drawLine(g *grid, x0, y0, x1, y1 int, s style) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		g.set(x0, y0, '·', s)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (m Model) inputLine() string {
	switch m.mode {
	case modeEdit:
		return inputStyle.Render("content: " + m.input + "█")
	case modeAdd:
		return inputStyle.Render("new idea: " + m.input + "█")
	case modeLink:
		return inputStyle.Render("link url: " + m.input + "█")
	}
	if m.assist != nil {
		if err := m.assist.LastError(); err != nil {
			return errorStyle.Render("error: " + err.Error())
		}
	}
	return ""
}

func (m Model) statusLine() string {
	sel := "-"
	if m.selected != "" {
		sel = shortID(m.selected)
	}
	parts := []string{
		m.mode.String(),
		"note " + sel,
		fmt.Sprintf("zoom %.0f%%", m.viewport.Scale*100),
	}
	if m.assist != nil {
		if id, ok := m.assist.Loading(); ok {
			parts = append(parts, "thinking on "+shortID(id))
		}
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, "? help")
	line := " " + strings.Join(parts, " | ") + " "
	return statusStyle.Width(max(m.width, 1)).Render(line)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

const helpText = `brainstorm

  tab / shift+tab   select next / previous note
  h j k l, arrows   pan
  + - 0             zoom in / out / reset
  a                 add an idea
  e                 edit selected note
  m                 move (arrows, shift for larger steps, enter to drop, esc to cancel)
  r                 resize (arrows, enter to commit, esc to cancel)
  c                 cycle color
  L                 attach link
  f                 bring to front
  d                 delete note
  y                 copy note text to clipboard
  i x g             improve / expand / generate image
  q, ctrl+c         quit

press any key to return`

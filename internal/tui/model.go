// Package tui is a terminal view of a board session.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/brainstorm/internal/board"
)

// Canvas pixels per terminal cell at scale 1.
const (
	cellW = 10.0
	cellH = 20.0

	moveStep   = 10.0
	fastStep   = 50.0
	assistWait = 2 * time.Minute
)

// Assistant runs AI actions and owns the loading and error notice.
type Assistant interface {
	Improve(ctx context.Context, noteID string) error
	Expand(ctx context.Context, noteID string) error
	GenerateImage(ctx context.Context, noteID string) error
	AddIdea(text string) (board.Note, error)
	Loading() (string, bool)
	LastError() error
}

type mode int

const (
	modeNormal mode = iota
	modeMove
	modeResize
	modeEdit
	modeAdd
	modeLink
	modeHelp
)

func (m mode) String() string {
	switch m {
	case modeMove:
		return "MOVE"
	case modeResize:
		return "RESIZE"
	case modeEdit:
		return "EDIT"
	case modeAdd:
		return "ADD"
	case modeLink:
		return "LINK"
	case modeHelp:
		return "HELP"
	default:
		return "NORMAL"
	}
}

type assistDoneMsg struct {
	action string
	err    error
}

// Model is the bubbletea model.
type Model struct {
	store    *board.Store
	assist   Assistant
	viewport board.Viewport

	width, height int

	mode     mode
	selected string
	widget   *board.Widget
	origin   board.Note
	input    string
	status   string

	copyText func(string) error
}

// New returns a model over store. assist may be nil, which disables the AI
// keys.
func New(store *board.Store, assist Assistant) Model {
	return Model{
		store:    store,
		assist:   assist,
		viewport: board.NewViewport(),
		width:    80,
		height:   24,
		copyText: clipboard.WriteAll,
	}
}

// Run starts the program on the alternate screen.
func Run(store *board.Store, assist Assistant) error {
	p := tea.NewProgram(New(store, assist), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case assistDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = msg.action + " done"
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeMove:
			return m.updateMove(msg), nil
		case modeResize:
			return m.updateResize(msg), nil
		case modeEdit, modeAdd, modeLink:
			return m.updateInput(msg), nil
		case modeHelp:
			m.mode = modeNormal
			return m, nil
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
	case "tab":
		m.cycle(1)
	case "shift+tab":
		m.cycle(-1)
	case "h", "left":
		m.viewport.Pan(cellW, 0)
	case "l", "right":
		m.viewport.Pan(-cellW, 0)
	case "k", "up":
		m.viewport.Pan(0, cellH)
	case "j", "down":
		m.viewport.Pan(0, -cellH)
	case "+", "=":
		m.viewport.ZoomIn()
	case "-":
		m.viewport.ZoomOut()
	case "0":
		m.viewport.Reset()
	case "a":
		m.mode, m.input = modeAdd, ""
	}

	n, ok := m.current()
	if !ok {
		return m, nil
	}

	switch key {
	case "m":
		m.begin(n)
		if err := m.widget.BeginDrag(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.mode = modeMove
	case "r":
		m.begin(n)
		if err := m.widget.BeginResize(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.mode = modeResize
	case "e":
		m.begin(n)
		m.mode, m.input = modeEdit, n.Content
	case "L":
		m.begin(n)
		if err := m.widget.ToggleLinkInput(); err != nil {
			m.status, m.widget = err.Error(), nil
			return m, nil
		}
		m.mode, m.input = modeLink, n.Link
	case "c":
		m.begin(n)
		if err := m.widget.SetColor(n.Color.Next()); err != nil {
			m.status = err.Error()
		}
		m.widget = nil
	case "f":
		m.store.Dispatch(board.BringToFront{ID: n.ID})
	case "d":
		m.store.Dispatch(board.DeleteNote{ID: n.ID})
		m.selected = ""
	case "y":
		if err := m.copyText(n.Content); err != nil {
			m.status = "copy failed: " + err.Error()
		} else {
			m.status = "copied"
		}
	case "i":
		return m, m.runAssist("improve", n.ID)
	case "x":
		return m, m.runAssist("expand", n.ID)
	case "g":
		return m, m.runAssist("image", n.ID)
	}
	return m, nil
}

func (m *Model) begin(n board.Note) {
	m.widget = board.NewWidget(m.store, n)
	m.origin = n
}

func (m Model) updateMove(msg tea.KeyMsg) Model {
	pos := m.widget.Position()
	step := moveStep
	switch msg.String() {
	case "H", "J", "K", "L", "shift+left", "shift+right", "shift+up", "shift+down":
		step = fastStep
	}
	switch msg.String() {
	case "h", "left", "H", "shift+left":
		pos.X -= step
	case "l", "right", "L", "shift+right":
		pos.X += step
	case "k", "up", "K", "shift+up":
		pos.Y -= step
	case "j", "down", "J", "shift+down":
		pos.Y += step
	case "esc":
		pos = m.origin.Position
		fallthrough
	case "enter":
		m.widget.DragTo(pos)
		m.widget.EndDrag()
		m.mode, m.widget = modeNormal, nil
		return m
	}
	m.widget.DragTo(pos)
	return m
}

func (m Model) updateResize(msg tea.KeyMsg) Model {
	size := m.widget.Size()
	switch msg.String() {
	case "h", "left":
		size.Width -= moveStep
	case "l", "right":
		size.Width += moveStep
	case "k", "up":
		size.Height -= moveStep
	case "j", "down":
		size.Height += moveStep
	case "esc":
		size = m.origin.Size
		fallthrough
	case "enter":
		m.widget.ResizeTo(size)
		m.widget.EndResize()
		m.mode, m.widget = modeNormal, nil
		return m
	}
	m.widget.ResizeTo(size)
	return m
}

// updateInput handles the single-line editors. In edit mode every keystroke
// is dispatched.
func (m Model) updateInput(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeLink {
			m.closeLinkInput()
		}
		m.mode, m.widget, m.input = modeNormal, nil, ""
		return m
	case tea.KeyEnter:
		m.commitInput()
		m.mode, m.widget, m.input = modeNormal, nil, ""
		return m
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	default:
		return m
	}

	switch m.mode {
	case modeEdit:
		if err := m.widget.EditContent(m.input); err != nil {
			m.status = err.Error()
		}
	case modeLink:
		m.widget.SetLinkDraft(m.input)
	}
	return m
}

func (m *Model) commitInput() {
	switch m.mode {
	case modeAdd:
		if m.assist == nil {
			return
		}
		n, err := m.assist.AddIdea(m.input)
		if err != nil {
			m.status = err.Error()
			return
		}
		m.selected = n.ID
	case modeLink:
		if !m.widget.CommitLink() {
			m.closeLinkInput()
		}
	}
}

func (m *Model) closeLinkInput() {
	if !m.widget.LinkInputOpen() {
		return
	}
	if err := m.widget.ToggleLinkInput(); err != nil {
		m.status = err.Error()
	}
}

func (m Model) runAssist(action, noteID string) tea.Cmd {
	if m.assist == nil {
		return nil
	}
	run := map[string]func(context.Context, string) error{
		"improve": m.assist.Improve,
		"expand":  m.assist.Expand,
		"image":   m.assist.GenerateImage,
	}[action]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), assistWait)
		defer cancel()
		return assistDoneMsg{action: action, err: run(ctx, noteID)}
	}
}

// current returns the selected note, falling back to the front-most one.
func (m *Model) current() (board.Note, bool) {
	if m.selected != "" {
		if n, ok := m.store.Note(m.selected); ok {
			return n, true
		}
	}
	notes := board.PaintOrder(m.store.Snapshot().Notes)
	if len(notes) == 0 {
		m.selected = ""
		return board.Note{}, false
	}
	n := notes[len(notes)-1]
	m.selected = n.ID
	return n, true
}

func (m *Model) cycle(dir int) {
	notes := board.PaintOrder(m.store.Snapshot().Notes)
	if len(notes) == 0 {
		m.selected = ""
		return
	}
	idx := -1
	for i, n := range notes {
		if n.ID == m.selected {
			idx = i
			break
		}
	}
	idx = ((idx+dir)%len(notes) + len(notes)) % len(notes)
	m.selected = notes[idx].ID
}

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/brainstorm/internal/board"
)

type fakeAssistant struct {
	store    *board.Store
	improved []string
	err      error
}

func (f *fakeAssistant) Improve(_ context.Context, id string) error {
	f.improved = append(f.improved, id)
	return f.err
}
func (f *fakeAssistant) Expand(context.Context, string) error        { return f.err }
func (f *fakeAssistant) GenerateImage(context.Context, string) error { return f.err }
func (f *fakeAssistant) Loading() (string, bool)                     { return "", false }
func (f *fakeAssistant) LastError() error                            { return f.err }

func (f *fakeAssistant) AddIdea(text string) (board.Note, error) {
	n := board.NewNote(text, board.Position{X: 40, Y: 40})
	f.store.Dispatch(board.AddNote{Note: n})
	return n, nil
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func setup(t *testing.T) (*board.Store, board.Note, Model) {
	t.Helper()
	s := board.NewStore()
	n := board.NewNote("hello", board.Position{X: 100, Y: 100})
	s.Dispatch(board.AddNote{Note: n})
	m := New(s, &fakeAssistant{store: s})
	m.copyText = func(string) error { return nil }
	return s, n, m
}

func TestMoveCommitsOnEnter(t *testing.T) {
	s, n, m := setup(t)

	m = press(t, m, keys("m"), keys("l"), keys("l"), keys("J"))
	require.Equal(t, modeMove, m.mode)
	got, _ := s.Note(n.ID)
	require.Equal(t, n.Position, got.Position, "position must not change mid-drag")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeNormal, m.mode)
	got, _ = s.Note(n.ID)
	require.Equal(t, board.Position{X: 120, Y: 150}, got.Position)
}

func TestMoveEscRestoresOrigin(t *testing.T) {
	s, n, m := setup(t)

	press(t, m, keys("m"), keys("h"), keys("h"), tea.KeyMsg{Type: tea.KeyEsc})
	got, _ := s.Note(n.ID)
	require.Equal(t, n.Position, got.Position)
}

func TestResizeClamps(t *testing.T) {
	s, n, m := setup(t)

	msgs := []tea.Msg{keys("r")}
	for range 10 {
		msgs = append(msgs, keys("h"))
	}
	msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
	press(t, m, msgs...)

	got, _ := s.Note(n.ID)
	require.Equal(t, board.Size{Width: 150, Height: 200}, got.Size)
}

func TestEditDispatchesEachKeystroke(t *testing.T) {
	s, n, m := setup(t)

	m = press(t, m, keys("e"), tea.KeyMsg{Type: tea.KeyBackspace}, keys("!"))
	got, _ := s.Note(n.ID)
	require.Equal(t, "hell!", got.Content)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeNormal, m.mode)
}

func TestAddIdeaSelectsNewNote(t *testing.T) {
	s, _, m := setup(t)

	m = press(t, m, keys("a"), keys("new"), tea.KeyMsg{Type: tea.KeySpace}, keys("idea"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, 2, s.NoteCount())
	got, ok := s.Note(m.selected)
	require.True(t, ok)
	require.Equal(t, "new idea", got.Content)
}

func TestLinkBlankIsNoop(t *testing.T) {
	s, n, m := setup(t)

	press(t, m, keys("L"), tea.KeyMsg{Type: tea.KeyEnter})
	got, _ := s.Note(n.ID)
	require.Empty(t, got.Link)

	press(t, m, keys("L"), keys("https://example.com"), tea.KeyMsg{Type: tea.KeyEnter})
	got, _ = s.Note(n.ID)
	require.Equal(t, "https://example.com", got.Link)
}

func TestColorCyclesAndDelete(t *testing.T) {
	s, n, m := setup(t)

	m = press(t, m, keys("c"))
	got, _ := s.Note(n.ID)
	require.Equal(t, board.ColorBlue, got.Color)

	press(t, m, keys("d"))
	require.Zero(t, s.NoteCount())
}

func TestCycleSelection(t *testing.T) {
	s, n, m := setup(t)
	second := board.NewNote("second", board.Position{X: 400, Y: 100})
	second.ZIndex = 1
	s.Dispatch(board.AddNote{Note: second})

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, n.ID, m.selected)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, second.ID, m.selected)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, n.ID, m.selected)
}

func TestCopyReportsFailure(t *testing.T) {
	_, _, m := setup(t)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return errors.New("no clipboard")
	}

	m = press(t, m, keys("y"))
	require.Equal(t, "hello", copied)
	require.Contains(t, m.status, "no clipboard")
}

func TestAssistCommand(t *testing.T) {
	s, n, _ := setup(t)
	fa := &fakeAssistant{store: s}
	m := New(s, fa)

	next, cmd := m.Update(keys("i"))
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, []string{n.ID}, fa.improved)

	next, _ = next.(Model).Update(msg)
	require.Equal(t, "improve done", next.(Model).status)
}

func TestViewRendersNotesAndStatus(t *testing.T) {
	_, _, m := setup(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	out := m.View()
	require.Contains(t, out, "hello")
	require.Contains(t, out, "NORMAL")
	require.Len(t, strings.Split(out, "\n"), 20)

	m = press(t, m, keys("?"))
	require.Contains(t, m.View(), "bring to front")
}

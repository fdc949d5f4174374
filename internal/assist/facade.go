// Package assist runs AI actions against notes on a board: improving a
// note's text, expanding it into new notes and generating an image for it.
package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/completion"
	"github.com/kalambet/brainstorm/internal/storage"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrEmptyContent = errors.New("content is empty")
)

const (
	DefaultMaxInFlight = 4

	// ExpandOffsetX and ExpandStepY place expanded notes to the right of the
	// source note, stacked downwards.
	ExpandOffsetX = 250
	ExpandStepY   = 150

	ideaAreaWidth  = 500
	ideaAreaHeight = 300
)

// Board is the part of board.Store the facade reads and dispatches to.
type Board interface {
	board.Dispatcher
	Note(id string) (board.Note, bool)
	NextZIndex() int
}

// Completer sends one prompt to the completion provider.
type Completer interface {
	Complete(ctx context.Context, prompt string, kind completion.Kind) (string, error)
}

// InteractionLog records AI calls.
type InteractionLog interface {
	SaveInteraction(i storage.Interaction) error
}

// Facade runs AI actions and tracks the board-wide loading indicator and
// error notice.
type Facade struct {
	board     Board
	completer Completer
	history   InteractionLog
	limiter   *semaphore.Weighted
	logger    *slog.Logger
	randFloat func() float64
	now       func() time.Time

	addMu sync.Mutex

	mu      sync.Mutex
	loading []inFlight
	seq     uint64
	lastErr error
}

type inFlight struct {
	seq    uint64
	noteID string
}

// New creates a Facade. history may be nil. If maxInFlight <= 0 it defaults
// to DefaultMaxInFlight.
func New(b Board, completer Completer, history InteractionLog, maxInFlight int) *Facade {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Facade{
		board:     b,
		completer: completer,
		history:   history,
		limiter:   semaphore.NewWeighted(int64(maxInFlight)),
		logger:    slog.Default(),
		randFloat: rand.Float64,
		now:       time.Now,
	}
}

// Loading returns the note id of the most recently started action that is
// still in flight.
func (f *Facade) Loading() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loading) == 0 {
		return "", false
	}
	return f.loading[len(f.loading)-1].noteID, true
}

// LastError returns the error notice left by the most recent failed action.
// It is cleared when an action succeeds or ClearError is called.
func (f *Facade) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Facade) ClearError() {
	f.mu.Lock()
	f.lastErr = nil
	f.mu.Unlock()
}

// Improve replaces the note's content with the completion for it.
func (f *Facade) Improve(ctx context.Context, noteID string) error {
	return f.run(ctx, ActionImprove, noteID, improvePrompt, completion.KindText, func(n board.Note, out string) {
		f.board.Dispatch(board.UpdateNote{Patch: board.NotePatch{ID: n.ID, Content: board.Ptr(out)}})
	})
}

// Expand adds one note per non-blank line of the completion, placed to the
// right of the source note.
func (f *Facade) Expand(ctx context.Context, noteID string) error {
	return f.run(ctx, ActionExpand, noteID, expandPrompt, completion.KindText, func(n board.Note, out string) {
		for i, seg := range SplitSegments(out) {
			pos := board.Position{
				X: n.Position.X + ExpandOffsetX,
				Y: n.Position.Y + float64(ExpandStepY*i),
			}
			f.addOnTop(board.NewNote(seg, pos))
		}
	})
}

// GenerateImage stores a generated image URL on the note.
func (f *Facade) GenerateImage(ctx context.Context, noteID string) error {
	return f.run(ctx, ActionImage, noteID, imagePrompt, completion.KindImage, func(n board.Note, out string) {
		f.board.Dispatch(board.UpdateNote{Patch: board.NotePatch{ID: n.ID, ImageURL: board.Ptr(out)}})
	})
}

// AddIdea places a new note with text at a random spot in the idea area.
func (f *Facade) AddIdea(text string) (board.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return board.Note{}, ErrEmptyContent
	}
	n := board.NewNote(text, board.Position{
		X: f.randFloat() * ideaAreaWidth,
		Y: f.randFloat() * ideaAreaHeight,
	})
	return f.addOnTop(n), nil
}

// addOnTop adds n above every note already on the board. addMu keeps
// concurrent actions from reading the same zIndex.
func (f *Facade) addOnTop(n board.Note) board.Note {
	f.addMu.Lock()
	defer f.addMu.Unlock()
	n.ZIndex = f.board.NextZIndex()
	f.board.Dispatch(board.AddNote{Note: n})
	return n
}

// run captures the note, calls the provider and hands the result to apply.
// On any failure the board is left untouched.
func (f *Facade) run(
	ctx context.Context,
	action, noteID string,
	prompt func(string) string,
	kind completion.Kind,
	apply func(board.Note, string),
) error {
	note, ok := f.board.Note(noteID)
	if !ok {
		return f.fail(fmt.Errorf("%s %s: %w", action, noteID, ErrNoteNotFound))
	}
	if strings.TrimSpace(note.Content) == "" {
		return f.fail(fmt.Errorf("%s %s: %w", action, noteID, ErrEmptyContent))
	}

	done := f.begin(noteID)
	defer done()

	if err := f.limiter.Acquire(ctx, 1); err != nil {
		return f.fail(fmt.Errorf("%s %s: %w", action, noteID, err))
	}
	defer f.limiter.Release(1)

	p := prompt(note.Content)
	start := f.now()
	out, err := f.completer.Complete(ctx, p, kind)
	f.record(action, noteID, p, out, err, f.now().Sub(start))
	if err != nil {
		f.logger.Warn("assist action failed", "action", action, "note_id", noteID, "error", err)
		return f.fail(err)
	}

	apply(note, out)

	f.mu.Lock()
	f.lastErr = nil
	f.mu.Unlock()
	f.logger.Debug("assist action completed", "action", action, "note_id", noteID)
	return nil
}

func (f *Facade) begin(noteID string) func() {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.loading = append(f.loading, inFlight{seq: seq, noteID: noteID})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, l := range f.loading {
			if l.seq == seq {
				f.loading = append(f.loading[:i], f.loading[i+1:]...)
				return
			}
		}
	}
}

func (f *Facade) fail(err error) error {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	return err
}

func (f *Facade) record(action, noteID, prompt, response string, callErr error, took time.Duration) {
	if f.history == nil {
		return
	}
	i := storage.Interaction{
		ID:         uuid.New().String(),
		CreatedAt:  f.now().UTC(),
		Action:     action,
		NoteID:     noteID,
		Prompt:     prompt,
		Response:   response,
		Status:     storage.StatusCompleted,
		DurationMs: took.Milliseconds(),
	}
	if callErr != nil {
		i.Status = storage.StatusFailed
		i.Error = callErr.Error()
		i.Response = ""
	}
	if err := f.history.SaveInteraction(i); err != nil {
		f.logger.Warn("failed to record interaction", "action", action, "error", err)
	}
}

package board

import (
	"errors"
	"strings"
)

// GestureState is the pointer state of a note widget.
type GestureState int

const (
	Idle GestureState = iota
	Dragging
	Resizing
)

func (g GestureState) String() string {
	switch g {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

var (
	ErrGestureInProgress = errors.New("another gesture is in progress")
	ErrNotDragging       = errors.New("note is not being dragged")
	ErrNotResizing       = errors.New("note is not being resized")
	ErrInvalidColor      = errors.New("color is not in the palette")
	ErrBodyDisabled      = errors.New("note body is disabled while resizing")
)

// Widget translates gestures on one note into dispatched actions. It holds
// only transient state; the Store stays the owner of the note.
//
// Drag and resize report their final geometry once, on gesture end. Content
// edits dispatch on every keystroke.
type Widget struct {
	id    string
	d     Dispatcher
	state GestureState

	pos     Position
	size    Size
	content string
	color   Color

	linkOpen  bool
	linkDraft string
}

// NewWidget binds a widget to n. d receives every resulting action.
func NewWidget(d Dispatcher, n Note) *Widget {
	w := &Widget{id: n.ID, d: d}
	w.Sync(n)
	return w
}

// Sync reconciles local state from the store's copy of the note. Geometry
// is only taken while idle so an in-flight gesture is not overwritten.
func (w *Widget) Sync(n Note) {
	if w.state == Idle {
		w.pos = n.Position
		w.size = n.normalize().Size
	}
	w.content = n.Content
	w.color = n.Color
}

func (w *Widget) ID() string          { return w.id }
func (w *Widget) State() GestureState { return w.state }
func (w *Widget) Position() Position  { return w.pos }
func (w *Widget) Size() Size          { return w.size }
func (w *Widget) Content() string     { return w.content }
func (w *Widget) Color() Color        { return w.color }
func (w *Widget) LinkInputOpen() bool { return w.linkOpen }
func (w *Widget) LinkDraft() string   { return w.linkDraft }

// Interactive reports whether the card body accepts pointer input.
func (w *Widget) Interactive() bool {
	return w.state != Resizing
}

// BeginDrag raises the note to the front and enters the dragging state.
func (w *Widget) BeginDrag() error {
	if w.state != Idle {
		return ErrGestureInProgress
	}
	w.d.Dispatch(BringToFront{ID: w.id})
	w.state = Dragging
	return nil
}

// DragTo moves the card locally. Nothing is dispatched until EndDrag.
func (w *Widget) DragTo(p Position) error {
	if w.state != Dragging {
		return ErrNotDragging
	}
	w.pos = p
	return nil
}

// EndDrag commits the final position.
func (w *Widget) EndDrag() error {
	if w.state != Dragging {
		return ErrNotDragging
	}
	w.state = Idle
	w.d.Dispatch(UpdateNote{Patch: NotePatch{ID: w.id, Position: Ptr(w.pos)}})
	return nil
}

// BeginResize grabs the bottom-right handle.
func (w *Widget) BeginResize() error {
	if w.state != Idle {
		return ErrGestureInProgress
	}
	w.state = Resizing
	return nil
}

// ResizeTo sets the local size, clamped per axis, and returns the applied
// value. The top-left corner stays anchored.
func (w *Widget) ResizeTo(s Size) (Size, error) {
	if w.state != Resizing {
		return w.size, ErrNotResizing
	}
	w.size = ClampSize(s)
	return w.size, nil
}

// ResizeToCorner resizes so the bottom-right corner lands on p.
func (w *Widget) ResizeToCorner(p Position) (Size, error) {
	return w.ResizeTo(Size{Width: p.X - w.pos.X, Height: p.Y - w.pos.Y})
}

// EndResize commits the final size.
func (w *Widget) EndResize() error {
	if w.state != Resizing {
		return ErrNotResizing
	}
	w.state = Idle
	w.d.Dispatch(UpdateNote{Patch: NotePatch{ID: w.id, Size: Ptr(w.size)}})
	return nil
}

// EditContent is called per keystroke with the full text.
func (w *Widget) EditContent(text string) error {
	if !w.Interactive() {
		return ErrBodyDisabled
	}
	w.content = text
	w.d.Dispatch(UpdateNote{Patch: NotePatch{ID: w.id, Content: Ptr(text)}})
	return nil
}

// SetColor applies a palette swatch.
func (w *Widget) SetColor(c Color) error {
	if !w.Interactive() {
		return ErrBodyDisabled
	}
	if !c.Valid() {
		return ErrInvalidColor
	}
	w.color = c
	w.d.Dispatch(UpdateNote{Patch: NotePatch{ID: w.id, Color: Ptr(c)}})
	return nil
}

// ToggleLinkInput shows or hides the inline URL editor.
func (w *Widget) ToggleLinkInput() error {
	if !w.Interactive() {
		return ErrBodyDisabled
	}
	w.linkOpen = !w.linkOpen
	return nil
}

func (w *Widget) SetLinkDraft(url string) {
	w.linkDraft = url
}

// CommitLink attaches the drafted URL and closes the editor. A blank draft,
// or a body disabled by a resize, does nothing and reports false.
func (w *Widget) CommitLink() bool {
	url := strings.TrimSpace(w.linkDraft)
	if url == "" || !w.Interactive() {
		return false
	}
	w.d.Dispatch(UpdateNote{Patch: NotePatch{ID: w.id, Link: Ptr(url)}})
	w.linkOpen = false
	w.linkDraft = ""
	return true
}

package board

import "github.com/google/uuid"

// Color is one of the fixed note palette swatches.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
)

// Palette lists the swatches in display order. The first entry is the default.
var Palette = []Color{ColorYellow, ColorBlue, ColorGreen, ColorPink, ColorPurple}

func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// Next returns the swatch after c, wrapping around. Invalid colors map to the default.
func (c Color) Next() Color {
	for i, p := range Palette {
		if c == p {
			return Palette[(i+1)%len(Palette)]
		}
	}
	return Palette[0]
}

// NewID returns a collision-free identifier for a board entity.
func NewID() string {
	return uuid.New().String()
}

// Note is a positioned, resizable, colorable card on the board.
type Note struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Color    Color    `json:"color"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Link     string   `json:"link,omitempty"`
	ZIndex   int      `json:"zIndex"`
}

// NewNote returns a fully formed note with a fresh id, default size and color.
func NewNote(content string, pos Position) Note {
	return Note{
		ID:       NewID(),
		Content:  content,
		Position: pos,
		Size:     DefaultNoteSize,
		Color:    Palette[0],
	}
}

func (n Note) Bounds() Rect {
	return Rect{X: n.Position.X, Y: n.Position.Y, Width: n.Size.Width, Height: n.Size.Height}
}

// normalize fills zero-valued display fields so every stored note satisfies
// the size and palette invariants.
func (n Note) normalize() Note {
	if n.Size == (Size{}) {
		n.Size = DefaultNoteSize
	}
	n.Size = ClampSize(n.Size)
	if !n.Color.Valid() {
		n.Color = Palette[0]
	}
	return n
}

// Connector is a visual edge between two notes. StartID and EndID are
// references, not ownership; either may dangle.
type Connector struct {
	ID      string `json:"id"`
	StartID string `json:"startId"`
	EndID   string `json:"endId"`
	Style   string `json:"style,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Group is a named, non-owning collection of note references.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	NoteIDs []string `json:"noteIds"`
}

func (g Group) clone() Group {
	g.NoteIDs = append([]string(nil), g.NoteIDs...)
	return g
}

// NotePatch carries the fields of an UPDATE_NOTE. Nil fields are absent and
// left untouched by the merge. ZIndex is deliberately not patchable.
type NotePatch struct {
	ID       string    `json:"id"`
	Content  *string   `json:"content,omitempty"`
	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
	Color    *Color    `json:"color,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	Link     *string   `json:"link,omitempty"`
}

func (p NotePatch) apply(n *Note) {
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Size != nil {
		n.Size = ClampSize(*p.Size)
	}
	if p.Color != nil && p.Color.Valid() {
		n.Color = *p.Color
	}
	if p.ImageURL != nil {
		n.ImageURL = *p.ImageURL
	}
	if p.Link != nil {
		n.Link = *p.Link
	}
}

// ConnectorPatch carries the fields of an UPDATE_CONNECTOR.
type ConnectorPatch struct {
	ID      string  `json:"id"`
	StartID *string `json:"startId,omitempty"`
	EndID   *string `json:"endId,omitempty"`
	Style   *string `json:"style,omitempty"`
	Label   *string `json:"label,omitempty"`
}

func (p ConnectorPatch) apply(c *Connector) {
	if p.StartID != nil {
		c.StartID = *p.StartID
	}
	if p.EndID != nil {
		c.EndID = *p.EndID
	}
	if p.Style != nil {
		c.Style = *p.Style
	}
	if p.Label != nil {
		c.Label = *p.Label
	}
}

// GroupPatch carries the fields of an UPDATE_GROUP.
type GroupPatch struct {
	ID      string    `json:"id"`
	Name    *string   `json:"name,omitempty"`
	NoteIDs *[]string `json:"noteIds,omitempty"`
}

func (p GroupPatch) apply(g *Group) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.NoteIDs != nil {
		g.NoteIDs = append([]string(nil), (*p.NoteIDs)...)
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

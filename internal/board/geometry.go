package board

// Position is a point in canvas coordinate space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the width and height of a note card.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	MinNoteSize     = Size{Width: 150, Height: 150}
	MaxNoteSize     = Size{Width: 400, Height: 400}
	DefaultNoteSize = Size{Width: 200, Height: 200}
)

// ClampSize bounds each axis of s to [MinNoteSize, MaxNoteSize] independently.
func ClampSize(s Size) Size {
	return Size{
		Width:  clamp(s.Width, MinNoteSize.Width, MaxNoteSize.Width),
		Height: clamp(s.Height, MinNoteSize.Height, MaxNoteSize.Height),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rect is an axis-aligned rectangle in canvas space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() Position {
	return Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.Width, o.X+o.Width)
	maxY := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Grow expands r by pad on every side. A negative pad shrinks it.
func (r Rect) Grow(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

package board

const (
	minScale = 0.25
	maxScale = 4.0
	zoomStep = 1.2
)

// Viewport is the pan/zoom transform between screen and canvas space.
// The zero value is not usable; start from NewViewport.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func NewViewport() Viewport {
	return Viewport{Scale: 1}
}

func (v *Viewport) ZoomIn()  { v.Scale = clamp(v.Scale*zoomStep, minScale, maxScale) }
func (v *Viewport) ZoomOut() { v.Scale = clamp(v.Scale/zoomStep, minScale, maxScale) }
func (v *Viewport) Reset()   { *v = NewViewport() }

// Pan shifts the view by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ToCanvas maps a screen point to canvas coordinates.
func (v Viewport) ToCanvas(p Position) Position {
	return Position{X: (p.X - v.OffsetX) / v.Scale, Y: (p.Y - v.OffsetY) / v.Scale}
}

// ToScreen maps a canvas point to screen coordinates.
func (v Viewport) ToScreen(p Position) Position {
	return Position{X: p.X*v.Scale + v.OffsetX, Y: p.Y*v.Scale + v.OffsetY}
}

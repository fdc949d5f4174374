// Package render draws a board snapshot to a PNG image.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/kalambet/brainstorm/internal/board"
)

const (
	margin     = 40.0
	notePad    = 10.0
	fontSize   = 13.0
	lineHeight = 1.4
	arrowSize  = 8.0
	emptyW     = 400
	emptyH     = 300
)

// Fill colours for the note palette.
var noteFill = map[board.Color]string{
	board.ColorYellow: "#fef08a",
	board.ColorBlue:   "#bfdbfe",
	board.ColorGreen:  "#bbf7d0",
	board.ColorPink:   "#fbcfe8",
	board.ColorPurple: "#e9d5ff",
}

// SavePNG renders snap to a PNG file at path.
func SavePNG(path string, snap board.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := PNG(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PNG renders snap: group frames at the back, then connectors, then notes
// in paint order.
func PNG(w io.Writer, snap board.Snapshot) error {
	face, err := loadFace()
	if err != nil {
		return err
	}

	frames := board.RenderGroups(snap)
	segments := board.RenderConnectors(snap)
	notes := board.PaintOrder(snap.Notes)

	extent, ok := boardExtent(notes, frames)
	width, height := emptyW, emptyH
	if ok {
		width = int(math.Ceil(extent.Width + 2*margin))
		height = int(math.Ceil(extent.Height + 2*margin))
	}
	// Shift board coordinates so the extent starts at the margin.
	offX, offY := margin-extent.X, margin-extent.Y

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face)

	for _, f := range frames {
		drawFrame(dc, f, offX, offY)
	}
	for _, s := range segments {
		drawSegment(dc, s, offX, offY)
	}
	for _, n := range notes {
		drawNote(dc, n, offX, offY)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func loadFace() (font.Face, error) {
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

func boardExtent(notes []board.Note, frames []board.GroupFrame) (board.Rect, bool) {
	var (
		r     board.Rect
		found bool
	)
	add := func(b board.Rect) {
		if !found {
			r, found = b, true
			return
		}
		r = r.Union(b)
	}
	for _, n := range notes {
		add(n.Bounds())
	}
	for _, f := range frames {
		add(f.Bounds)
	}
	return r, found
}

func drawFrame(dc *gg.Context, f board.GroupFrame, offX, offY float64) {
	x, y := f.Bounds.X+offX, f.Bounds.Y+offY
	dc.SetHexColor("#f3f4f6")
	dc.DrawRoundedRectangle(x, y, f.Bounds.Width, f.Bounds.Height, 8)
	dc.Fill()

	dc.SetHexColor("#9ca3af")
	dc.SetLineWidth(1.5)
	dc.SetDash(6, 4)
	dc.DrawRoundedRectangle(x, y, f.Bounds.Width, f.Bounds.Height, 8)
	dc.Stroke()
	dc.SetDash()

	if f.Name != "" {
		dc.SetHexColor("#4b5563")
		dc.DrawString(f.Name, x+6, y-6)
	}
}

func drawSegment(dc *gg.Context, s board.Segment, offX, offY float64) {
	x1, y1 := s.Start.X+offX, s.Start.Y+offY
	x2, y2 := s.End.X+offX, s.End.Y+offY

	dc.SetHexColor("#374151")
	dc.SetLineWidth(2)
	if s.Style == "dashed" {
		dc.SetDash(8, 5)
	}
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
	dc.SetDash()

	drawArrow(dc, x1, y1, (x1+x2)/2, (y1+y2)/2)

	if s.Label != "" {
		mid := s.Midpoint()
		dc.DrawStringAnchored(s.Label, mid.X+offX, mid.Y+offY-arrowSize, 0.5, 1)
	}
}

// drawArrow draws a filled head at (tx, ty) pointing away from (fx, fy).
func drawArrow(dc *gg.Context, fx, fy, tx, ty float64) {
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const spread = 0.5
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-arrowSize*dx+arrowSize*dy*spread, ty-arrowSize*dy-arrowSize*dx*spread)
	dc.LineTo(tx-arrowSize*dx-arrowSize*dy*spread, ty-arrowSize*dy+arrowSize*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

func drawNote(dc *gg.Context, n board.Note, offX, offY float64) {
	x, y := n.Position.X+offX, n.Position.Y+offY
	w, h := n.Size.Width, n.Size.Height

	// Drop shadow.
	dc.SetRGBA(0, 0, 0, 0.15)
	dc.DrawRoundedRectangle(x+3, y+3, w, h, 6)
	dc.Fill()

	fill, ok := noteFill[n.Color]
	if !ok {
		fill = noteFill[board.Palette[0]]
	}
	dc.SetHexColor(fill)
	dc.DrawRoundedRectangle(x, y, w, h, 6)
	dc.FillPreserve()
	dc.SetHexColor("#a8a29e")
	dc.SetLineWidth(1)
	dc.Stroke()

	text := n.Content
	var extra []string
	if n.ImageURL != "" {
		extra = append(extra, "[image]")
	}
	if n.Link != "" {
		extra = append(extra, "-> "+n.Link)
	}
	if len(extra) > 0 {
		text += "\n\n" + strings.Join(extra, "\n")
	}

	dc.Push()
	dc.DrawRectangle(x, y, w, h)
	dc.Clip()
	dc.SetHexColor("#1f2937")
	dc.DrawStringWrapped(text, x+notePad, y+notePad, 0, 0, w-2*notePad, lineHeight, gg.AlignLeft)
	dc.ResetClip()
	dc.Pop()
}

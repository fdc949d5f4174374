package board

// Segment is a connector resolved against current note geometry.
type Segment struct {
	ConnectorID string   `json:"connectorId"`
	Label       string   `json:"label,omitempty"`
	Style       string   `json:"style,omitempty"`
	Start       Position `json:"start"`
	End         Position `json:"end"`
}

// Midpoint is where a label is drawn.
func (s Segment) Midpoint() Position {
	return Position{X: (s.Start.X + s.End.X) / 2, Y: (s.Start.Y + s.End.Y) / 2}
}

// RenderConnectors resolves every connector's endpoints from the notes in
// snap. Connectors with a dangling endpoint produce no segment.
func RenderConnectors(snap Snapshot) []Segment {
	byID := make(map[string]Note, len(snap.Notes))
	for _, n := range snap.Notes {
		byID[n.ID] = n
	}

	segments := make([]Segment, 0, len(snap.Connectors))
	for _, c := range snap.Connectors {
		start, ok := byID[c.StartID]
		if !ok {
			continue
		}
		end, ok := byID[c.EndID]
		if !ok {
			continue
		}
		segments = append(segments, Segment{
			ConnectorID: c.ID,
			Label:       c.Label,
			Style:       c.Style,
			Start:       start.Bounds().Center(),
			End:         end.Bounds().Center(),
		})
	}
	return segments
}

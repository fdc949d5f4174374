package board

// GroupPadding is the margin drawn around member notes.
const GroupPadding = 20

// GroupFrame is a group resolved against current note geometry.
type GroupFrame struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
	Bounds  Rect   `json:"bounds"`
	Members int    `json:"members"`
}

// GroupBounds returns the padded rectangle around g's present members.
// Orphaned references are ignored; ok is false when none resolve.
func GroupBounds(g Group, notes []Note) (Rect, int, bool) {
	members := make(map[string]struct{}, len(g.NoteIDs))
	for _, id := range g.NoteIDs {
		members[id] = struct{}{}
	}

	var (
		bounds Rect
		count  int
	)
	for _, n := range notes {
		if _, ok := members[n.ID]; !ok {
			continue
		}
		if count == 0 {
			bounds = n.Bounds()
		} else {
			bounds = bounds.Union(n.Bounds())
		}
		count++
	}
	if count == 0 {
		return Rect{}, 0, false
	}
	return bounds.Grow(GroupPadding), count, true
}

// RenderGroups resolves every group in snap that has at least one member
// present.
func RenderGroups(snap Snapshot) []GroupFrame {
	frames := make([]GroupFrame, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		r, n, ok := GroupBounds(g, snap.Notes)
		if !ok {
			continue
		}
		frames = append(frames, GroupFrame{GroupID: g.ID, Name: g.Name, Bounds: r, Members: n})
	}
	return frames
}

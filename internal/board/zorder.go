package board

import (
	"slices"
	"sort"
)

// bringToFront raises the note above every current peer and moves it to
// the end of the slice. Other notes sharing the id are dropped, leaving the
// first match as the single raised copy. Caller holds s.mu.
func (s *Store) bringToFront(id string) bool {
	if len(s.notes) == 0 {
		s.logger.Debug("bring to front on empty board", "id", id)
		return false
	}
	match := noteID(id)
	i := slices.IndexFunc(s.notes, match)
	if i < 0 {
		s.logger.Debug("action target not found", "type", TypeBringToFront, "id", id)
		return false
	}

	n := s.notes[i]
	n.ZIndex = maxZIndex(s.notes) + 1
	s.notes = append(slices.DeleteFunc(s.notes, match), n)
	return true
}

func maxZIndex(notes []Note) int {
	m := notes[0].ZIndex
	for _, n := range notes[1:] {
		m = max(m, n.ZIndex)
	}
	return m
}

// PaintOrder returns notes sorted back to front by ZIndex. Ties keep their
// slice order.
func PaintOrder(notes []Note) []Note {
	out := slices.Clone(notes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// TopmostAt returns the front-most note whose bounds contain p.
func TopmostAt(notes []Note, p Position) (Note, bool) {
	ordered := PaintOrder(notes)
	for i := len(ordered) - 1; i >= 0; i-- {
		b := ordered[i].Bounds()
		if p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height {
			return ordered[i], true
		}
	}
	return Note{}, false
}

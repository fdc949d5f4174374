package board

import (
	"log/slog"
	"slices"
	"sync"
)

// Dispatcher is the single sanctioned path for mutating board state.
type Dispatcher interface {
	Dispatch(a Action)
}

// Snapshot is a deep copy of the board at one instant. Notes are in
// insertion order, with raised notes moved to the end; use PaintOrder for
// back-to-front drawing.
type Snapshot struct {
	Notes      []Note      `json:"notes"`
	Connectors []Connector `json:"connectors"`
	Groups     []Group     `json:"groups"`
}

// Note returns the note with the given id from the snapshot.
func (s Snapshot) Note(id string) (Note, bool) {
	for _, n := range s.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Store owns the notes, connectors and groups of one board session. All
// mutation goes through Dispatch, which is serialised and never fails.
type Store struct {
	mu         sync.Mutex
	notes      []Note
	connectors []Connector
	groups     []Group
	observers  []func(Snapshot)
	logger     *slog.Logger
}

// NewStore returns an empty board session.
func NewStore() *Store {
	return &Store{logger: slog.Default()}
}

// Subscribe registers fn to receive a snapshot after every dispatch that
// changed state. fn runs outside the store lock and may dispatch.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Dispatch applies a to the store. Unknown actions and missing ids are
// logged and absorbed.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	changed := s.apply(a)
	var (
		snap      Snapshot
		observers []func(Snapshot)
	)
	if changed && len(s.observers) > 0 {
		snap = s.snapshotLocked()
		observers = slices.Clone(s.observers)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (s *Store) apply(a Action) bool {
	switch a := a.(type) {
	case AddNote:
		s.notes = append(s.notes, a.Note.normalize())
		return true
	case UpdateNote:
		return s.found(a, a.Patch.ID, updateAll(s.notes, noteID(a.Patch.ID), a.Patch.apply))
	case DeleteNote:
		var ok bool
		s.notes, ok = deleteAll(s.notes, noteID(a.ID))
		return s.found(a, a.ID, ok)
	case AddConnector:
		s.connectors = append(s.connectors, a.Connector)
		return true
	case UpdateConnector:
		return s.found(a, a.Patch.ID, updateAll(s.connectors, connectorID(a.Patch.ID), a.Patch.apply))
	case DeleteConnector:
		var ok bool
		s.connectors, ok = deleteAll(s.connectors, connectorID(a.ID))
		return s.found(a, a.ID, ok)
	case AddGroup:
		s.groups = append(s.groups, a.Group.clone())
		return true
	case UpdateGroup:
		return s.found(a, a.Patch.ID, updateAll(s.groups, groupID(a.Patch.ID), a.Patch.apply))
	case DeleteGroup:
		var ok bool
		s.groups, ok = deleteAll(s.groups, groupID(a.ID))
		return s.found(a, a.ID, ok)
	case BringToFront:
		return s.bringToFront(a.ID)
	case Unknown:
		s.logger.Warn("unknown action type", "type", a.Tag)
		return false
	default:
		s.logger.Warn("unsupported action", "action", a)
		return false
	}
}

// found logs a no-op when an update or delete matched nothing.
func (s *Store) found(a Action, id string, ok bool) bool {
	if !ok {
		s.logger.Debug("action target not found", "type", a.Type(), "id", id)
	}
	return ok
}

// Adds never check ids for uniqueness, so updates and deletes act on every
// entity carrying the id.
func updateAll[T any](items []T, match func(T) bool, fn func(*T)) bool {
	hit := false
	for i := range items {
		if match(items[i]) {
			fn(&items[i])
			hit = true
		}
	}
	return hit
}

func deleteAll[T any](items []T, match func(T) bool) ([]T, bool) {
	n := len(items)
	items = slices.DeleteFunc(items, match)
	return items, len(items) < n
}

func noteID(id string) func(Note) bool           { return func(n Note) bool { return n.ID == id } }
func connectorID(id string) func(Connector) bool { return func(c Connector) bool { return c.ID == id } }
func groupID(id string) func(Group) bool         { return func(g Group) bool { return g.ID == id } }

// Snapshot returns a deep copy of the current board.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Notes:      slices.Clone(s.notes),
		Connectors: slices.Clone(s.connectors),
		Groups:     make([]Group, len(s.groups)),
	}
	if snap.Notes == nil {
		snap.Notes = []Note{}
	}
	if snap.Connectors == nil {
		snap.Connectors = []Connector{}
	}
	for i, g := range s.groups {
		snap.Groups[i] = g.clone()
	}
	return snap
}

// Note returns a copy of the note with the given id.
func (s *Store) Note(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.notes, noteID(id))
	if i < 0 {
		return Note{}, false
	}
	return s.notes[i], true
}

// NextZIndex returns a zIndex that paints above every current note: the
// highest zIndex plus one, or 0 on an empty board.
func (s *Store) NextZIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notes) == 0 {
		return 0
	}
	return maxZIndex(s.notes) + 1
}

// NoteCount returns the number of notes on the board.
func (s *Store) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Reset discards all entities, ending the session. Observers are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	s.notes, s.connectors, s.groups = nil, nil, nil
	snap := s.snapshotLocked()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

package board

import (
	"encoding/json"
	"fmt"
)

// ActionType is the wire tag of an action.
type ActionType string

const (
	TypeAddNote         ActionType = "ADD_NOTE"
	TypeUpdateNote      ActionType = "UPDATE_NOTE"
	TypeDeleteNote      ActionType = "DELETE_NOTE"
	TypeAddConnector    ActionType = "ADD_CONNECTOR"
	TypeUpdateConnector ActionType = "UPDATE_CONNECTOR"
	TypeDeleteConnector ActionType = "DELETE_CONNECTOR"
	TypeAddGroup        ActionType = "ADD_GROUP"
	TypeUpdateGroup     ActionType = "UPDATE_GROUP"
	TypeDeleteGroup     ActionType = "DELETE_GROUP"
	TypeBringToFront    ActionType = "BRING_TO_FRONT"
)

// Action is the closed set of mutations the Store accepts. The unexported
// marker keeps the set closed to this package.
type Action interface {
	Type() ActionType
	isAction()
}

type (
	AddNote         struct{ Note Note }
	UpdateNote      struct{ Patch NotePatch }
	DeleteNote      struct{ ID string }
	AddConnector    struct{ Connector Connector }
	UpdateConnector struct{ Patch ConnectorPatch }
	DeleteConnector struct{ ID string }
	AddGroup        struct{ Group Group }
	UpdateGroup     struct{ Patch GroupPatch }
	DeleteGroup     struct{ ID string }
	BringToFront    struct{ ID string }

	// Unknown is the catch-all for tags outside the vocabulary. Dispatching
	// it is logged and otherwise ignored.
	Unknown struct {
		Tag     string
		Payload json.RawMessage
	}
)

func (AddNote) Type() ActionType         { return TypeAddNote }
func (UpdateNote) Type() ActionType      { return TypeUpdateNote }
func (DeleteNote) Type() ActionType      { return TypeDeleteNote }
func (AddConnector) Type() ActionType    { return TypeAddConnector }
func (UpdateConnector) Type() ActionType { return TypeUpdateConnector }
func (DeleteConnector) Type() ActionType { return TypeDeleteConnector }
func (AddGroup) Type() ActionType        { return TypeAddGroup }
func (UpdateGroup) Type() ActionType     { return TypeUpdateGroup }
func (DeleteGroup) Type() ActionType     { return TypeDeleteGroup }
func (BringToFront) Type() ActionType    { return TypeBringToFront }
func (u Unknown) Type() ActionType       { return ActionType(u.Tag) }

func (AddNote) isAction()         {}
func (UpdateNote) isAction()      {}
func (DeleteNote) isAction()      {}
func (AddConnector) isAction()    {}
func (UpdateConnector) isAction() {}
func (DeleteConnector) isAction() {}
func (AddGroup) isAction()        {}
func (UpdateGroup) isAction()     {}
func (DeleteGroup) isAction()     {}
func (BringToFront) isAction()    {}
func (Unknown) isAction()         {}

// WireAction is the JSON form {"type": "...", "payload": {...}}.
type WireAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type idPayload struct {
	ID string `json:"id"`
}

// DecodeAction parses the wire form. Unrecognised tags decode to Unknown
// rather than failing; only malformed JSON is an error.
func DecodeAction(data []byte) (Action, error) {
	var w WireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}
	return w.Action()
}

// Action converts the wire form to the typed action.
func (w WireAction) Action() (Action, error) {
	payload := w.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	var (
		a   Action
		err error
	)
	switch ActionType(w.Type) {
	case TypeAddNote:
		var n Note
		err = json.Unmarshal(payload, &n)
		a = AddNote{Note: n}
	case TypeUpdateNote:
		var p NotePatch
		err = json.Unmarshal(payload, &p)
		a = UpdateNote{Patch: p}
	case TypeDeleteNote:
		var p idPayload
		err = json.Unmarshal(payload, &p)
		a = DeleteNote{ID: p.ID}
	case TypeAddConnector:
		var c Connector
		err = json.Unmarshal(payload, &c)
		a = AddConnector{Connector: c}
	case TypeUpdateConnector:
		var p ConnectorPatch
		err = json.Unmarshal(payload, &p)
		a = UpdateConnector{Patch: p}
	case TypeDeleteConnector:
		var p idPayload
		err = json.Unmarshal(payload, &p)
		a = DeleteConnector{ID: p.ID}
	case TypeAddGroup:
		var g Group
		err = json.Unmarshal(payload, &g)
		a = AddGroup{Group: g}
	case TypeUpdateGroup:
		var p GroupPatch
		err = json.Unmarshal(payload, &p)
		a = UpdateGroup{Patch: p}
	case TypeDeleteGroup:
		var p idPayload
		err = json.Unmarshal(payload, &p)
		a = DeleteGroup{ID: p.ID}
	case TypeBringToFront:
		var p idPayload
		err = json.Unmarshal(payload, &p)
		a = BringToFront{ID: p.ID}
	default:
		return Unknown{Tag: w.Type, Payload: w.Payload}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", w.Type, err)
	}
	return a, nil
}

// EncodeAction returns the wire form of a.
func EncodeAction(a Action) (WireAction, error) {
	var payload any
	switch a := a.(type) {
	case AddNote:
		payload = a.Note
	case UpdateNote:
		payload = a.Patch
	case DeleteNote:
		payload = idPayload{ID: a.ID}
	case AddConnector:
		payload = a.Connector
	case UpdateConnector:
		payload = a.Patch
	case DeleteConnector:
		payload = idPayload{ID: a.ID}
	case AddGroup:
		payload = a.Group
	case UpdateGroup:
		payload = a.Patch
	case DeleteGroup:
		payload = idPayload{ID: a.ID}
	case BringToFront:
		payload = idPayload{ID: a.ID}
	case Unknown:
		return WireAction{Type: a.Tag, Payload: a.Payload}, nil
	default:
		return WireAction{}, fmt.Errorf("cannot encode action %T", a)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return WireAction{}, fmt.Errorf("encoding %s payload: %w", a.Type(), err)
	}
	return WireAction{Type: string(a.Type()), Payload: b}, nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/brainstorm/internal/board"
)

// Each gesture request replays a full gesture on a fresh widget, so drag
// and resize commit exactly once.

type dragRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type colorRequest struct {
	Color board.Color `json:"color"`
}

type linkRequest struct {
	URL string `json:"url"`
}

type contentRequest struct {
	Content string `json:"content"`
}

func widgetFor(w http.ResponseWriter, r *http.Request, deps Deps) (*board.Widget, bool) {
	id := chi.URLParam(r, "id")
	n, ok := deps.Board.Note(id)
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "note %s not found", id)
		return nil, false
	}
	return board.NewWidget(deps.Board, n), true
}

func writeNote(w http.ResponseWriter, deps Deps, id string) {
	n, ok := deps.Board.Note(id)
	if !ok {
		// Deleted concurrently; the gesture was absorbed as a no-op.
		httpError(w, http.StatusNotFound, "not_found", "note %s not found", id)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func handleDrag(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dragRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		wg, ok := widgetFor(w, r, deps)
		if !ok {
			return
		}
		err := errors.Join(
			wg.BeginDrag(),
			wg.DragTo(board.Position{X: req.X, Y: req.Y}),
			wg.EndDrag(),
		)
		if err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		writeNote(w, deps, wg.ID())
	}
}

func handleResize(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resizeRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		wg, ok := widgetFor(w, r, deps)
		if !ok {
			return
		}
		if err := wg.BeginResize(); err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		if _, err := wg.ResizeTo(board.Size{Width: req.Width, Height: req.Height}); err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		if err := wg.EndResize(); err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		writeNote(w, deps, wg.ID())
	}
}

func handleColor(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req colorRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		wg, ok := widgetFor(w, r, deps)
		if !ok {
			return
		}
		if err := wg.SetColor(req.Color); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v: %q", err, req.Color)
			return
		}
		writeNote(w, deps, wg.ID())
	}
}

// handleLink treats a blank URL as a no-op and returns the note unchanged.
func handleLink(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		wg, ok := widgetFor(w, r, deps)
		if !ok {
			return
		}
		if err := wg.ToggleLinkInput(); err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		wg.SetLinkDraft(req.URL)
		wg.CommitLink()
		writeNote(w, deps, wg.ID())
	}
}

func handleContent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contentRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		wg, ok := widgetFor(w, r, deps)
		if !ok {
			return
		}
		if err := wg.EditContent(req.Content); err != nil {
			httpError(w, http.StatusConflict, "gesture_error", "%v", err)
			return
		}
		writeNote(w, deps, wg.ID())
	}
}

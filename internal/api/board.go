package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/brainstorm/internal/assist"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/credential"
	"github.com/kalambet/brainstorm/internal/docimport"
	"github.com/kalambet/brainstorm/internal/storage"
)

// InteractionStore is the browse side of the AI interaction log.
type InteractionStore interface {
	ListInteractions(limit, offset int) ([]storage.Interaction, error)
	GetInteraction(id string) (storage.Interaction, error)
	DeleteInteraction(id string) error
}

type Deps struct {
	Board       *board.Store
	Assist      *assist.Facade
	Credentials credential.Store
	History     InteractionStore
	Token       string
}

// BoardView is the GET /board response: raw entities plus the geometry a
// client needs to draw them.
type BoardView struct {
	Notes      []board.Note       `json:"notes"`
	Connectors []board.Connector  `json:"connectors"`
	Groups     []board.Group      `json:"groups"`
	Segments   []board.Segment    `json:"segments"`
	Frames     []board.GroupFrame `json:"frames"`
	Loading    string             `json:"loading,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NewBoardView builds the view of the current board and assist state.
func NewBoardView(snap board.Snapshot, f *assist.Facade) BoardView {
	v := BoardView{
		Notes:      board.PaintOrder(snap.Notes),
		Connectors: snap.Connectors,
		Groups:     snap.Groups,
		Segments:   board.RenderConnectors(snap),
		Frames:     board.RenderGroups(snap),
	}
	if f != nil {
		v.Loading, _ = f.Loading()
		if err := f.LastError(); err != nil {
			v.Error = err.Error()
		}
	}
	return v
}

// NewHandler returns the board HTTP API. Everything except /health requires
// the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/board", handleGetBoard(deps))
		r.Post("/board/actions", handleDispatch(deps))
		r.Post("/board/reset", handleReset(deps))
		r.Post("/board/ideas", handleAddIdeas(deps))

		r.Route("/board/notes/{id}", func(r chi.Router) {
			r.Post("/improve", handleAssist(deps, deps.Assist.Improve))
			r.Post("/expand", handleAssist(deps, deps.Assist.Expand))
			r.Post("/image", handleAssist(deps, deps.Assist.GenerateImage))

			r.Post("/drag", handleDrag(deps))
			r.Post("/resize", handleResize(deps))
			r.Post("/color", handleColor(deps))
			r.Post("/link", handleLink(deps))
			r.Post("/content", handleContent(deps))
		})

		r.Get("/interactions", handleListInteractions(deps))
		r.Get("/interactions/{id}", handleGetInteraction(deps))
		r.Delete("/interactions/{id}", handleDeleteInteraction(deps))
		r.Get("/settings/api-key", handleGetAPIKey(deps))
		r.Put("/settings/api-key", handlePutAPIKey(deps))
		r.Delete("/settings/api-key", handleDeleteAPIKey(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleGetBoard(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, NewBoardView(deps.Board.Snapshot(), deps.Assist))
	}
}

func handleDispatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var wire board.WireAction
		if !decodeBody(w, r, maxRequestBodySize, &wire) {
			return
		}
		if wire.Type == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "type is required")
			return
		}

		a, err := wire.Action()
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		a = withIDs(a)
		deps.Board.Dispatch(a)

		out, err := board.EncodeAction(a)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// withIDs assigns fresh ids to add actions that arrive without one.
func withIDs(a board.Action) board.Action {
	switch a := a.(type) {
	case board.AddNote:
		if a.Note.ID == "" {
			a.Note.ID = board.NewID()
		}
		return a
	case board.AddConnector:
		if a.Connector.ID == "" {
			a.Connector.ID = board.NewID()
		}
		return a
	case board.AddGroup:
		if a.Group.ID == "" {
			a.Group.ID = board.NewID()
		}
		return a
	}
	return a
}

func handleReset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Board.Reset()
		deps.Assist.ClearError()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

// IdeaRequest is the body of POST /board/ideas. Type is "text" (default) or
// "pdf" with base64 content; PDFs become one note per paragraph.
type IdeaRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func handleAddIdeas(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IdeaRequest
		if !decodeBody(w, r, maxImportBodySize, &req) {
			return
		}

		text, err := docimport.Extract(req.Type, req.Content)
		if errors.Is(err, docimport.ErrUnsupportedType) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
			return
		}

		ideas := []string{text}
		if strings.EqualFold(req.Type, docimport.TypePDF) {
			ideas = assist.SplitParagraphs(text)
		}

		var added []board.Note
		for _, idea := range ideas {
			n, err := deps.Assist.AddIdea(idea)
			if errors.Is(err, assist.ErrEmptyContent) {
				continue
			}
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
				return
			}
			added = append(added, n)
		}
		if len(added) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "idea text is empty")
			return
		}
		writeJSON(w, http.StatusCreated, added)
	}
}

func handleAssist(deps Deps, run func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := run(r.Context(), id); err != nil {
			assistError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, NewBoardView(deps.Board.Snapshot(), deps.Assist))
	}
}

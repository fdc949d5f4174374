package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/brainstorm/internal/credential"
	"github.com/kalambet/brainstorm/internal/storage"
)

func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		interactions, err := deps.History.ListInteractions(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}

		if interactions == nil {
			interactions = []storage.Interaction{}
		}
		writeJSON(w, http.StatusOK, interactions)
	}
}

func handleGetInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		interaction, err := deps.History.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get interaction: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, interaction)
	}
}

func handleDeleteInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.History.DeleteInteraction(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete interaction: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// APIKeyStatus is the GET /settings/api-key response. The key itself is
// never returned.
type APIKeyStatus struct {
	Set    bool   `json:"set"`
	Masked string `json:"masked,omitempty"`
}

func handleGetAPIKey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := deps.Credentials.Get(r.Context())
		if errors.Is(err, credential.ErrNotSet) {
			writeJSON(w, http.StatusOK, APIKeyStatus{})
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read api key: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, APIKeyStatus{Set: true, Masked: credential.Mask(key)})
	}
}

type apiKeyRequest struct {
	Key string `json:"key"`
}

func handlePutAPIKey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiKeyRequest
		if !decodeBody(w, r, maxRequestBodySize, &req) {
			return
		}
		if strings.TrimSpace(req.Key) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "key is required")
			return
		}
		if err := deps.Credentials.Set(r.Context(), req.Key); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store api key: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// handleDeleteAPIKey forgets the stored key. A key supplied through the
// environment or config still applies afterwards, which the response reports.
func handleDeleteAPIKey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Credentials.Clear(r.Context())
		if errors.Is(err, credential.ErrNotSet) {
			httpError(w, http.StatusNotFound, "not_found", "no stored api key")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to clear api key: %v", err)
			return
		}
		status := APIKeyStatus{}
		if key, err := deps.Credentials.Get(r.Context()); err == nil {
			status = APIKeyStatus{Set: true, Masked: credential.Mask(key)}
		}
		writeJSON(w, http.StatusOK, status)
	}
}

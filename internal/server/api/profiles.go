package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/logger"
)

// handleProfileByUUID returns the player profile of a known user id.
func (a *API) handleProfileByUUID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed profile id")
		return
	}

	entry, err := a.provider.EntryByUUID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrEntryNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		logger.Error("entry lookup failed", logger.KeyUUID, id, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "InternalServerError", "backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, a.playerProfile(entry))
}

// nameRef is the id/name pair returned by the bulk name lookup.
type nameRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleProfilesByNames resolves a batch of usernames to ids. Unknown names
// are omitted from the result.
func (a *API) handleProfilesByNames(w http.ResponseWriter, r *http.Request) {
	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed name list")
		return
	}

	refs := make([]nameRef, 0, len(names))
	for _, name := range names {
		entry, err := a.provider.EntryByUsername(r.Context(), name)
		if err != nil {
			if errors.Is(err, auth.ErrEntryNotFound) {
				continue
			}
			logger.Error("entry lookup failed", logger.Username(name), logger.Err(err))
			writeError(w, http.StatusInternalServerError, "InternalServerError", "backend unavailable")
			return
		}
		refs = append(refs, nameRef{ID: simpleUUID(entry.UUID), Name: entry.Username})
	}
	writeJSON(w, http.StatusOK, refs)
}

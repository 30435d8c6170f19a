package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleListMembers lists an album's members. Restricted to the owner; the
// member roster includes emails of minors for yearbook albums.
func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	album, err := a.store.GetAlbum(ctx, albumID)
	switch {
	case errors.Is(err, ErrAlbumNotFound):
		respondError(w, http.StatusNotFound, ErrAlbumNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if album.OwnerID != caller {
		respondError(w, http.StatusForbidden, errors.New("only the album owner can list members"))
		return
	}

	members, err := a.store.ListMembers(ctx, albumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if members == nil {
		members = []Member{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"members": members})
}

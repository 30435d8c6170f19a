package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleJoinStats reports the capacity snapshot for an album: the configured
// limit, the per-status request counts, and the derived available slots.
// An album with no requests still answers with zero counts rather than 404.
func (a *API) handleJoinStats(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if _, err := a.store.GetAlbum(ctx, albumID); err != nil {
		if errors.Is(err, ErrAlbumNotFound) {
			respondError(w, http.StatusNotFound, ErrAlbumNotFound)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	stats, err := a.store.GetJoinStats(ctx, albumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

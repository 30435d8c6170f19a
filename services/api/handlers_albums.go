package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func albumCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("album:%s", id)
}

// handleCreateAlbum creates an album owned by the caller. New albums start
// pending until an operator approves them.
func (a *API) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string         `json:"name"`
		Type      string         `json:"type"`
		PackageID *uuid.UUID     `json:"package_id"`
		LeadID    *uuid.UUID     `json:"lead_id"`
		Theme     map[string]any `json:"theme"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	switch req.Type {
	case AlbumTypeYearbook, AlbumTypePublic:
	default:
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown album type %q", req.Type))
		return
	}
	if req.Theme == nil {
		req.Theme = map[string]any{}
	}

	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	album, err := a.store.CreateAlbum(ctx, Album{
		Name:      req.Name,
		Type:      req.Type,
		Status:    AlbumStatusPending,
		OwnerID:   caller,
		LeadID:    req.LeadID,
		PackageID: req.PackageID,
		Theme:     req.Theme,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"album": album})
}

// handleGetAlbum fetches a single album, serving repeat reads from the
// cache when one is configured.
func (a *API) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	// Cache misses and cache errors both fall through to the store; a flaky
	// cache is never worth failing the read.
	var cached Album
	if err := a.cache.Get(ctx, albumCacheKey(albumID), &cached); err == nil {
		respondJSON(w, http.StatusOK, map[string]any{"album": cached})
		return
	}

	album, err := a.store.GetAlbum(ctx, albumID)
	switch {
	case errors.Is(err, ErrAlbumNotFound):
		respondError(w, http.StatusNotFound, ErrAlbumNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	_ = a.cache.Set(ctx, albumCacheKey(albumID), album)
	respondJSON(w, http.StatusOK, map[string]any{"album": album})
}

func (a *API) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	albums, err := a.store.ListAlbumsByOwner(ctx, caller)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if albums == nil {
		albums = []Album{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"albums": albums})
}

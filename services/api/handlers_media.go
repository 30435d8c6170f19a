package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleRegisterMedia records a media asset for an album and hands back a
// presigned PUT URL so the client uploads the bytes directly to object
// storage.
func (a *API) handleRegisterMedia(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid album id"))
		return
	}

	var req struct {
		Kind   string         `json:"kind"`
		SHA256 string         `json:"sha256"`
		Meta   map[string]any `json:"meta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	req.SHA256 = strings.ToLower(strings.TrimSpace(req.SHA256))
	if req.Kind == "" || req.SHA256 == "" {
		respondError(w, http.StatusBadRequest, errors.New("kind and sha256 are required"))
		return
	}
	if req.Meta == nil {
		req.Meta = map[string]any{}
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
		respondError(w, http.StatusForbidden, errors.New("only the album owner can upload media"))
		return
	}

	if a.media == nil || a.config.MediaBucket == "" {
		respondError(w, http.StatusServiceUnavailable, errors.New("media storage is not configured"))
		return
	}

	key := fmt.Sprintf("albums/%s/%s/%s", album.ID, req.Kind, req.SHA256)
	asset, err := a.store.CreateMediaAsset(ctx, MediaAsset{
		AlbumID: album.ID,
		Kind:    req.Kind,
		SHA256:  req.SHA256,
		URL:     fmt.Sprintf("s3://%s/%s", a.config.MediaBucket, key),
		Meta:    req.Meta,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	uploadURL, err := a.media.PresignPut(ctx, a.config.MediaBucket, key, presignURLExpiry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"asset":      asset,
		"upload_url": uploadURL,
	})
}

// handleMediaDownload presigns a short-lived GET URL for an asset.
func (a *API) handleMediaDownload(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid asset id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	asset, err := a.store.GetMediaAsset(ctx, assetID)
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, ErrNotFound)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if a.media == nil || a.config.MediaBucket == "" {
		respondError(w, http.StatusServiceUnavailable, errors.New("media storage is not configured"))
		return
	}

	key := strings.TrimPrefix(asset.URL, fmt.Sprintf("s3://%s/", a.config.MediaBucket))
	downloadURL, err := a.media.PresignGet(ctx, a.config.MediaBucket, key, presignURLExpiry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"asset":        asset,
		"download_url": downloadURL,
	})
}

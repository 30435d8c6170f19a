package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestMediaHandlersWithoutStorage(t *testing.T) {
	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	owner := uuid.New()
	album := Album{ID: uuid.New(), Name: "Media", Type: AlbumTypePublic, Status: AlbumStatusApproved, OwnerID: owner}
	store.PutAlbum(album)
	token := seedSession(store, owner)

	t.Run("registration reports storage unavailable", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums/"+album.ID.String()+"/media", token,
			map[string]any{"kind": "photo", "sha256": "ab12"})
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("unknown asset download", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/v1/media/"+uuid.NewString()+"/download", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("non-owner cannot register", func(t *testing.T) {
		stranger := seedSession(store, uuid.New())
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums/"+album.ID.String()+"/media", stranger,
			map[string]any{"kind": "photo", "sha256": "ab12"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}

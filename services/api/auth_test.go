package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

// brokenSessionStore simulates a session backend outage.
type brokenSessionStore struct {
	*memoryStore
}

func (s brokenSessionStore) GetSessionByToken(context.Context, string) (Session, error) {
	return Session{}, errors.New("connection refused")
}

func TestRequireSession(t *testing.T) {
	store := NewMemoryStore()
	album := Album{ID: uuid.New(), Name: "Auth", Type: AlbumTypeYearbook, Status: AlbumStatusApproved, OwnerID: uuid.New()}
	store.PutAlbum(album)
	class := Class{ID: uuid.New(), AlbumID: album.ID, Name: "1A"}
	store.PutClass(class)

	path := "/v1/albums/" + album.ID.String() + "/classes/" + class.ID.String() + "/my-request"

	t.Run("missing bearer", func(t *testing.T) {
		handler := newTestHandler(t, store)
		rec := doJSON(t, handler, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		handler := newTestHandler(t, store)
		rec := doJSON(t, handler, http.MethodGet, path, "not-a-session", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("store outage is not an auth failure", func(t *testing.T) {
		handler := newTestHandler(t, brokenSessionStore{memoryStore: store})
		rec := doJSON(t, handler, http.MethodGet, path, seedSession(store, uuid.New()), nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500 (body %s)", rec.Code, rec.Body.String())
		}
	})
}

package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCreateAndGetAlbum(t *testing.T) {
	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	ownerID := uuid.New()
	token := seedSession(store, ownerID)

	rec := doJSON(t, handler, http.MethodPost, "/v1/albums", token, map[string]any{
		"name": "Class of 2028",
		"type": AlbumTypeYearbook,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Album Album `json:"album"`
	}
	decodeBody(t, rec, &created)

	if created.Album.Status != AlbumStatusPending {
		t.Errorf("status = %q, want pending", created.Album.Status)
	}
	if created.Album.OwnerID != ownerID {
		t.Errorf("owner_id = %s, want the caller %s", created.Album.OwnerID, ownerID)
	}

	t.Run("get round-trips", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/v1/albums/"+created.Album.ID.String(), token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get: status = %d", rec.Code)
		}
		var got struct {
			Album Album `json:"album"`
		}
		decodeBody(t, rec, &got)
		if got.Album.ID != created.Album.ID {
			t.Errorf("id = %s, want %s", got.Album.ID, created.Album.ID)
		}
	})

	t.Run("list shows only own albums", func(t *testing.T) {
		otherToken := seedSession(store, uuid.New())
		rec := doJSON(t, handler, http.MethodGet, "/v1/albums", otherToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list: status = %d", rec.Code)
		}
		var got struct {
			Albums []Album `json:"albums"`
		}
		decodeBody(t, rec, &got)
		if len(got.Albums) != 0 {
			t.Errorf("albums = %+v, want none for a different owner", got.Albums)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums", token, map[string]any{
			"name": "Oops",
			"type": "scrapbook",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestLeadsAndPackages(t *testing.T) {
	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	store.PutPackage(Package{ID: uuid.New(), Name: "Starter", PriceCents: 0})
	store.PutPackage(Package{ID: uuid.New(), Name: "School", PriceCents: 19900})

	t.Run("packages are anonymous and price-ordered", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/v1/packages", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got struct {
			Packages []Package `json:"packages"`
		}
		decodeBody(t, rec, &got)
		if len(got.Packages) != 2 {
			t.Fatalf("packages = %d, want 2", len(got.Packages))
		}
		if got.Packages[0].PriceCents > got.Packages[1].PriceCents {
			t.Error("packages not ordered cheapest first")
		}
	})

	t.Run("lead capture", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/leads", "", map[string]any{
			"email":  "Parent@Example.com",
			"source": "showroom",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
		}
		var got struct {
			Lead Lead `json:"lead"`
		}
		decodeBody(t, rec, &got)
		if got.Lead.Email != "parent@example.com" {
			t.Errorf("email = %q, want lowercased", got.Lead.Email)
		}
	})

	t.Run("lead requires an email", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/leads", "", map[string]any{"source": "showroom"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

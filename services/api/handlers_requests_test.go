package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

type requestFixture struct {
	store   *memoryStore
	handler http.Handler
	album   Album
	class   Class
	owner   uuid.UUID
}

func newRequestFixture(t *testing.T) requestFixture {
	t.Helper()

	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	owner := uuid.New()
	album := Album{
		ID:      uuid.New(),
		Name:    "Class of 2027",
		Type:    AlbumTypeYearbook,
		Status:  AlbumStatusApproved,
		OwnerID: owner,
	}
	store.PutAlbum(album)

	class := Class{ID: uuid.New(), AlbumID: album.ID, Name: "3B"}
	store.PutClass(class)

	return requestFixture{store: store, handler: handler, album: album, class: class, owner: owner}
}

func (f requestFixture) submit(t *testing.T, bearer, displayName string) *AccessRequest {
	t.Helper()

	rec := doJSON(t, f.handler, http.MethodPost, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/requests", bearer,
		map[string]any{"display_name": displayName, "email": "kid@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var got struct {
		Request *AccessRequest `json:"request"`
	}
	decodeBody(t, rec, &got)
	if got.Request == nil {
		t.Fatal("submit: request is null")
	}
	return got.Request
}

func TestSubmitRequest(t *testing.T) {
	f := newRequestFixture(t)
	userToken := seedSession(f.store, uuid.New())

	created := f.submit(t, userToken, "Alex")
	if created.Status != RequestStatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.AlbumID != f.album.ID {
		t.Errorf("album_id = %s, want %s", created.AlbumID, f.album.ID)
	}

	t.Run("pending request blocks resubmission", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/requests", userToken,
			map[string]any{"display_name": "Alex again", "email": "kid@example.com"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/albums/"+f.album.ID.String()+"/classes/"+uuid.NewString()+"/requests", userToken,
			map[string]any{"display_name": "Alex", "email": "kid@example.com"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("missing display name", func(t *testing.T) {
		token := seedSession(f.store, uuid.New())
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/requests", token,
			map[string]any{"display_name": "  ", "email": "kid@example.com"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestResubmitAfterRejection(t *testing.T) {
	f := newRequestFixture(t)
	ownerToken := seedSession(f.store, f.owner)
	userToken := seedSession(f.store, uuid.New())

	created := f.submit(t, userToken, "Sam")

	rec := doJSON(t, f.handler, http.MethodPost, "/v1/requests/"+created.ID.String()+"/reject", ownerToken, map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	resubmitted := f.submit(t, userToken, "Sam resubmitted")
	if resubmitted.ID != created.ID {
		t.Errorf("resubmission created a second row: %s vs %s", resubmitted.ID, created.ID)
	}
	if resubmitted.Status != RequestStatusPending {
		t.Errorf("status = %q, want pending", resubmitted.Status)
	}
	if resubmitted.DisplayName != "Sam resubmitted" {
		t.Errorf("display_name = %q, want the resubmitted value", resubmitted.DisplayName)
	}
	if resubmitted.RespondedAt != nil {
		t.Error("responded_at should be cleared on resubmission")
	}
}

func TestMyRequest(t *testing.T) {
	f := newRequestFixture(t)
	aliceToken := seedSession(f.store, uuid.New())
	bobToken := seedSession(f.store, uuid.New())

	t.Run("no request yet answers null", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodGet, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/my-request", aliceToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got struct {
			Request *AccessRequest `json:"request"`
		}
		decodeBody(t, rec, &got)
		if got.Request != nil {
			t.Fatalf("request = %+v, want null", got.Request)
		}
	})

	submitted := f.submit(t, aliceToken, "Alice")

	t.Run("own request is returned", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodGet, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/my-request", aliceToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got struct {
			Request *AccessRequest `json:"request"`
		}
		decodeBody(t, rec, &got)
		if got.Request == nil {
			t.Fatal("request is null after submission")
		}
		if got.Request.ID != submitted.ID {
			t.Errorf("request id = %s, want %s", got.Request.ID, submitted.ID)
		}
	})

	t.Run("other callers never see it", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodGet, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/my-request", bobToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got struct {
			Request *AccessRequest `json:"request"`
		}
		decodeBody(t, rec, &got)
		if got.Request != nil {
			t.Fatalf("request = %+v, want null for a different caller", got.Request)
		}
	})
}

func TestRespondToRequest(t *testing.T) {
	f := newRequestFixture(t)
	ownerToken := seedSession(f.store, f.owner)
	strangerToken := seedSession(f.store, uuid.New())
	userID := uuid.New()
	userToken := seedSession(f.store, userID)

	created := f.submit(t, userToken, "Robin")

	t.Run("stranger cannot approve", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/requests/"+created.ID.String()+"/approve", strangerToken, map[string]any{})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("owner approval records membership", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/requests/"+created.ID.String()+"/approve", ownerToken, map[string]any{})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
		}

		var got struct {
			Request *AccessRequest `json:"request"`
		}
		decodeBody(t, rec, &got)
		if got.Request.Status != RequestStatusApproved {
			t.Errorf("status = %q, want approved", got.Request.Status)
		}
		if got.Request.RespondedAt == nil {
			t.Error("responded_at not set")
		}

		members := doJSON(t, f.handler, http.MethodGet, "/v1/albums/"+f.album.ID.String()+"/members", ownerToken, nil)
		if members.Code != http.StatusOK {
			t.Fatalf("list members: status = %d", members.Code)
		}
		var roster struct {
			Members []Member `json:"members"`
		}
		decodeBody(t, members, &roster)
		found := false
		for _, m := range roster.Members {
			if m.UserID == userID {
				found = true
			}
		}
		if !found {
			t.Errorf("approved user %s missing from member roster %+v", userID, roster.Members)
		}
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/requests/"+created.ID.String()+"/reject", ownerToken, map[string]any{})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		rec := doJSON(t, f.handler, http.MethodPost, "/v1/requests/"+uuid.NewString()+"/approve", ownerToken, map[string]any{})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

// staleReadRequestStore reports no existing request even when one is already
// stored, reproducing the window between the existence check and the insert
// when two submissions land at once.
type staleReadRequestStore struct {
	*memoryStore
}

func (s staleReadRequestStore) GetRequestByClassAndUser(context.Context, uuid.UUID, uuid.UUID) (AccessRequest, error) {
	return AccessRequest{}, ErrRequestNotFound
}

func TestSubmitRequestConcurrentDuplicate(t *testing.T) {
	f := newRequestFixture(t)
	userID := uuid.New()
	userToken := seedSession(f.store, userID)

	f.submit(t, userToken, "Kim")

	racing := newTestHandler(t, staleReadRequestStore{memoryStore: f.store})
	rec := doJSON(t, racing, http.MethodPost, "/v1/albums/"+f.album.ID.String()+"/classes/"+f.class.ID.String()+"/requests", userToken,
		map[string]any{"display_name": "Kim again", "email": "kid@example.com"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

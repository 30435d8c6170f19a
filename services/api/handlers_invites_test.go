package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestResolveInvite(t *testing.T) {
	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	album := Album{
		ID:      uuid.New(),
		Name:    "Class of 2026",
		Type:    AlbumTypeYearbook,
		Status:  AlbumStatusApproved,
		OwnerID: uuid.New(),
	}
	store.PutAlbum(album)

	valid := InviteToken{
		ID:        uuid.New(),
		AlbumID:   album.ID,
		Token:     "abc123",
		Role:      "member",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	store.PutInvite(valid)

	store.PutInvite(InviteToken{
		ID:        uuid.New(),
		AlbumID:   album.ID,
		Token:     "stale",
		Role:      "member",
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	store.PutInvite(InviteToken{
		ID:        uuid.New(),
		AlbumID:   uuid.New(), // album does not exist
		Token:     "dangling",
		Role:      "member",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "valid token resolves", token: "abc123", wantStatus: http.StatusOK},
		{name: "unknown token", token: "nope", wantStatus: http.StatusNotFound},
		{name: "expired token is gone not missing", token: "stale", wantStatus: http.StatusGone},
		{name: "token for deleted album", token: "dangling", wantStatus: http.StatusNotFound},
		{name: "blank token", token: "%20", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodGet, "/v1/invite/"+tc.token, "", nil)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}

	t.Run("resolution payload", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/v1/invite/abc123", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got AlbumInvite
		decodeBody(t, rec, &got)

		if got.AlbumID != album.ID {
			t.Errorf("albumId = %s, want %s", got.AlbumID, album.ID)
		}
		if got.Name != album.Name {
			t.Errorf("name = %q, want %q", got.Name, album.Name)
		}
		if got.Type != AlbumTypeYearbook {
			t.Errorf("type = %q, want %q", got.Type, AlbumTypeYearbook)
		}
		if got.Role != "member" {
			t.Errorf("role = %q, want member", got.Role)
		}
		if _, err := time.Parse(time.RFC3339, got.ExpiresAt); err != nil {
			t.Errorf("expiresAt %q is not RFC3339: %v", got.ExpiresAt, err)
		}
	})

	t.Run("resolution is idempotent", func(t *testing.T) {
		first := doJSON(t, handler, http.MethodGet, "/v1/invite/abc123", "", nil)
		second := doJSON(t, handler, http.MethodGet, "/v1/invite/abc123", "", nil)
		if first.Code != http.StatusOK || second.Code != http.StatusOK {
			t.Fatalf("statuses = %d, %d, want 200 both times", first.Code, second.Code)
		}
		if first.Body.String() != second.Body.String() {
			t.Errorf("repeat resolution changed the response:\n%s\n%s", first.Body.String(), second.Body.String())
		}
	})

	t.Run("token flips to gone once expired", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/v1/invite/abc123", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status before expiry = %d, want 200", rec.Code)
		}

		expired := valid
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		store.PutInvite(expired)

		rec = doJSON(t, handler, http.MethodGet, "/v1/invite/abc123", "", nil)
		if rec.Code != http.StatusGone {
			t.Fatalf("status after expiry = %d, want 410", rec.Code)
		}

		// Restore for any later subtests.
		store.PutInvite(valid)
	})
}

func TestCreateInvite(t *testing.T) {
	store := NewMemoryStore()
	handler := newTestHandler(t, store)

	owner := uuid.New()
	album := Album{
		ID:      uuid.New(),
		Name:    "Graduation",
		Type:    AlbumTypePublic,
		Status:  AlbumStatusApproved,
		OwnerID: owner,
	}
	store.PutAlbum(album)

	ownerToken := seedSession(store, owner)
	strangerToken := seedSession(store, uuid.New())

	t.Run("owner can invite", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums/"+album.ID.String()+"/invites", ownerToken,
			map[string]any{"role": "viewer"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}

		var got struct {
			Invite InviteToken `json:"invite"`
			Email  string      `json:"email"`
		}
		decodeBody(t, rec, &got)

		if got.Invite.Token == "" {
			t.Error("invite token is empty")
		}
		if got.Invite.Role != "viewer" {
			t.Errorf("role = %q, want viewer", got.Invite.Role)
		}
		if got.Email == "" {
			t.Error("rendered email is empty")
		}

		// The minted token must round-trip through resolution.
		resolved := doJSON(t, handler, http.MethodGet, "/v1/invite/"+got.Invite.Token, "", nil)
		if resolved.Code != http.StatusOK {
			t.Fatalf("resolve minted token: status = %d, want 200", resolved.Code)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums/"+album.ID.String()+"/invites", strangerToken,
			map[string]any{"role": "member"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/v1/albums/"+album.ID.String()+"/invites", "",
			map[string]any{"role": "member"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

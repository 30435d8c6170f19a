package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func seedRequests(store *memoryStore, albumID uuid.UUID, approved, pending, rejected int) {
	add := func(status string, n int) {
		for i := 0; i < n; i++ {
			id := uuid.New()
			store.requests[id] = AccessRequest{
				ID:      id,
				AlbumID: albumID,
				ClassID: uuid.New(),
				UserID:  uuid.New(),
				Status:  status,
			}
		}
	}
	add(RequestStatusApproved, approved)
	add(RequestStatusPending, pending)
	add(RequestStatusRejected, rejected)
}

func TestJoinStats(t *testing.T) {
	limit10 := int64(10)
	limit5 := int64(5)
	limit3 := int64(3)

	tests := []struct {
		name                        string
		limit                       *int64
		approved, pending, rejected int
		wantAvailable               int64
	}{
		{
			name:          "slots remaining",
			limit:         &limit10,
			approved:      7,
			pending:       2,
			rejected:      1,
			wantAvailable: 3,
		},
		{
			name:          "pending requests do not consume slots",
			limit:         &limit5,
			approved:      5,
			pending:       2,
			rejected:      1,
			wantAvailable: 0,
		},
		{
			name:          "no limit reports the unlimited sentinel",
			limit:         nil,
			approved:      4,
			wantAvailable: UnlimitedSlots,
		},
		{
			name:          "empty album",
			limit:         nil,
			wantAvailable: UnlimitedSlots,
		},
		{
			name:          "over-admission goes negative",
			limit:         &limit3,
			approved:      5,
			wantAvailable: -2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			handler := newTestHandler(t, store)

			owner := uuid.New()
			album := Album{ID: uuid.New(), Name: "Stats", Type: AlbumTypeYearbook, Status: AlbumStatusApproved, OwnerID: owner}
			store.PutAlbum(album)
			store.SetJoinLimit(album.ID, tc.limit)
			seedRequests(store, album.ID, tc.approved, tc.pending, tc.rejected)

			token := seedSession(store, owner)
			rec := doJSON(t, handler, http.MethodGet, "/v1/albums/"+album.ID.String()+"/join-stats", token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
			}

			var got JoinStats
			decodeBody(t, rec, &got)

			if (got.LimitCount == nil) != (tc.limit == nil) {
				t.Errorf("limit_count = %v, want %v", got.LimitCount, tc.limit)
			}
			if got.LimitCount != nil && tc.limit != nil && *got.LimitCount != *tc.limit {
				t.Errorf("limit_count = %d, want %d", *got.LimitCount, *tc.limit)
			}
			if got.ApprovedCount != int64(tc.approved) {
				t.Errorf("approved_count = %d, want %d", got.ApprovedCount, tc.approved)
			}
			if got.PendingCount != int64(tc.pending) {
				t.Errorf("pending_count = %d, want %d", got.PendingCount, tc.pending)
			}
			if got.RejectedCount != int64(tc.rejected) {
				t.Errorf("rejected_count = %d, want %d", got.RejectedCount, tc.rejected)
			}
			if got.AvailableSlots != tc.wantAvailable {
				t.Errorf("available_slots = %d, want %d", got.AvailableSlots, tc.wantAvailable)
			}
		})
	}

	t.Run("unknown album", func(t *testing.T) {
		store := NewMemoryStore()
		handler := newTestHandler(t, store)
		token := seedSession(store, uuid.New())

		rec := doJSON(t, handler, http.MethodGet, "/v1/albums/"+uuid.NewString()+"/join-stats", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestComputeJoinStats(t *testing.T) {
	limit := int64(8)

	got := computeJoinStats(&limit, 3, 1, 2)
	if got.AvailableSlots != 5 {
		t.Errorf("available_slots = %d, want 5", got.AvailableSlots)
	}

	got = computeJoinStats(nil, 100, 0, 0)
	if got.AvailableSlots != UnlimitedSlots {
		t.Errorf("available_slots = %d, want the unlimited sentinel", got.AvailableSlots)
	}

	got = computeJoinStats(&limit, 12, 0, 0)
	if got.AvailableSlots != -4 {
		t.Errorf("available_slots = %d, want -4 (never clamped)", got.AvailableSlots)
	}
}

package api

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Album type and lifecycle status values. The two are independent axes: a
// declined album keeps its rows but is no longer joinable.
const (
	AlbumTypeYearbook = "yearbook"
	AlbumTypePublic   = "public"

	AlbumStatusPending  = "pending"
	AlbumStatusApproved = "approved"
	AlbumStatusDeclined = "declined"
)

// Access request disposition states.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// UnlimitedSlots is reported as available_slots when an album has no
// configured member limit.
const UnlimitedSlots = int64(math.MaxInt32)

// Album models a yearbook or public album owned by a user.
type Album struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	LeadID    *uuid.UUID     `json:"lead_id,omitempty"`
	PackageID *uuid.UUID     `json:"package_id,omitempty"`
	Theme     map[string]any `json:"theme"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Class is a named group within an album that users request to join.
type Class struct {
	ID        uuid.UUID `json:"id"`
	AlbumID   uuid.UUID `json:"album_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteToken is a time-limited opaque credential resolving to one album.
type InviteToken struct {
	ID        uuid.UUID `json:"id"`
	AlbumID   uuid.UUID `json:"album_id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AlbumInvite is the anonymous resolution view of a valid invite token.
type AlbumInvite struct {
	AlbumID uuid.UUID `json:"albumId"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Role    string    `json:"role"`
	// ExpiresAt is ISO-8601 so pre-auth clients need no date parsing quirks.
	ExpiresAt string `json:"expiresAt"`
}

// AccessRequest is a user's submitted intent to join a class within an album.
type AccessRequest struct {
	ID          uuid.UUID  `json:"id"`
	AlbumID     uuid.UUID  `json:"album_id"`
	ClassID     uuid.UUID  `json:"class_id"`
	UserID      uuid.UUID  `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// JoinStats is the derived capacity snapshot for an album. AvailableSlots is
// limit_count - approved_count when a limit is configured; it is never
// clamped, so a negative value surfaces over-admission to callers.
type JoinStats struct {
	LimitCount     *int64 `json:"limit_count"`
	ApprovedCount  int64  `json:"approved_count"`
	PendingCount   int64  `json:"pending_count"`
	RejectedCount  int64  `json:"rejected_count"`
	AvailableSlots int64  `json:"available_slots"`
}

// Member ties a user to an album with a role.
type Member struct {
	AlbumID   uuid.UUID `json:"album_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaAsset tracks a media object uploaded for an album.
type MediaAsset struct {
	ID        uuid.UUID      `json:"id"`
	AlbumID   uuid.UUID      `json:"album_id"`
	Kind      string         `json:"kind"`
	SHA256    string         `json:"sha256"`
	URL       string         `json:"url"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}

// Package is a purchasable pricing package attached to albums.
type Package struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// Lead captures a showroom visitor before any purchase.
type Lead struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is an upstream-minted bearer credential validated by this service.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Valid reports whether the session can still authenticate a caller at now.
func (s Session) Valid(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}

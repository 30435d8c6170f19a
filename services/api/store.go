package api

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the persistence operations required by the API layer.
// Implementations return the sentinel errors from errors.go for missing
// rows so handlers can map them with errors.Is.
type Store interface {
	// Sessions
	GetSessionByToken(ctx context.Context, token string) (Session, error)

	// Albums
	CreateAlbum(ctx context.Context, album Album) (Album, error)
	GetAlbum(ctx context.Context, id uuid.UUID) (Album, error)
	ListAlbumsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Album, error)

	// Classes
	GetClass(ctx context.Context, id uuid.UUID) (Class, error)

	// Invite tokens
	CreateInvite(ctx context.Context, invite InviteToken) (InviteToken, error)
	GetInviteByToken(ctx context.Context, token string) (InviteToken, error)

	// Access requests
	CreateRequest(ctx context.Context, req AccessRequest) (AccessRequest, error)
	UpdateRequest(ctx context.Context, req AccessRequest) (AccessRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (AccessRequest, error)
	GetRequestByClassAndUser(ctx context.Context, classID, userID uuid.UUID) (AccessRequest, error)

	// Membership
	AddMember(ctx context.Context, member Member) error
	ListMembers(ctx context.Context, albumID uuid.UUID) ([]Member, error)

	// Capacity. The returned snapshot must come from a single consistent
	// read: the limit and the three status counts may not be assembled from
	// independent queries that could interleave with concurrent approvals.
	GetJoinStats(ctx context.Context, albumID uuid.UUID) (JoinStats, error)

	// Media
	CreateMediaAsset(ctx context.Context, asset MediaAsset) (MediaAsset, error)
	GetMediaAsset(ctx context.Context, id uuid.UUID) (MediaAsset, error)
	ListMediaAssets(ctx context.Context, albumID uuid.UUID) ([]MediaAsset, error)

	// Funnel
	CreateLead(ctx context.Context, lead Lead) (Lead, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

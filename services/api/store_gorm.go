package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"albumd/pkg/db"
)

// pgStore backs the Store interface with PostgreSQL. Row CRUD goes through
// gorm; the join-stats aggregation runs as one raw statement on the pgx pool
// so the limit and the three status counts come from a single snapshot.
type pgStore struct {
	pool *pgxpool.Pool
	orm  *gorm.DB
}

// NewStore constructs the PostgreSQL-backed Store.
func NewStore(pool *pgxpool.Pool, orm *gorm.DB) (Store, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	return &pgStore{pool: pool, orm: orm}, nil
}

func (s *pgStore) GetSessionByToken(ctx context.Context, token string) (Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model sessionModel
	err := s.orm.WithContext(ctx).Where("token = ?", token).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrSessionInvalid
	}
	if err != nil {
		return Session{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) CreateAlbum(ctx context.Context, album Album) (Album, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	model := albumModel{
		ID:        album.ID,
		Name:      album.Name,
		Type:      album.Type,
		Status:    album.Status,
		OwnerID:   album.OwnerID,
		LeadID:    album.LeadID,
		PackageID: album.PackageID,
		Theme:     toJSONMap(album.Theme),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return Album{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) GetAlbum(ctx context.Context, id uuid.UUID) (Album, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model albumModel
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Album{}, ErrAlbumNotFound
	}
	if err != nil {
		return Album{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) ListAlbumsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Album, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var models []albumModel
	if err := s.orm.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	albums := make([]Album, 0, len(models))
	for _, m := range models {
		albums = append(albums, m.toAPI())
	}
	return albums, nil
}

func (s *pgStore) GetClass(ctx context.Context, id uuid.UUID) (Class, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model classModel
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Class{}, ErrClassNotFound
	}
	if err != nil {
		return Class{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) CreateInvite(ctx context.Context, invite InviteToken) (InviteToken, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	model := inviteTokenModel{
		ID:        invite.ID,
		AlbumID:   invite.AlbumID,
		Token:     invite.Token,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return InviteToken{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) GetInviteByToken(ctx context.Context, token string) (InviteToken, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model inviteTokenModel
	err := s.orm.WithContext(ctx).Where("token = ?", token).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return InviteToken{}, ErrInviteNotFound
	}
	if err != nil {
		return InviteToken{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) CreateRequest(ctx context.Context, req AccessRequest) (AccessRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	model := accessRequestModel{
		ID:          req.ID,
		AlbumID:     req.AlbumID,
		ClassID:     req.ClassID,
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Status:      req.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		// Two in-flight submissions can both pass the existence check; the
		// unique index on (class_id, user_id) decides the loser.
		if isUniqueViolation(err) {
			return AccessRequest{}, ErrDuplicateRequest
		}
		return AccessRequest{}, err
	}
	return model.toAPI(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *pgStore) UpdateRequest(ctx context.Context, req AccessRequest) (AccessRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	updates := map[string]any{
		"display_name": req.DisplayName,
		"email":        req.Email,
		"status":       req.Status,
		"responded_at": req.RespondedAt,
		"updated_at":   time.Now().UTC(),
	}

	res := s.orm.WithContext(ctx).
		Model(&accessRequestModel{}).
		Where("id = ?", req.ID).
		Updates(updates)
	if res.Error != nil {
		return AccessRequest{}, res.Error
	}
	if res.RowsAffected == 0 {
		return AccessRequest{}, ErrRequestNotFound
	}

	var model accessRequestModel
	if err := s.orm.WithContext(ctx).First(&model, "id = ?", req.ID).Error; err != nil {
		return AccessRequest{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) GetRequest(ctx context.Context, id uuid.UUID) (AccessRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model accessRequestModel
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AccessRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return AccessRequest{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) GetRequestByClassAndUser(ctx context.Context, classID, userID uuid.UUID) (AccessRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model accessRequestModel
	err := s.orm.WithContext(ctx).
		Where("class_id = ? AND user_id = ?", classID, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AccessRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return AccessRequest{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) AddMember(ctx context.Context, member Member) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	model := albumMemberModel{
		AlbumID:   member.AlbumID,
		UserID:    member.UserID,
		Role:      member.Role,
		CreatedAt: time.Now().UTC(),
	}
	return s.orm.WithContext(ctx).Create(&model).Error
}

func (s *pgStore) ListMembers(ctx context.Context, albumID uuid.UUID) ([]Member, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var models []albumMemberModel
	if err := s.orm.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(models))
	for _, m := range models {
		members = append(members, m.toAPI())
	}
	return members, nil
}

type joinStatsRow struct {
	LimitCount    *int64 `db:"limit_count"`
	ApprovedCount int64  `db:"approved_count"`
	PendingCount  int64  `db:"pending_count"`
	RejectedCount int64  `db:"rejected_count"`
}

// GetJoinStats reads the configured limit and per-status request counts in
// one statement. A single statement executes as one snapshot, which keeps
// the counts mutually consistent under concurrent approvals.
func (s *pgStore) GetJoinStats(ctx context.Context, albumID uuid.UUID) (JoinStats, error) {
	query := `
SELECT
    (SELECT limit_count FROM join_limits WHERE album_id = $1) AS limit_count,
    COUNT(*) FILTER (WHERE status = 'approved') AS approved_count,
    COUNT(*) FILTER (WHERE status = 'pending')  AS pending_count,
    COUNT(*) FILTER (WHERE status = 'rejected') AS rejected_count
FROM access_requests
WHERE album_id = $1
`

	var row joinStatsRow
	if err := db.Get(ctx, s.pool, &row, query, albumID); err != nil {
		return JoinStats{}, fmt.Errorf("aggregate join stats: %w", err)
	}

	return computeJoinStats(row.LimitCount, row.ApprovedCount, row.PendingCount, row.RejectedCount), nil
}

// computeJoinStats derives available_slots from the raw snapshot. No limit
// row means unlimited capacity; a negative result is reported as-is.
func computeJoinStats(limit *int64, approved, pending, rejected int64) JoinStats {
	stats := JoinStats{
		LimitCount:     limit,
		ApprovedCount:  approved,
		PendingCount:   pending,
		RejectedCount:  rejected,
		AvailableSlots: UnlimitedSlots,
	}
	if limit != nil {
		stats.AvailableSlots = *limit - approved
	}
	return stats
}

func (s *pgStore) CreateMediaAsset(ctx context.Context, asset MediaAsset) (MediaAsset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	model := mediaAssetModel{
		ID:        asset.ID,
		AlbumID:   asset.AlbumID,
		Kind:      asset.Kind,
		SHA256:    asset.SHA256,
		URL:       asset.URL,
		Meta:      toJSONMap(asset.Meta),
		CreatedAt: time.Now().UTC(),
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return MediaAsset{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) GetMediaAsset(ctx context.Context, id uuid.UUID) (MediaAsset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model mediaAssetModel
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MediaAsset{}, ErrNotFound
	}
	if err != nil {
		return MediaAsset{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) ListMediaAssets(ctx context.Context, albumID uuid.UUID) ([]MediaAsset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var models []mediaAssetModel
	if err := s.orm.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	assets := make([]MediaAsset, 0, len(models))
	for _, m := range models {
		assets = append(assets, m.toAPI())
	}
	return assets, nil
}

func (s *pgStore) CreateLead(ctx context.Context, lead Lead) (Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	model := leadModel{
		ID:        lead.ID,
		Email:     lead.Email,
		Source:    lead.Source,
		Details:   toJSONMap(lead.Details),
		CreatedAt: time.Now().UTC(),
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return Lead{}, err
	}
	return model.toAPI(), nil
}

func (s *pgStore) ListPackages(ctx context.Context) ([]Package, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var models []packageModel
	if err := s.orm.WithContext(ctx).Order("price_cents ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	packages := make([]Package, 0, len(models))
	for _, m := range models {
		packages = append(packages, m.toAPI())
	}
	return packages, nil
}

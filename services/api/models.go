package api

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type albumModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name      string            `gorm:"type:text;not null"`
	Type      string            `gorm:"type:text;not null"`
	Status    string            `gorm:"type:text;not null"`
	OwnerID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	LeadID    *uuid.UUID        `gorm:"type:uuid"`
	PackageID *uuid.UUID        `gorm:"type:uuid"`
	Theme     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (albumModel) TableName() string { return "albums" }

func (m albumModel) toAPI() Album {
	return Album{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Status:    m.Status,
		OwnerID:   m.OwnerID,
		LeadID:    m.LeadID,
		PackageID: m.PackageID,
		Theme:     mapFromJSONMap(m.Theme),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type classModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (classModel) TableName() string { return "classes" }

func (m classModel) toAPI() Class {
	return Class{ID: m.ID, AlbumID: m.AlbumID, Name: m.Name, CreatedAt: m.CreatedAt}
}

type inviteTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	Role      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (inviteTokenModel) TableName() string { return "invite_tokens" }

func (m inviteTokenModel) toAPI() InviteToken {
	return InviteToken{
		ID:        m.ID,
		AlbumID:   m.AlbumID,
		Token:     m.Token,
		Role:      m.Role,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

type accessRequestModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AlbumID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClassID     uuid.UUID  `gorm:"type:uuid;not null"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null"`
	DisplayName string     `gorm:"type:text;not null"`
	Email       string     `gorm:"type:text;not null"`
	Status      string     `gorm:"type:text;not null;index"`
	RespondedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (accessRequestModel) TableName() string { return "access_requests" }

func (m accessRequestModel) toAPI() AccessRequest {
	return AccessRequest{
		ID:          m.ID,
		AlbumID:     m.AlbumID,
		ClassID:     m.ClassID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Status:      m.Status,
		RespondedAt: m.RespondedAt,
		CreatedAt:   m.CreatedAt,
	}
}

type albumMemberModel struct {
	AlbumID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (albumMemberModel) TableName() string { return "album_members" }

func (m albumMemberModel) toAPI() Member {
	return Member{AlbumID: m.AlbumID, UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt}
}

type mediaAssetModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind      string            `gorm:"type:text;not null"`
	SHA256    string            `gorm:"type:text;not null"`
	URL       string            `gorm:"type:text;not null"`
	Meta      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (mediaAssetModel) TableName() string { return "media_assets" }

func (m mediaAssetModel) toAPI() MediaAsset {
	return MediaAsset{
		ID:        m.ID,
		AlbumID:   m.AlbumID,
		Kind:      m.Kind,
		SHA256:    m.SHA256,
		URL:       m.URL,
		Meta:      mapFromJSONMap(m.Meta),
		CreatedAt: m.CreatedAt,
	}
}

type packageModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:text;uniqueIndex;not null"`
	PriceCents int64     `gorm:"type:bigint;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (packageModel) TableName() string { return "packages" }

func (m packageModel) toAPI() Package {
	return Package{ID: m.ID, Name: m.Name, PriceCents: m.PriceCents, CreatedAt: m.CreatedAt}
}

type leadModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email     string            `gorm:"type:text;not null;index"`
	Source    string            `gorm:"type:text"`
	Details   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (leadModel) TableName() string { return "leads" }

func (m leadModel) toAPI() Lead {
	return Lead{
		ID:        m.ID,
		Email:     m.Email,
		Source:    m.Source,
		Details:   mapFromJSONMap(m.Details),
		CreatedAt: m.CreatedAt,
	}
}

type sessionModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"type:text;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null"`
	RevokedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (sessionModel) TableName() string { return "sessions" }

func (m sessionModel) toAPI() Session {
	return Session{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
	}
}

func mapFromJSONMap(src datatypes.JSONMap) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func toJSONMap(src map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if src == nil {
		return out
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

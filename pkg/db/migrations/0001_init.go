package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:text;uniqueIndex;not null"`
	Name      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"type:text;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null"`
	RevokedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	User      User       `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Package struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:text;uniqueIndex;not null"`
	PriceCents int64     `gorm:"type:bigint;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

type Lead struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email     string            `gorm:"type:text;not null;index"`
	Source    string            `gorm:"type:text"`
	Details   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

type Album struct {
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
	Owner     User              `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Lead      *Lead             `gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Package   *Package          `gorm:"foreignKey:PackageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

type Class struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Album     Album     `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type AlbumMember struct {
	AlbumID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Album     Album     `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type InviteToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	Role      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Album     Album     `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type AccessRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AlbumID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClassID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uniq_class_requester,priority:1"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uniq_class_requester,priority:2"`
	DisplayName string     `gorm:"type:text;not null"`
	Email       string     `gorm:"type:text;not null"`
	Status      string     `gorm:"type:text;not null;index"`
	RespondedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Album       Album      `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Class       Class      `gorm:"foreignKey:ClassID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type JoinLimit struct {
	AlbumID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	LimitCount *int64    `gorm:"type:bigint"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
	Album      Album     `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type MediaAsset struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AlbumID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind      string            `gorm:"type:text;not null"`
	SHA256    string            `gorm:"type:text;not null"`
	URL       string            `gorm:"type:text;not null"`
	Meta      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Album     Album             `gorm:"foreignKey:AlbumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Audit struct {
	ID      int64             `gorm:"type:bigserial;primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (Audit) TableName() string { return "audit" }

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&User{},
		&Session{},
		&Package{},
		&Lead{},
		&Album{},
		&Class{},
		&AlbumMember{},
		&InviteToken{},
		&AccessRequest{},
		&JoinLimit{},
		&MediaAsset{},
		&Audit{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Album{}, "Owner"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Class{}, "Album"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&AccessRequest{}, "Class"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&InviteToken{}, "Album"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&JoinLimit{}, "Album"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&MediaAsset{}, "Album"); err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&Audit{},
		&MediaAsset{},
		&JoinLimit{},
		&AccessRequest{},
		&InviteToken{},
		&AlbumMember{},
		&Class{},
		&Album{},
		&Lead{},
		&Package{},
		&Session{},
		&User{},
	); err != nil {
		return err
	}

	return nil
}

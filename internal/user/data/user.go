package data

import (
	"bytes"
	"context"
	"time"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/minio"
	"github.com/sheetlens/sheetlens-backend/internal/user/biz"
)

// ProfilePO is the profiles table model
type ProfilePO struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"type:varchar(100)"`
	LastName  string    `gorm:"type:varchar(100)"`
	Phone     string    `gorm:"type:varchar(32)"`
	Bio       string    `gorm:"type:text"`
	Timezone  string    `gorm:"type:varchar(64)"`
	Language  string    `gorm:"type:varchar(16)"`
	AvatarKey string    `gorm:"type:varchar(512)"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName maps the model to its table
func (ProfilePO) TableName() string {
	return "profiles"
}

// ProfileRepo is the gorm-backed profile repository
type ProfileRepo struct {
	db *database.DB
}

// NewProfileRepo creates a profile repository
func NewProfileRepo(db *database.DB) biz.ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByUserID loads a profile by its owner
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*biz.Profile, error) {
	var po ProfilePO
	if err := r.db.WithContext(ctx).GetDB().
		Where("user_id = ?", userID).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrProfileNotFound
		}
		return nil, err
	}
	return toBizProfile(&po), nil
}

// Create inserts a new profile
func (r *ProfileRepo) Create(ctx context.Context, profile *biz.Profile) error {
	return r.db.WithContext(ctx).GetDB().Create(toProfilePO(profile)).Error
}

// Update persists changed profile fields
func (r *ProfileRepo) Update(ctx context.Context, profile *biz.Profile) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&ProfilePO{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
			"phone":      profile.Phone,
			"bio":        profile.Bio,
			"timezone":   profile.Timezone,
			"language":   profile.Language,
			"avatar_key": profile.AvatarKey,
			"updated_at": profile.UpdatedAt,
		}).Error
}

func toProfilePO(p *biz.Profile) *ProfilePO {
	if p == nil {
		return nil
	}
	return &ProfilePO{
		UserID:    p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Bio:       p.Bio,
		Timezone:  p.Timezone,
		Language:  p.Language,
		AvatarKey: p.AvatarKey,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toBizProfile(po *ProfilePO) *biz.Profile {
	if po == nil {
		return nil
	}
	return &biz.Profile{
		UserID:    po.UserID,
		FirstName: po.FirstName,
		LastName:  po.LastName,
		Phone:     po.Phone,
		Bio:       po.Bio,
		Timezone:  po.Timezone,
		Language:  po.Language,
		AvatarKey: po.AvatarKey,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

// AvatarStore keeps avatar blobs in object storage
type AvatarStore struct {
	client *minio.Client
}

// NewAvatarStore creates an object-storage avatar store
func NewAvatarStore(client *minio.Client) biz.AvatarStore {
	return &AvatarStore{client: client}
}

// Put stores an avatar blob
func (s *AvatarStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.client.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), contentType)
}

// Delete removes an avatar blob
func (s *AvatarStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.client.Bucket(), key)
}

// URL resolves an avatar key to its serving URL
func (s *AvatarStore) URL(key string) string {
	return s.client.ObjectURL(key)
}

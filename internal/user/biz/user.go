package biz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrAvatarTooLarge    = errors.New("avatar exceeds the size limit")
	ErrAvatarInvalidType = errors.New("avatar must be a JPEG, PNG, or WebP image")
)

// avatarContentTypes lists the accepted image types, keyed by sniffed MIME
var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Profile is the per-user profile domain model
type Profile struct {
	UserID    string
	FirstName string
	LastName  string
	Phone     string
	Bio       string
	Timezone  string
	Language  string
	AvatarKey string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
	Bio       string
	Timezone  string
	Language  string
}

// ProfileRepo defines profile persistence
type ProfileRepo interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
}

// AvatarStore defines avatar blob storage
type AvatarStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ProfileUseCase implements profile reads, edits, and avatar replacement
type ProfileUseCase struct {
	repo          ProfileRepo
	avatars       AvatarStore
	maxAvatarSize int64
	logger        *logger.Logger
}

func NewProfileUseCase(repo ProfileRepo, avatars AvatarStore, maxAvatarSize int64, log *logger.Logger) *ProfileUseCase {
	return &ProfileUseCase{
		repo:          repo,
		avatars:       avatars,
		maxAvatarSize: maxAvatarSize,
		logger:        log,
	}
}

// GetProfile returns the caller's profile, creating an empty one on first
// access.
func (uc *ProfileUseCase) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := uc.repo.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	profile = &Profile{
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile edits the mutable profile fields
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	profile, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.FirstName = update.FirstName
	profile.LastName = update.LastName
	profile.Phone = update.Phone
	profile.Bio = update.Bio
	profile.Timezone = update.Timezone
	profile.Language = update.Language
	profile.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ReplaceAvatar validates and stores a new avatar, then removes the previous
// one. The new blob is stored and its key persisted before the old blob is
// deleted, so a failure partway never leaves the profile pointing at a
// missing object.
func (uc *ProfileUseCase) ReplaceAvatar(ctx context.Context, userID string, data []byte) (*Profile, error) {
	if int64(len(data)) > uc.maxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarContentTypes[contentType]
	if !ok {
		return nil, ErrAvatarInvalidType
	}

	profile, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	newKey := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.Must(uuid.NewV7()).String(), ext)
	if err := uc.avatars.Put(ctx, newKey, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	oldKey := profile.AvatarKey
	profile.AvatarKey = newKey
	profile.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, profile); err != nil {
		// roll back the orphaned blob so storage stays consistent
		if delErr := uc.avatars.Delete(ctx, newKey); delErr != nil {
			uc.logger.Warn("failed to remove orphaned avatar",
				zap.String("key", newKey), zap.Error(delErr))
		}
		return nil, err
	}

	if oldKey != "" && oldKey != newKey {
		if err := uc.avatars.Delete(ctx, oldKey); err != nil {
			uc.logger.Warn("failed to delete previous avatar",
				zap.String("user_id", userID),
				zap.String("key", oldKey),
				zap.Error(err))
		}
	}

	return profile, nil
}

// AvatarURL resolves a profile's avatar key to a serving URL, empty when no
// avatar is set.
func (uc *ProfileUseCase) AvatarURL(profile *Profile) string {
	if profile == nil || profile.AvatarKey == "" {
		return ""
	}
	return uc.avatars.URL(profile.AvatarKey)
}

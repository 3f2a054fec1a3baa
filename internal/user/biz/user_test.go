package biz

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileRepo struct {
	profiles  map[string]*Profile
	updateErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*Profile)}
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrProfileNotFound
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *Profile) error {
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *Profile) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

type fakeAvatarStore struct {
	objects map[string][]byte
	deleted []string
	putErr  error
	delErr  error
}

func newFakeAvatarStore() *fakeAvatarStore {
	return &fakeAvatarStore{objects: make(map[string][]byte)}
}

func (s *fakeAvatarStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *fakeAvatarStore) Delete(ctx context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *fakeAvatarStore) URL(key string) string {
	return "https://storage.example.com/" + key
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	log, err := logger.New(cfg)
	require.NoError(t, err)
	return log
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newProfileUC(t *testing.T, repo ProfileRepo, store AvatarStore) *ProfileUseCase {
	return NewProfileUseCase(repo, store, 2*1024*1024, testLogger(t))
}

func TestGetProfileCreatesOnFirstAccess(t *testing.T) {
	repo := newFakeProfileRepo()
	uc := newProfileUC(t, repo, newFakeAvatarStore())

	profile, err := uc.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
	assert.Empty(t, profile.FirstName)

	_, ok := repo.profiles["user-1"]
	assert.True(t, ok)
}

func TestGetProfileReturnsExisting(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["user-1"] = &Profile{UserID: "user-1", FirstName: "Alice"}
	uc := newProfileUC(t, repo, newFakeAvatarStore())

	profile, err := uc.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.FirstName)
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	uc := newProfileUC(t, repo, newFakeAvatarStore())

	profile, err := uc.UpdateProfile(context.Background(), "user-1", ProfileUpdate{
		FirstName: "Alice",
		LastName:  "Nguyen",
		Phone:     "+15551234567",
		Bio:       "Data wrangler",
		Timezone:  "America/New_York",
		Language:  "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.FirstName)
	assert.Equal(t, "Nguyen", profile.LastName)
	assert.Equal(t, "Data wrangler", profile.Bio)
	assert.Equal(t, "America/New_York", profile.Timezone)
	assert.Equal(t, "Alice", repo.profiles["user-1"].FirstName)
}

func TestReplaceAvatarStoresAndPersists(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newFakeAvatarStore()
	uc := newProfileUC(t, repo, store)

	profile, err := uc.ReplaceAvatar(context.Background(), "user-1", pngBytes(t))
	require.NoError(t, err)
	assert.NotEmpty(t, profile.AvatarKey)
	assert.Contains(t, profile.AvatarKey, "avatars/user-1/")

	_, stored := store.objects[profile.AvatarKey]
	assert.True(t, stored)
	assert.Equal(t, profile.AvatarKey, repo.profiles["user-1"].AvatarKey)
}

func TestReplaceAvatarDeletesOldAfterPersist(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newFakeAvatarStore()
	repo.profiles["user-1"] = &Profile{UserID: "user-1", AvatarKey: "avatars/user-1/old.png"}
	store.objects["avatars/user-1/old.png"] = []byte("old")

	uc := newProfileUC(t, repo, store)

	profile, err := uc.ReplaceAvatar(context.Background(), "user-1", pngBytes(t))
	require.NoError(t, err)
	assert.NotEqual(t, "avatars/user-1/old.png", profile.AvatarKey)
	assert.Contains(t, store.deleted, "avatars/user-1/old.png")
}

func TestReplaceAvatarOldDeleteFailureIsNonFatal(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newFakeAvatarStore()
	repo.profiles["user-1"] = &Profile{UserID: "user-1", AvatarKey: "avatars/user-1/old.png"}
	store.delErr = errors.New("storage unavailable")

	uc := newProfileUC(t, repo, store)

	profile, err := uc.ReplaceAvatar(context.Background(), "user-1", pngBytes(t))
	require.NoError(t, err)
	assert.NotEmpty(t, profile.AvatarKey)
	assert.Equal(t, profile.AvatarKey, repo.profiles["user-1"].AvatarKey)
}

func TestReplaceAvatarPersistFailureRollsBackBlob(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newFakeAvatarStore()
	repo.profiles["user-1"] = &Profile{UserID: "user-1"}
	repo.updateErr = errors.New("db down")

	uc := newProfileUC(t, repo, store)

	_, err := uc.ReplaceAvatar(context.Background(), "user-1", pngBytes(t))
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestReplaceAvatarRejectsNonImage(t *testing.T) {
	uc := newProfileUC(t, newFakeProfileRepo(), newFakeAvatarStore())

	_, err := uc.ReplaceAvatar(context.Background(), "user-1", []byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrAvatarInvalidType)
}

func TestReplaceAvatarRejectsOversized(t *testing.T) {
	repo := newFakeProfileRepo()
	store := newFakeAvatarStore()
	uc := NewProfileUseCase(repo, store, 10, testLogger(t))

	_, err := uc.ReplaceAvatar(context.Background(), "user-1", pngBytes(t))
	assert.ErrorIs(t, err, ErrAvatarTooLarge)
}

func TestAvatarURL(t *testing.T) {
	uc := newProfileUC(t, newFakeProfileRepo(), newFakeAvatarStore())

	assert.Empty(t, uc.AvatarURL(nil))
	assert.Empty(t, uc.AvatarURL(&Profile{}))
	assert.Equal(t,
		"https://storage.example.com/avatars/u/a.png",
		uc.AvatarURL(&Profile{AvatarKey: "avatars/u/a.png"}))
}

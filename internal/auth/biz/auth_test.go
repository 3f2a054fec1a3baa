package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users       map[string]*User // keyed by ID
	failedIncrs map[string]int
	locked      map[string]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:       make(map[string]*User),
		failedIncrs: make(map[string]int),
		locked:      make(map[string]time.Time),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == refreshToken {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) IncrementFailedLogins(ctx context.Context, userID string) error {
	r.failedIncrs[userID]++
	if u, ok := r.users[userID]; ok {
		u.FailedLoginAttempts++
	}
	return nil
}

func (r *fakeUserRepo) LockAccount(ctx context.Context, userID string, duration time.Duration) error {
	until := time.Now().Add(duration)
	r.locked[userID] = until
	if u, ok := r.users[userID]; ok {
		u.LockedUntil = &until
	}
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = nil
		u.RefreshTokenExpiresAt = nil
	}
	return nil
}

func newUseCase(repo UserRepo) *AuthUseCase {
	return NewAuthUseCase(repo, "test-secret", "sheetlens-backend")
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &User{
		ID:           "user-" + email,
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)

	user, err := uc.Register(context.Background(), "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	seedUser(t, repo, "alice@example.com", "whatever")

	_, err := uc.Register(context.Background(), "Alice Again", "alice@example.com", "other-pass")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	result, err := uc.Login(context.Background(), "alice@example.com", "s3cret-pass", "10.0.0.1", false)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	stored := repo.users[user.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.Tokens.RefreshToken, *stored.RefreshToken)
	require.NotNil(t, stored.LastLoginIP)
	assert.Equal(t, "10.0.0.1", *stored.LastLoginIP)
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	_, err := uc.Login(context.Background(), "alice@example.com", "wrong", "10.0.0.1", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, repo.failedIncrs[user.ID])
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)

	_, err := uc.Login(context.Background(), "nobody@example.com", "pass", "10.0.0.1", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	for i := 0; i < MaxFailedLogins; i++ {
		_, err := uc.Login(context.Background(), "alice@example.com", "wrong", "10.0.0.1", false)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, locked := repo.locked[user.ID]
	assert.True(t, locked)

	_, err := uc.Login(context.Background(), "alice@example.com", "s3cret-pass", "10.0.0.1", false)
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginRememberMeExtendsRefreshExpiry(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	_, err := uc.Login(context.Background(), "alice@example.com", "s3cret-pass", "10.0.0.1", true)
	require.NoError(t, err)

	stored := repo.users[user.ID]
	require.NotNil(t, stored.RefreshTokenExpiresAt)
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), *stored.RefreshTokenExpiresAt, time.Minute)
}

func TestRefreshAccessToken(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	seedUser(t, repo, "alice@example.com", "s3cret-pass")

	result, err := uc.Login(context.Background(), "alice@example.com", "s3cret-pass", "10.0.0.1", false)
	require.NoError(t, err)

	pair, err := uc.RefreshAccessToken(context.Background(), result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, result.Tokens.RefreshToken, pair.RefreshToken)
}

func TestRefreshAccessTokenExpired(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	token := "stale-refresh-token"
	past := time.Now().Add(-time.Hour)
	user.RefreshToken = &token
	user.RefreshTokenExpiresAt = &past

	_, err := uc.RefreshAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessTokenUnknown(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)

	_, err := uc.RefreshAccessToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newUseCase(repo)
	user := seedUser(t, repo, "alice@example.com", "s3cret-pass")

	result, err := uc.Login(context.Background(), "alice@example.com", "s3cret-pass", "10.0.0.1", false)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(context.Background(), user.ID))
	assert.Nil(t, repo.users[user.ID].RefreshToken)

	_, err = uc.RefreshAccessToken(context.Background(), result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

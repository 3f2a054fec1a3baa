package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sheetlens/sheetlens-backend/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// User is the account model used by authentication
type User struct {
	ID                    string // UUID v7
	Name                  string
	Email                 string
	PasswordHash          string
	FailedLoginAttempts   int
	LockedUntil           *time.Time
	LastLoginAt           *time.Time
	LastLoginIP           *string
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserRepo is the account persistence interface
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*User, error)
	Update(ctx context.Context, user *User) error
	IncrementFailedLogins(ctx context.Context, userID string) error
	LockAccount(ctx context.Context, userID string, duration time.Duration) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// AuthUseCase implements registration, login, and token lifecycle
type AuthUseCase struct {
	userRepo   UserRepo
	jwtManager *auth.JWTManager
}

func NewAuthUseCase(userRepo UserRepo, jwtSecret string, issuer string) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		jwtManager: auth.NewJWTManager(jwtSecret, issuer),
	}
}

// Register creates a new account with a bcrypt-hashed password
func (uc *AuthUseCase) Register(ctx context.Context, name, email, password string) (*User, error) {
	existingUser, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil && existingUser != nil {
		return nil, ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// UUID v7 keeps IDs time-ordered
	userID := uuid.Must(uuid.NewV7()).String()

	user := &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues a token pair
func (uc *AuthUseCase) Login(ctx context.Context, email, password, ip string, rememberMe bool) (*LoginResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.userRepo.IncrementFailedLogins(ctx, user.ID)

		if user.FailedLoginAttempts+1 >= MaxFailedLogins {
			uc.userRepo.LockAccount(ctx, user.ID, LockoutDuration)
		}

		return nil, ErrInvalidCredentials
	}

	return uc.generateTokens(ctx, user, ip, rememberMe)
}

// RefreshAccessToken exchanges a valid refresh token for a new access token
func (uc *AuthUseCase) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := uc.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if user.RefreshTokenExpiresAt == nil || user.RefreshTokenExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}

	accessToken, err := uc.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // the refresh token is reused until logout or expiry
		ExpiresIn:    int(auth.AccessTokenDuration.Seconds()),
	}, nil
}

// Logout invalidates the stored refresh token
func (uc *AuthUseCase) Logout(ctx context.Context, userID string) error {
	if err := uc.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// GetUser loads an account by ID
func (uc *AuthUseCase) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (uc *AuthUseCase) generateTokens(ctx context.Context, user *User, ip string, rememberMe bool) (*LoginResult, error) {
	accessToken, err := uc.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := uc.jwtManager.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	tokenDuration := auth.RefreshTokenDuration
	if rememberMe {
		tokenDuration = auth.ExtendedRefreshTokenDuration
	}

	expiresAt := time.Now().Add(tokenDuration)
	user.RefreshToken = &refreshToken
	user.RefreshTokenExpiresAt = &expiresAt

	now := time.Now()
	user.LastLoginAt = &now
	user.LastLoginIP = &ip
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.UpdatedAt = now

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &LoginResult{
		UserID: user.ID,
		Tokens: &TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(auth.AccessTokenDuration.Seconds()),
		},
	}, nil
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	UserID string
	Tokens *TokenPair
}

// TokenPair holds an access and refresh token
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

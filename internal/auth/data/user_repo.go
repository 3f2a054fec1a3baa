package data

import (
	"context"
	"time"

	"github.com/sheetlens/sheetlens-backend/internal/auth/biz"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"gorm.io/gorm"
)

// UserPO is the accounts table model
type UserPO struct {
	ID                    string     `gorm:"type:uuid;primaryKey"`
	Name                  string     `gorm:"type:varchar(255);not null"`
	Email                 string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash          string     `gorm:"type:varchar(255);not null"`
	FailedLoginAttempts   int        `gorm:"not null;default:0"`
	LockedUntil           *time.Time `gorm:"type:timestamptz"`
	LastLoginAt           *time.Time `gorm:"type:timestamptz"`
	LastLoginIP           *string    `gorm:"type:varchar(45)"`
	RefreshToken          *string    `gorm:"type:varchar(128);index"`
	RefreshTokenExpiresAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt             time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt             time.Time  `gorm:"type:timestamptz;not null"`
	DeletedAt             gorm.DeletedAt `gorm:"type:timestamptz;index"`
}

// TableName maps the model to its table
func (UserPO) TableName() string {
	return "users"
}

// AuthUserRepo is the gorm-backed account repository
type AuthUserRepo struct {
	db *database.DB
}

// NewAuthUserRepo creates an account repository
func NewAuthUserRepo(db *database.DB) biz.UserRepo {
	return &AuthUserRepo{db: db}
}

// Create inserts a new account
func (r *AuthUserRepo) Create(ctx context.Context, user *biz.User) error {
	po := toUserPO(user)
	if err := r.db.WithContext(ctx).GetDB().Create(po).Error; err != nil {
		return err
	}
	user.ID = po.ID
	return nil
}

// GetByID loads an account by primary key
func (r *AuthUserRepo) GetByID(ctx context.Context, id string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("id = ?", id).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}
	return toBizUser(&po), nil
}

// GetByEmail loads an account by email
func (r *AuthUserRepo) GetByEmail(ctx context.Context, email string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("email = ?", email).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}
	return toBizUser(&po), nil
}

// GetByRefreshToken loads the account holding a refresh token
func (r *AuthUserRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("refresh_token = ?", refreshToken).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrInvalidToken
		}
		return nil, err
	}
	return toBizUser(&po), nil
}

// Update persists changed account fields
func (r *AuthUserRepo) Update(ctx context.Context, user *biz.User) error {
	po := toUserPO(user)
	return r.db.WithContext(ctx).GetDB().
		Model(&UserPO{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":                     po.Name,
			"email":                    po.Email,
			"password_hash":            po.PasswordHash,
			"failed_login_attempts":    po.FailedLoginAttempts,
			"locked_until":             po.LockedUntil,
			"last_login_at":            po.LastLoginAt,
			"last_login_ip":            po.LastLoginIP,
			"refresh_token":            po.RefreshToken,
			"refresh_token_expires_at": po.RefreshTokenExpiresAt,
			"updated_at":               po.UpdatedAt,
		}).Error
}

// IncrementFailedLogins bumps the failed login counter atomically
func (r *AuthUserRepo) IncrementFailedLogins(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&UserPO{}).
		Where("id = ?", userID).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
}

// LockAccount sets the lockout expiry
func (r *AuthUserRepo) LockAccount(ctx context.Context, userID string, duration time.Duration) error {
	lockedUntil := time.Now().Add(duration)
	return r.db.WithContext(ctx).GetDB().
		Model(&UserPO{}).
		Where("id = ?", userID).
		Update("locked_until", lockedUntil).Error
}

// ClearRefreshToken drops the stored refresh token
func (r *AuthUserRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&UserPO{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
			"updated_at":               time.Now(),
		}).Error
}

func toUserPO(user *biz.User) *UserPO {
	if user == nil {
		return nil
	}

	return &UserPO{
		ID:                    user.ID,
		Name:                  user.Name,
		Email:                 user.Email,
		PasswordHash:          user.PasswordHash,
		FailedLoginAttempts:   user.FailedLoginAttempts,
		LockedUntil:           user.LockedUntil,
		LastLoginAt:           user.LastLoginAt,
		LastLoginIP:           user.LastLoginIP,
		RefreshToken:          user.RefreshToken,
		RefreshTokenExpiresAt: user.RefreshTokenExpiresAt,
		CreatedAt:             user.CreatedAt,
		UpdatedAt:             user.UpdatedAt,
	}
}

func toBizUser(po *UserPO) *biz.User {
	if po == nil {
		return nil
	}

	return &biz.User{
		ID:                    po.ID,
		Name:                  po.Name,
		Email:                 po.Email,
		PasswordHash:          po.PasswordHash,
		FailedLoginAttempts:   po.FailedLoginAttempts,
		LockedUntil:           po.LockedUntil,
		LastLoginAt:           po.LastLoginAt,
		LastLoginIP:           po.LastLoginIP,
		RefreshToken:          po.RefreshToken,
		RefreshTokenExpiresAt: po.RefreshTokenExpiresAt,
		CreatedAt:             po.CreatedAt,
		UpdatedAt:             po.UpdatedAt,
	}
}

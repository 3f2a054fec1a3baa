package service

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sheetlens/sheetlens-backend/internal/auth/middleware"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"github.com/sheetlens/sheetlens-backend/internal/user/biz"
)

// ProfileService exposes the profile HTTP handlers
type ProfileService struct {
	profileUC *biz.ProfileUseCase
	logger    *logger.Logger
}

// NewProfileService creates a profile service
func NewProfileService(profileUC *biz.ProfileUseCase, log *logger.Logger) *ProfileService {
	return &ProfileService{
		profileUC: profileUC,
		logger:    log,
	}
}

// GetProfile handles GET /profile
func (s *ProfileService) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	profile, err := s.profileUC.GetProfile(c.Request.Context(), userID)
	if err != nil {
		fail(c, s.logger, "failed to load profile", userID, err)
		return
	}

	response.Success(c, s.profileView(profile))
}

// UpdateProfileRequest is the profile edit payload
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=32"`
	Bio       string `json:"bio" binding:"max=1000"`
	Timezone  string `json:"timezone" binding:"max=64"`
	Language  string `json:"language" binding:"max=16"`
}

// UpdateProfile handles PUT /profile
func (s *ProfileService) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	profile, err := s.profileUC.UpdateProfile(c.Request.Context(), userID, biz.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Bio:       req.Bio,
		Timezone:  req.Timezone,
		Language:  req.Language,
	})
	if err != nil {
		fail(c, s.logger, "failed to update profile", userID, err)
		return
	}

	response.Success(c, s.profileView(profile))
}

// UploadAvatar handles POST /profile/avatar (multipart field "avatar")
func (s *ProfileService) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "failed to read avatar file")
		return
	}

	profile, err := s.profileUC.ReplaceAvatar(c.Request.Context(), userID, data)
	if err != nil {
		fail(c, s.logger, "failed to replace avatar", userID, err)
		return
	}

	response.Success(c, s.profileView(profile))
}

func (s *ProfileService) profileView(profile *biz.Profile) gin.H {
	return gin.H{
		"user_id":    profile.UserID,
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
		"phone":      profile.Phone,
		"bio":        profile.Bio,
		"timezone":   profile.Timezone,
		"language":   profile.Language,
		"avatar_url": s.profileUC.AvatarURL(profile),
		"updated_at": profile.UpdatedAt,
	}
}

package service

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sheetlens/sheetlens-backend/internal/auth/middleware"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
)

// UploadService exposes the workbook upload HTTP handlers
type UploadService struct {
	uploadUC *biz.UploadUseCase
	logger   *logger.Logger
}

// NewUploadService creates an upload service
func NewUploadService(uploadUC *biz.UploadUseCase, log *logger.Logger) *UploadService {
	return &UploadService{
		uploadUC: uploadUC,
		logger:   log,
	}
}

// Create handles POST /uploads (multipart field "file")
func (s *UploadService) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "failed to read file")
		return
	}

	upload, err := s.uploadUC.CreateUpload(c.Request.Context(), userID, fileHeader.Filename, data)
	if err != nil {
		fail(c, s.logger, "upload failed", userID, err)
		return
	}

	response.Created(c, uploadView(upload))
}

// List handles GET /uploads. With a partial hint the rows are compacted to
// what a list fragment needs.
func (s *UploadService) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	uploads, total, err := s.uploadUC.ListUploads(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, s.logger, "failed to list uploads", userID, err)
		return
	}

	partial := response.IsPartial(c)
	items := make([]gin.H, 0, len(uploads))
	for _, u := range uploads {
		if partial {
			items = append(items, gin.H{
				"id":       u.ID,
				"filename": u.Filename,
				"status":   u.Status,
			})
			continue
		}
		items = append(items, uploadView(u))
	}

	response.Success(c, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get handles GET /uploads/:id
func (s *UploadService) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	upload, err := s.uploadUC.GetUpload(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, s.logger, "failed to load upload", userID, err)
		return
	}

	response.Success(c, uploadView(upload))
}

// Delete handles DELETE /uploads/:id
func (s *UploadService) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	if err := s.uploadUC.DeleteUpload(c.Request.Context(), userID, c.Param("id")); err != nil {
		fail(c, s.logger, "failed to delete upload", userID, err)
		return
	}

	response.SuccessWithMessage(c, "upload deleted", struct{}{})
}

// ListSheets handles GET /uploads/:id/sheets
func (s *UploadService) ListSheets(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	sheets, err := s.uploadUC.ListSheets(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, s.logger, "failed to list sheets", userID, err)
		return
	}

	items := make([]gin.H, 0, len(sheets))
	for _, sheet := range sheets {
		items = append(items, gin.H{
			"index":     sheet.Index,
			"name":      sheet.Name,
			"row_count": sheet.RowCount,
		})
	}

	response.Success(c, gin.H{"sheets": items})
}

// GetSheet handles GET /uploads/:id/sheets/:index
func (s *UploadService) GetSheet(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "invalid sheet index")
		return
	}

	sheet, err := s.uploadUC.GetSheet(c.Request.Context(), userID, c.Param("id"), index)
	if err != nil {
		fail(c, s.logger, "failed to load sheet", userID, err)
		return
	}

	response.Success(c, gin.H{
		"index":     sheet.Index,
		"name":      sheet.Name,
		"headers":   sheet.Headers,
		"rows":      sheet.Rows,
		"row_count": sheet.RowCount,
	})
}

func uploadView(u *biz.Upload) gin.H {
	return gin.H{
		"id":            u.ID,
		"filename":      u.Filename,
		"file_size":     u.FileSize,
		"file_hash":     u.FileHash,
		"content_type":  u.ContentType,
		"status":        u.Status,
		"error_message": u.ErrorMessage,
		"sheet_count":   u.SheetCount,
		"processed_at":  u.ProcessedAt,
		"created_at":    u.CreatedAt,
	}
}

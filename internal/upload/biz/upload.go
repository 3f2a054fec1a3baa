package biz

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/filehash"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/upload/parser"
	"go.uber.org/zap"
)

var (
	ErrUploadNotFound     = errors.New("upload not found")
	ErrSheetNotFound      = errors.New("sheet not found")
	ErrFileTooLarge       = errors.New("file exceeds the size limit")
	ErrInvalidFileType    = errors.New("only .xls and .xlsx files are accepted")
	ErrMacrosForbidden    = errors.New("macro-enabled workbooks are not accepted")
	ErrDuplicateFile      = errors.New("this file has already been uploaded")
	ErrParseFailed        = errors.New("failed to process the spreadsheet")
	ErrValidationNotFound = errors.New("no validation result")
)

// Status is the upload processing state
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Magic prefixes of the two accepted container formats
var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}                         // OOXML (.xlsx)
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1} // OLE2 (.xls)
)

// Upload is the workbook upload domain model
type Upload struct {
	ID           string
	UserID       string
	Filename     string
	FileSize     int64
	FileHash     string
	ContentType  string
	StorageKey   string
	Status       Status
	ErrorMessage string
	SheetCount   int
	ProcessedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SheetPreview is the stored extraction of one worksheet
type SheetPreview struct {
	ID       string
	UploadID string
	Index    int
	Name     string
	Headers  []string
	Rows     [][]string
	RowCount int
}

// UploadRepo defines upload persistence
type UploadRepo interface {
	Create(ctx context.Context, upload *Upload) error
	GetByID(ctx context.Context, userID, id string) (*Upload, error)
	List(ctx context.Context, userID string, offset, limit int) ([]*Upload, int64, error)
	ExistsByHash(ctx context.Context, userID, fileHash string) (bool, error)
	SetSheetCount(ctx context.Context, uploadID string, count int) error
	IngestPreviews(ctx context.Context, uploadID string, sheetCount int, previews []*SheetPreview) error
	MarkFailed(ctx context.Context, uploadID, message string) error
	Delete(ctx context.Context, userID, id string) error
	GetSheet(ctx context.Context, uploadID string, sheetIndex int) (*SheetPreview, error)
	ListSheets(ctx context.Context, uploadID string) ([]*SheetPreview, error)
}

// BlobStore defines workbook blob storage
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// UploadUseCase implements the upload and preview pipeline
type UploadUseCase struct {
	repo        UploadRepo
	blobs       BlobStore
	maxFileSize int64
	logger      *logger.Logger
}

func NewUploadUseCase(repo UploadRepo, blobs BlobStore, maxFileSize int64, log *logger.Logger) *UploadUseCase {
	return &UploadUseCase{
		repo:        repo,
		blobs:       blobs,
		maxFileSize: maxFileSize,
		logger:      log,
	}
}

// CreateUpload validates, stores, and processes a workbook. Validation and
// deduplication happen before any blob or row is written. Extraction runs
// in a single transaction; when it fails, the upload record is marked
// failed outside that transaction so the failure is visible afterward.
func (uc *UploadUseCase) CreateUpload(ctx context.Context, userID, filename string, data []byte) (*Upload, error) {
	if int64(len(data)) > uc.maxFileSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xls" && ext != ".xlsx" {
		return nil, ErrInvalidFileType
	}

	if err := checkMagic(data, ext); err != nil {
		return nil, err
	}

	if err := checkMacros(data, ext); err != nil {
		return nil, err
	}

	fileHash, err := filehash.SumReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	exists, err := uc.repo.ExistsByHash(ctx, userID, fileHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateFile
	}

	uploadID := uuid.Must(uuid.NewV7()).String()
	storageKey := fmt.Sprintf("uploads/%s/%s/%s", userID, uploadID, filename)
	contentType := contentTypeFor(ext)

	if err := uc.blobs.Put(ctx, storageKey, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	upload := &Upload{
		ID:          uploadID,
		UserID:      userID,
		Filename:    filename,
		FileSize:    int64(len(data)),
		FileHash:    fileHash,
		ContentType: contentType,
		StorageKey:  storageKey,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, upload); err != nil {
		if delErr := uc.blobs.Delete(ctx, storageKey); delErr != nil {
			uc.logger.Warn("failed to remove orphaned upload blob",
				zap.String("key", storageKey), zap.Error(delErr))
		}
		return nil, err
	}

	// Record the sheet count before row extraction so a failed extraction
	// still leaves it correct on the record.
	sheetCount, err := parser.SheetCount(data, filename)
	if err != nil {
		uc.failUpload(ctx, uploadID, err)
		return nil, ErrParseFailed
	}
	if err := uc.repo.SetSheetCount(ctx, uploadID, sheetCount); err != nil {
		return nil, err
	}

	sheets, err := parser.Parse(data, filename)
	if err != nil {
		uc.failUpload(ctx, uploadID, err)
		return nil, ErrParseFailed
	}

	previews := make([]*SheetPreview, 0, len(sheets))
	for _, s := range sheets {
		previews = append(previews, &SheetPreview{
			ID:       uuid.Must(uuid.NewV7()).String(),
			UploadID: uploadID,
			Index:    s.Index,
			Name:     s.Name,
			Headers:  s.Headers,
			Rows:     s.Rows,
			RowCount: s.RowCount(),
		})
	}

	if err := uc.repo.IngestPreviews(ctx, uploadID, len(sheets), previews); err != nil {
		uc.failUpload(ctx, uploadID, err)
		return nil, ErrParseFailed
	}

	return uc.repo.GetByID(ctx, userID, uploadID)
}

func (uc *UploadUseCase) failUpload(ctx context.Context, uploadID string, cause error) {
	uc.logger.Error("upload processing failed",
		zap.String("upload_id", uploadID),
		zap.Error(cause))

	if err := uc.repo.MarkFailed(ctx, uploadID, cause.Error()); err != nil {
		uc.logger.Error("failed to record upload failure",
			zap.String("upload_id", uploadID),
			zap.Error(err))
	}
}

// GetUpload loads an upload owned by the caller
func (uc *UploadUseCase) GetUpload(ctx context.Context, userID, uploadID string) (*Upload, error) {
	return uc.repo.GetByID(ctx, userID, uploadID)
}

// ListUploads pages through the caller's uploads, newest first
func (uc *UploadUseCase) ListUploads(ctx context.Context, userID string, page, pageSize int) ([]*Upload, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return uc.repo.List(ctx, userID, offset, pageSize)
}

// DeleteUpload removes an upload, its previews, and its stored blob
func (uc *UploadUseCase) DeleteUpload(ctx context.Context, userID, uploadID string) error {
	upload, err := uc.repo.GetByID(ctx, userID, uploadID)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, userID, uploadID); err != nil {
		return err
	}

	if err := uc.blobs.Delete(ctx, upload.StorageKey); err != nil {
		uc.logger.Warn("failed to delete upload blob",
			zap.String("upload_id", uploadID),
			zap.String("key", upload.StorageKey),
			zap.Error(err))
	}

	return nil
}

// GetSheet loads one sheet preview, scoped to the caller. A sheet of someone
// else's upload reads as not found.
func (uc *UploadUseCase) GetSheet(ctx context.Context, userID, uploadID string, sheetIndex int) (*SheetPreview, error) {
	if _, err := uc.repo.GetByID(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	return uc.repo.GetSheet(ctx, uploadID, sheetIndex)
}

// ListSheets loads every sheet preview of the caller's upload
func (uc *UploadUseCase) ListSheets(ctx context.Context, userID, uploadID string) ([]*SheetPreview, error) {
	if _, err := uc.repo.GetByID(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	return uc.repo.ListSheets(ctx, uploadID)
}

func contentTypeFor(ext string) string {
	if ext == ".xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/vnd.ms-excel"
}

// checkMagic verifies the content matches the declared extension
func checkMagic(data []byte, ext string) error {
	switch ext {
	case ".xlsx":
		if !bytes.HasPrefix(data, zipMagic) {
			return ErrInvalidFileType
		}
	case ".xls":
		if !bytes.HasPrefix(data, oleMagic) {
			return ErrInvalidFileType
		}
	}
	return nil
}

// checkMacros rejects workbooks carrying a VBA project
func checkMacros(data []byte, ext string) error {
	switch ext {
	case ".xlsx":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return ErrInvalidFileType
		}
		for _, f := range zr.File {
			if strings.Contains(strings.ToLower(f.Name), "vbaproject") {
				return ErrMacrosForbidden
			}
		}
	case ".xls":
		if bytes.Contains(data, []byte("_VBA_PROJECT")) {
			return ErrMacrosForbidden
		}
	}
	return nil
}

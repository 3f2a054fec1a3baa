package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
	"gorm.io/gorm"
)

// StringSliceJSON stores a string slice as jsonb
type StringSliceJSON []string

func (s StringSliceJSON) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *StringSliceJSON) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// RowsJSON stores a slice of rows as jsonb
type RowsJSON [][]string

func (r RowsJSON) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([][]string(r))
	return string(b), err
}

func (r *RowsJSON) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// OutcomeJSON stores a validation outcome as jsonb
type OutcomeJSON json.RawMessage

func (o OutcomeJSON) Value() (driver.Value, error) {
	if len(o) == 0 {
		return "{}", nil
	}
	return string(o), nil
}

func (o *OutcomeJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*o = append((*o)[:0], v...)
		return nil
	case string:
		*o = OutcomeJSON(v)
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// UploadPO is the uploads table model. The composite unique index scopes
// hash deduplication to a single owner.
type UploadPO struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	UserID       string     `gorm:"type:uuid;not null;index;uniqueIndex:idx_uploads_user_hash,priority:1"`
	Filename     string     `gorm:"type:varchar(255);not null"`
	FileSize     int64      `gorm:"not null"`
	FileHash     string     `gorm:"type:char(64);not null;uniqueIndex:idx_uploads_user_hash,priority:2"`
	ContentType  string     `gorm:"type:varchar(100)"`
	StorageKey   string     `gorm:"type:varchar(512);not null"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"`
	ErrorMessage *string    `gorm:"type:text"`
	SheetCount   int        `gorm:"not null;default:0"`
	ProcessedAt  *time.Time
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

func (UploadPO) TableName() string {
	return "uploads"
}

// SheetPreviewPO is the sheet_previews table model
type SheetPreviewPO struct {
	ID         string          `gorm:"type:uuid;primaryKey"`
	UploadID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_previews_upload_sheet,priority:1"`
	SheetIndex int             `gorm:"not null;uniqueIndex:idx_previews_upload_sheet,priority:2"`
	SheetName  string          `gorm:"type:varchar(255);not null"`
	Headers    StringSliceJSON `gorm:"type:jsonb;not null"`
	RowData    RowsJSON        `gorm:"type:jsonb;not null"`
	RowCount   int             `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"not null"`
}

func (SheetPreviewPO) TableName() string {
	return "sheet_previews"
}

// ValidationResultPO is the validation_results table model
type ValidationResultPO struct {
	ID             string      `gorm:"type:uuid;primaryKey"`
	UploadID       string      `gorm:"type:uuid;not null;index"`
	Result         OutcomeJSON `gorm:"type:jsonb;not null"`
	IssueCount     int         `gorm:"not null;default:0"`
	Suggestions    string      `gorm:"type:text"`
	RawResponse    string      `gorm:"type:text"`
	Model          string      `gorm:"type:varchar(100)"`
	InputTokens    int         `gorm:"not null;default:0"`
	OutputTokens   int         `gorm:"not null;default:0"`
	ResponseTimeMs int64       `gorm:"not null;default:0"`
	CreatedAt      time.Time   `gorm:"not null"`
}

func (ValidationResultPO) TableName() string {
	return "validation_results"
}

// UploadRepo is the gorm-backed upload repository
type UploadRepo struct {
	db *database.DB
}

// NewUploadRepo creates an upload repository
func NewUploadRepo(db *database.DB) biz.UploadRepo {
	return &UploadRepo{db: db}
}

// Create inserts a new upload record
func (r *UploadRepo) Create(ctx context.Context, upload *biz.Upload) error {
	return r.db.WithContext(ctx).GetDB().Create(toUploadPO(upload)).Error
}

// GetByID loads an upload scoped to its owner
func (r *UploadRepo) GetByID(ctx context.Context, userID, id string) (*biz.Upload, error) {
	var po UploadPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("id = ? AND user_id = ?", id, userID).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUploadNotFound
		}
		return nil, err
	}
	return toBizUpload(&po), nil
}

// List returns the owner's uploads newest first, plus the total count
func (r *UploadRepo) List(ctx context.Context, userID string, offset, limit int) ([]*biz.Upload, int64, error) {
	db := r.db.WithContext(ctx).GetDB()

	var total int64
	if err := db.Model(&UploadPO{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []UploadPO
	if err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	uploads := make([]*biz.Upload, 0, len(pos))
	for i := range pos {
		uploads = append(uploads, toBizUpload(&pos[i]))
	}
	return uploads, total, nil
}

// ExistsByHash reports whether the owner already uploaded this content
func (r *UploadRepo) ExistsByHash(ctx context.Context, userID, fileHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).GetDB().
		Model(&UploadPO{}).
		Where("user_id = ? AND file_hash = ?", userID, fileHash).
		Count(&count).Error
	return count > 0, err
}

// SetSheetCount records the workbook's sheet count ahead of preview
// extraction, so a later extraction failure still leaves it correct
func (r *UploadRepo) SetSheetCount(ctx context.Context, uploadID string, count int) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&UploadPO{}).
		Where("id = ?", uploadID).
		Updates(map[string]interface{}{
			"sheet_count": count,
			"updated_at":  time.Now(),
		}).Error
}

// IngestPreviews records extracted sheets and completes the upload in one
// transaction. A failure rolls everything back, leaving the upload in its
// prior state.
func (r *UploadRepo) IngestPreviews(ctx context.Context, uploadID string, sheetCount int, previews []*biz.SheetPreview) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Model(&UploadPO{}).
			Where("id = ?", uploadID).
			Update("status", biz.StatusProcessing).Error; err != nil {
			return err
		}

		for _, p := range previews {
			po := &SheetPreviewPO{
				ID:         p.ID,
				UploadID:   uploadID,
				SheetIndex: p.Index,
				SheetName:  p.Name,
				Headers:    StringSliceJSON(p.Headers),
				RowData:    RowsJSON(p.Rows),
				RowCount:   p.RowCount,
				CreatedAt:  time.Now(),
			}
			if err := tx.Create(po).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&UploadPO{}).
			Where("id = ?", uploadID).
			Updates(map[string]interface{}{
				"status":       biz.StatusCompleted,
				"sheet_count":  sheetCount,
				"processed_at": now,
				"updated_at":   now,
			}).Error
	})
}

// MarkFailed records a processing failure. It runs outside any transaction
// so the failure survives an ingest rollback.
func (r *UploadRepo) MarkFailed(ctx context.Context, uploadID, message string) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&UploadPO{}).
		Where("id = ?", uploadID).
		Updates(map[string]interface{}{
			"status":        biz.StatusFailed,
			"error_message": message,
			"updated_at":    time.Now(),
		}).Error
}

// Delete removes an upload with its previews and validation results, scoped
// to the owner. The row is hard-deleted so the same content can be uploaded
// again afterward without tripping the composite unique index.
func (r *UploadRepo) Delete(ctx context.Context, userID, id string) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&UploadPO{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return biz.ErrUploadNotFound
		}
		if err := tx.Where("upload_id = ?", id).Delete(&SheetPreviewPO{}).Error; err != nil {
			return err
		}
		return tx.Where("upload_id = ?", id).Delete(&ValidationResultPO{}).Error
	})
}

// GetSheet loads one sheet preview of an upload
func (r *UploadRepo) GetSheet(ctx context.Context, uploadID string, sheetIndex int) (*biz.SheetPreview, error) {
	var po SheetPreviewPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("upload_id = ? AND sheet_index = ?", uploadID, sheetIndex).
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrSheetNotFound
		}
		return nil, err
	}
	return toBizPreview(&po), nil
}

// ListSheets loads all sheet previews of an upload in sheet order
func (r *UploadRepo) ListSheets(ctx context.Context, uploadID string) ([]*biz.SheetPreview, error) {
	var pos []SheetPreviewPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("upload_id = ?", uploadID).
		Order("sheet_index ASC").
		Find(&pos).Error; err != nil {
		return nil, err
	}

	previews := make([]*biz.SheetPreview, 0, len(pos))
	for i := range pos {
		previews = append(previews, toBizPreview(&pos[i]))
	}
	return previews, nil
}

func toUploadPO(u *biz.Upload) *UploadPO {
	if u == nil {
		return nil
	}
	po := &UploadPO{
		ID:          u.ID,
		UserID:      u.UserID,
		Filename:    u.Filename,
		FileSize:    u.FileSize,
		FileHash:    u.FileHash,
		ContentType: u.ContentType,
		StorageKey:  u.StorageKey,
		Status:      string(u.Status),
		SheetCount:  u.SheetCount,
		ProcessedAt: u.ProcessedAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.ErrorMessage != "" {
		po.ErrorMessage = &u.ErrorMessage
	}
	return po
}

func toBizUpload(po *UploadPO) *biz.Upload {
	if po == nil {
		return nil
	}
	u := &biz.Upload{
		ID:          po.ID,
		UserID:      po.UserID,
		Filename:    po.Filename,
		FileSize:    po.FileSize,
		FileHash:    po.FileHash,
		ContentType: po.ContentType,
		StorageKey:  po.StorageKey,
		Status:      biz.Status(po.Status),
		SheetCount:  po.SheetCount,
		ProcessedAt: po.ProcessedAt,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
	if po.ErrorMessage != nil {
		u.ErrorMessage = *po.ErrorMessage
	}
	return u
}

func toBizPreview(po *SheetPreviewPO) *biz.SheetPreview {
	if po == nil {
		return nil
	}
	return &biz.SheetPreview{
		ID:       po.ID,
		UploadID: po.UploadID,
		Index:    po.SheetIndex,
		Name:     po.SheetName,
		Headers:  []string(po.Headers),
		Rows:     [][]string(po.RowData),
		RowCount: po.RowCount,
	}
}

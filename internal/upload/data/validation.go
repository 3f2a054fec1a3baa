package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
	"github.com/sheetlens/sheetlens-backend/internal/upload/validator"
)

// ValidationRepo is the gorm-backed validation result repository
type ValidationRepo struct {
	db *database.DB
}

// NewValidationRepo creates a validation result repository
func NewValidationRepo(db *database.DB) biz.ValidationRepo {
	return &ValidationRepo{db: db}
}

// Create inserts an immutable validation result
func (r *ValidationRepo) Create(ctx context.Context, result *biz.ValidationResult) error {
	raw, err := json.Marshal(result.Outcome)
	if err != nil {
		return fmt.Errorf("failed to encode validation outcome: %w", err)
	}

	po := &ValidationResultPO{
		ID:             result.ID,
		UploadID:       result.UploadID,
		Result:         OutcomeJSON(raw),
		IssueCount:     result.IssueCount,
		Suggestions:    result.Suggestions,
		RawResponse:    result.RawResponse,
		Model:          result.Model,
		InputTokens:    result.InputTokens,
		OutputTokens:   result.OutputTokens,
		ResponseTimeMs: result.ResponseTimeMs,
		CreatedAt:      result.CreatedAt,
	}
	return r.db.WithContext(ctx).GetDB().Create(po).Error
}

// GetLatest loads the newest result for an upload
func (r *ValidationRepo) GetLatest(ctx context.Context, uploadID string) (*biz.ValidationResult, error) {
	var po ValidationResultPO
	if err := r.db.WithContext(ctx).GetDB().
		Where("upload_id = ?", uploadID).
		Order("created_at DESC").
		First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrValidationNotFound
		}
		return nil, err
	}
	return toBizValidation(&po)
}

func toBizValidation(po *ValidationResultPO) (*biz.ValidationResult, error) {
	var outcome validator.Outcome
	if len(po.Result) > 0 {
		if err := json.Unmarshal([]byte(po.Result), &outcome); err != nil {
			return nil, fmt.Errorf("failed to decode validation outcome: %w", err)
		}
	}

	return &biz.ValidationResult{
		ID:             po.ID,
		UploadID:       po.UploadID,
		Outcome:        &outcome,
		IssueCount:     po.IssueCount,
		Suggestions:    po.Suggestions,
		RawResponse:    po.RawResponse,
		Model:          po.Model,
		InputTokens:    po.InputTokens,
		OutputTokens:   po.OutputTokens,
		ResponseTimeMs: po.ResponseTimeMs,
		CreatedAt:      po.CreatedAt,
	}, nil
}

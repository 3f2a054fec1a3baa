package biz

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/factory"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/upload/validator"
	"go.uber.org/zap"
)

var (
	ErrValidationNoData = errors.New("no data available to validate")
	ErrValidationFailed = errors.New("validation service failed")
)

// ValidationResult is an immutable record of one validation run. IssueCount
// and Suggestions are flattened from the outcome so they can be queried
// without unpacking the result document.
type ValidationResult struct {
	ID             string
	UploadID       string
	Outcome        *validator.Outcome
	IssueCount     int
	Suggestions    string
	RawResponse    string
	Model          string
	InputTokens    int
	OutputTokens   int
	ResponseTimeMs int64
	CreatedAt      time.Time
}

// Claude Sonnet pricing: $0.003 per 1K input tokens, $0.015 per 1K output
const (
	inputTokenPrice  = 0.003 / 1000
	outputTokenPrice = 0.015 / 1000
)

// Cost estimates the run's cost in dollars from its token usage
func (r *ValidationResult) Cost() float64 {
	cost := float64(r.InputTokens)*inputTokenPrice + float64(r.OutputTokens)*outputTokenPrice
	return math.Round(cost*1e6) / 1e6
}

// ValidationRepo defines validation result persistence
type ValidationRepo interface {
	Create(ctx context.Context, result *ValidationResult) error
	GetLatest(ctx context.Context, uploadID string) (*ValidationResult, error)
}

// ValidationUseCase runs AI data-quality checks over upload previews
type ValidationUseCase struct {
	uploads        UploadRepo
	results        ValidationRepo
	client         *factory.Client
	cacheFreshness time.Duration
	logger         *logger.Logger
}

func NewValidationUseCase(uploads UploadRepo, results ValidationRepo, client *factory.Client, cacheFreshness time.Duration, log *logger.Logger) *ValidationUseCase {
	return &ValidationUseCase{
		uploads:        uploads,
		results:        results,
		client:         client,
		cacheFreshness: cacheFreshness,
		logger:         log,
	}
}

// ValidationOutput pairs a result with whether it was served from cache
type ValidationOutput struct {
	Result *ValidationResult
	Cached bool
}

// Validate returns a data-quality report for the caller's upload. A result
// newer than the freshness window is reused unless force is set; otherwise
// the first sheet's preview is sent to the model and the reply is stored as
// a new result.
func (uc *ValidationUseCase) Validate(ctx context.Context, userID, uploadID string, force bool) (*ValidationOutput, error) {
	upload, err := uc.uploads.GetByID(ctx, userID, uploadID)
	if err != nil {
		return nil, err
	}

	if !force {
		latest, err := uc.results.GetLatest(ctx, uploadID)
		if err == nil && time.Since(latest.CreatedAt) < uc.cacheFreshness {
			return &ValidationOutput{Result: latest, Cached: true}, nil
		}
		if err != nil && !errors.Is(err, ErrValidationNotFound) {
			return nil, err
		}
	}

	sheet, err := uc.uploads.GetSheet(ctx, uploadID, 0)
	if err != nil {
		return nil, ErrValidationNoData
	}
	if len(sheet.Rows) == 0 {
		return nil, ErrValidationNoData
	}

	prompt := validator.BuildPrompt(sheet.Name, sheet.Headers, sheet.Rows)

	start := time.Now()
	res := uc.client.SendMessage(ctx, prompt, validator.SystemPrompt)
	elapsed := time.Since(start)

	if !res.Success {
		uc.logger.Error("validation request failed",
			zap.String("upload_id", uploadID),
			zap.String("error", res.Error))
		return nil, ErrValidationFailed
	}

	outcome := validator.ParseResponse(res.Content)

	inputTokens := res.Usage.InputTokens
	if inputTokens == 0 {
		inputTokens = validator.EstimateTokens(prompt)
	}

	result := &ValidationResult{
		ID:             uuid.Must(uuid.NewV7()).String(),
		UploadID:       uploadID,
		Outcome:        outcome,
		IssueCount:     len(outcome.Issues),
		Suggestions:    strings.Join(outcome.Suggestions, "\n"),
		RawResponse:    res.Content,
		Model:          res.Model,
		InputTokens:    inputTokens,
		OutputTokens:   res.Usage.OutputTokens,
		ResponseTimeMs: elapsed.Milliseconds(),
		CreatedAt:      time.Now(),
	}

	if err := uc.results.Create(ctx, result); err != nil {
		return nil, err
	}

	uc.logger.Info("validation completed",
		zap.String("upload_id", upload.ID),
		zap.String("model", res.Model),
		zap.String("severity", outcome.Severity),
		zap.Int64("response_time_ms", result.ResponseTimeMs))

	return &ValidationOutput{Result: result, Cached: false}, nil
}

// LatestResult returns the newest stored result for the caller's upload
func (uc *ValidationUseCase) LatestResult(ctx context.Context, userID, uploadID string) (*ValidationResult, error) {
	if _, err := uc.uploads.GetByID(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	return uc.results.GetLatest(ctx, uploadID)
}

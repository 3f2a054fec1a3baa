package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/factory"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/types"
	"github.com/sheetlens/sheetlens-backend/internal/upload/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply    string
	err      error
	requests []types.SendRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) SendMessage(ctx context.Context, req types.SendRequest) (*types.SendResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &types.SendResponse{
		Content: p.reply,
		Model:   "fake-model-1",
		Usage:   types.Usage{InputTokens: 120, OutputTokens: 80},
	}, nil
}

type fakeValidationRepo struct {
	results map[string][]*ValidationResult
}

func newFakeValidationRepo() *fakeValidationRepo {
	return &fakeValidationRepo{results: make(map[string][]*ValidationResult)}
}

func (r *fakeValidationRepo) Create(ctx context.Context, result *ValidationResult) error {
	r.results[result.UploadID] = append(r.results[result.UploadID], result)
	return nil
}

func (r *fakeValidationRepo) GetLatest(ctx context.Context, uploadID string) (*ValidationResult, error) {
	list := r.results[uploadID]
	if len(list) == 0 {
		return nil, ErrValidationNotFound
	}
	latest := list[0]
	for _, res := range list[1:] {
		if res.CreatedAt.After(latest.CreatedAt) {
			latest = res
		}
	}
	return latest, nil
}

const validReply = `{"valid_rows": 2, "warning_rows": 0, "error_rows": 0, "issues": [], "summary": "Clean.", "suggestions": [], "severity": "low"}`

func seedCompletedUpload(t *testing.T, repo *fakeUploadRepo, userID string, rows [][]string) *Upload {
	t.Helper()

	upload := &Upload{
		ID:        "upload-1",
		UserID:    userID,
		Filename:  "scores.xlsx",
		Status:    StatusCompleted,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), upload))

	repo.previews[upload.ID] = []*SheetPreview{{
		ID:       "preview-1",
		UploadID: upload.ID,
		Index:    0,
		Name:     "Sheet1",
		Headers:  []string{"Name", "Score"},
		Rows:     rows,
		RowCount: len(rows),
	}}

	return upload
}

func newValidationUC(t *testing.T, uploads UploadRepo, results ValidationRepo, provider types.Provider) *ValidationUseCase {
	return NewValidationUseCase(uploads, results, factory.NewClient(provider), time.Hour, testLogger(t))
}

func TestValidateRunsModelAndStoresResult(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}, {"Bob", "85"}})

	uc := newValidationUC(t, uploads, results, provider)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, out.Result.Outcome.ValidRows)
	assert.Equal(t, "low", out.Result.Outcome.Severity)
	assert.Equal(t, "fake-model-1", out.Result.Model)
	assert.Equal(t, 120, out.Result.InputTokens)
	assert.Equal(t, 80, out.Result.OutputTokens)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, validator.SystemPrompt, provider.requests[0].System)
	assert.Contains(t, provider.requests[0].Prompt, "Sheet: Sheet1")
	assert.Contains(t, provider.requests[0].Prompt, "Row 1: {Name: Alice, Score: 90}")

	require.Len(t, results.results["upload-1"], 1)
}

func TestValidateFlattensIssueMetadata(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	reply := `{"valid_rows": 1, "warning_rows": 1, "error_rows": 0, "issues": [{"row": 2, "column": "Score", "issue": "missing value", "severity": "warning"}], "summary": "One gap.", "suggestions": ["Fill in row 2", "Add input validation"], "severity": "medium"}`
	provider := &fakeProvider{reply: reply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}, {"Bob", ""}})

	uc := newValidationUC(t, uploads, results, provider)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Result.IssueCount)
	assert.Equal(t, "Fill in row 2\nAdd input validation", out.Result.Suggestions)
}

func TestValidationCost(t *testing.T) {
	r := &ValidationResult{InputTokens: 1000, OutputTokens: 1000}
	assert.InDelta(t, 0.018, r.Cost(), 1e-9)

	assert.Zero(t, (&ValidationResult{}).Cost())
}

func TestValidateReturnsCachedResult(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, results, provider)

	first, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)

	second, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result.ID, second.Result.ID)
	assert.Len(t, provider.requests, 1)
}

func TestValidateForceBypassesCache(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, results, provider)

	_, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", true)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Len(t, provider.requests, 2)
	assert.Len(t, results.results["upload-1"], 2)
}

func TestValidateStaleResultReruns(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	results.results["upload-1"] = []*ValidationResult{{
		ID:        "stale",
		UploadID:  "upload-1",
		Outcome:   &validator.Outcome{},
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}}

	uc := newValidationUC(t, uploads, results, provider)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.NotEqual(t, "stale", out.Result.ID)
}

func TestValidateNoData(t *testing.T) {
	uploads := newFakeUploadRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", nil)

	uc := newValidationUC(t, uploads, newFakeValidationRepo(), provider)

	_, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	assert.ErrorIs(t, err, ErrValidationNoData)
	assert.Empty(t, provider.requests)
}

func TestValidateProviderFailure(t *testing.T) {
	uploads := newFakeUploadRepo()
	provider := &fakeProvider{err: errors.New("service unavailable")}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, newFakeValidationRepo(), provider)

	_, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateOwnershipReadsAsNotFound(t *testing.T) {
	uploads := newFakeUploadRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, newFakeValidationRepo(), provider)

	_, err := uc.Validate(context.Background(), "user-2", "upload-1", false)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestValidateUnparseableReplyFallsBack(t *testing.T) {
	uploads := newFakeUploadRepo()
	provider := &fakeProvider{reply: "I cannot produce JSON today."}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, newFakeValidationRepo(), provider)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)
	assert.Equal(t, validator.SeverityUnknown, out.Result.Outcome.Severity)
	assert.Equal(t, "I cannot produce JSON today.", out.Result.Outcome.Summary)
}

func TestLatestResult(t *testing.T) {
	uploads := newFakeUploadRepo()
	results := newFakeValidationRepo()
	provider := &fakeProvider{reply: validReply}
	seedCompletedUpload(t, uploads, "user-1", [][]string{{"Alice", "90"}})

	uc := newValidationUC(t, uploads, results, provider)

	_, err := uc.LatestResult(context.Background(), "user-1", "upload-1")
	assert.ErrorIs(t, err, ErrValidationNotFound)

	out, err := uc.Validate(context.Background(), "user-1", "upload-1", false)
	require.NoError(t, err)

	latest, err := uc.LatestResult(context.Background(), "user-1", "upload-1")
	require.NoError(t, err)
	assert.Equal(t, out.Result.ID, latest.ID)
}

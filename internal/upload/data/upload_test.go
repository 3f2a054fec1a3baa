package data

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
	"github.com/sheetlens/sheetlens-backend/internal/upload/validator"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&UploadPO{}, &SheetPreviewPO{}, &ValidationResultPO{}))

	log, err := logger.New(&logger.Config{
		Level:  "info",
		Format: "json",
		Output: "console",
	})
	require.NoError(t, err)

	return database.NewFromGorm(gdb, log)
}

func newTestUpload(userID, hash string) *biz.Upload {
	now := time.Now()
	return &biz.Upload{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      userID,
		Filename:    "report.xlsx",
		FileSize:    2048,
		FileHash:    hash,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		StorageKey:  "uploads/" + userID + "/report.xlsx",
		Status:      biz.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDeleteThenReuploadSameHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV7()).String()
	hash := "aa11bb22cc33dd44"

	first := newTestUpload(userID, hash)
	require.NoError(t, repo.Create(ctx, first))

	exists, err := repo.ExistsByHash(ctx, userID, hash)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, userID, first.ID))

	exists, err = repo.ExistsByHash(ctx, userID, hash)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deletion must fully vacate the (user_id, file_hash) unique index so
	// the same content can come back
	second := newTestUpload(userID, hash)
	assert.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByID(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, hash, got.FileHash)
}

func TestDeleteRemovesDependentRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	vrepo := NewValidationRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV7()).String()
	up := newTestUpload(userID, "ff00ff00ff00ff00")
	require.NoError(t, repo.Create(ctx, up))

	previews := []*biz.SheetPreview{{
		ID:       uuid.Must(uuid.NewV7()).String(),
		UploadID: up.ID,
		Index:    0,
		Name:     "Sheet1",
		Headers:  []string{"name", "email"},
		Rows:     [][]string{{"Ada", "ada@example.com"}},
		RowCount: 1,
	}}
	require.NoError(t, repo.IngestPreviews(ctx, up.ID, 1, previews))

	require.NoError(t, vrepo.Create(ctx, &biz.ValidationResult{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UploadID:  up.ID,
		Outcome:   &validator.Outcome{ValidRows: 1, Severity: "low"},
		Model:     "claude-sonnet",
		CreatedAt: time.Now(),
	}))

	require.NoError(t, repo.Delete(ctx, userID, up.ID))

	_, err := repo.GetSheet(ctx, up.ID, 0)
	assert.ErrorIs(t, err, biz.ErrSheetNotFound)

	_, err = vrepo.GetLatest(ctx, up.ID)
	assert.ErrorIs(t, err, biz.ErrValidationNotFound)
}

func TestDeleteWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	ctx := context.Background()

	owner := uuid.Must(uuid.NewV7()).String()
	up := newTestUpload(owner, "0123456789abcdef")
	require.NoError(t, repo.Create(ctx, up))

	err := repo.Delete(ctx, uuid.Must(uuid.NewV7()).String(), up.ID)
	assert.ErrorIs(t, err, biz.ErrUploadNotFound)

	// The record is untouched
	_, err = repo.GetByID(ctx, owner, up.ID)
	assert.NoError(t, err)
}

func TestHashScopePerUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	ctx := context.Background()

	hash := "5555666677778888"
	alice := uuid.Must(uuid.NewV7()).String()
	bob := uuid.Must(uuid.NewV7()).String()

	require.NoError(t, repo.Create(ctx, newTestUpload(alice, hash)))

	// A second copy for the same owner trips the unique index
	err := repo.Create(ctx, newTestUpload(alice, hash))
	assert.Error(t, err)

	// A different owner uploading the same content is fine
	assert.NoError(t, repo.Create(ctx, newTestUpload(bob, hash)))
}

func TestSheetCountSurvivesFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV7()).String()
	up := newTestUpload(userID, "deaddeaddeaddead")
	require.NoError(t, repo.Create(ctx, up))

	require.NoError(t, repo.SetSheetCount(ctx, up.ID, 3))
	require.NoError(t, repo.MarkFailed(ctx, up.ID, "row extraction failed"))

	got, err := repo.GetByID(ctx, userID, up.ID)
	require.NoError(t, err)
	assert.Equal(t, biz.StatusFailed, got.Status)
	assert.Equal(t, 3, got.SheetCount)
	assert.Equal(t, "row extraction failed", got.ErrorMessage)
}

func TestValidationResultRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUploadRepo(db)
	vrepo := NewValidationRepo(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV7()).String()
	up := newTestUpload(userID, "1234abcd1234abcd")
	require.NoError(t, repo.Create(ctx, up))

	outcome := &validator.Outcome{
		ValidRows:   9,
		ErrorRows:   1,
		Issues:      []validator.Issue{{Row: 2, Column: "email", Issue: "empty cell", Severity: "error"}},
		Summary:     "one row has a missing email",
		Suggestions: []string{"Fill in row 2"},
		Severity:    "medium",
	}
	require.NoError(t, vrepo.Create(ctx, &biz.ValidationResult{
		ID:             uuid.Must(uuid.NewV7()).String(),
		UploadID:       up.ID,
		Outcome:        outcome,
		IssueCount:     1,
		Suggestions:    "Fill in row 2",
		RawResponse:    `{"valid_rows": 9}`,
		Model:          "claude-sonnet",
		InputTokens:    1200,
		OutputTokens:   340,
		ResponseTimeMs: 870,
		CreatedAt:      time.Now(),
	}))

	got, err := vrepo.GetLatest(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IssueCount)
	assert.Equal(t, "Fill in row 2", got.Suggestions)
	assert.Equal(t, "medium", got.Outcome.Severity)
	assert.Len(t, got.Outcome.Issues, 1)
	assert.Equal(t, 1200, got.InputTokens)
}

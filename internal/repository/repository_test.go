package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations(filepath.Join("..", "..", "migrations")))

	return db
}

func newTestRequest() *entity.ChangeRequest {
	return &entity.ChangeRequest{
		RequestNumber:         "CR-2026-001",
		Title:                 "Replace cooling pump",
		Description:           "Pump P-101 is past end of life",
		Justification:         "Failure risk on the main loop",
		Status:                "draft",
		Priority:              entity.PriorityHigh,
		RequestedBy:           "u-alice",
		Department:            "Facilities",
		EstimatedCostImpact:   12000,
		EstimatedScheduleDays: 4,
		SubmissionTime:        time.Now().UTC(),
	}
}

func TestChangeRequestRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewChangeRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, repo.Create(ctx, request))
	require.NotZero(t, request.ID)

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "CR-2026-001", got.RequestNumber)
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, entity.PriorityHigh, got.Priority)
	assert.Equal(t, 12000.0, got.EstimatedCostImpact)
}

func TestChangeRequestRepository_GetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewChangeRequestRepository(db, zap.NewNop())

	_, err := repo.GetByID(context.Background(), 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestChangeRequestRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewChangeRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, repo.Create(ctx, request))

	require.NoError(t, repo.UpdateStatus(ctx, request.ID, "validation"))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "validation", got.Status)
}

func TestChangeRequestRepository_GetByRequestNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewChangeRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, repo.Create(ctx, request))

	got, err := repo.GetByRequestNumber(ctx, "CR-2026-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, request.ID, got.ID)

	missing, err := repo.GetByRequestNumber(ctx, "CR-2026-999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChangeRequestRepository_UpdateActuals(t *testing.T) {
	db := newTestDB(t)
	repo := NewChangeRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, repo.Create(ctx, request))

	require.NoError(t, repo.UpdateActuals(ctx, request.ID, 13500.50, 6))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 13500.50, got.ActualCostImpact)
	assert.Equal(t, 6, got.ActualScheduleDays)
}

func TestApprovalRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	requestRepo := NewChangeRequestRepository(db, zap.NewNop())
	approvalRepo := NewApprovalRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, requestRepo.Create(ctx, request))

	record := &entity.ApprovalRecord{
		RequestID:    request.ID,
		ApproverName: "bob",
		ApproverRole: "Project Manager",
		StepNumber:   1,
		DueDate:      time.Now().Add(48 * time.Hour).UTC(),
		Status:       entity.ApprovalStatusPending,
	}
	require.NoError(t, approvalRepo.Create(ctx, record))

	require.NoError(t, approvalRepo.UpdateStatus(ctx, record.ID, entity.ApprovalStatusApproved, "looks good"))

	records, err := approvalRepo.GetByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.ApprovalStatusApproved, records[0].Status)
	assert.Equal(t, "looks good", records[0].Comment)
	assert.NotNil(t, records[0].DecidedAt)
}

func TestHistoryRepository_OrderedTrail(t *testing.T) {
	db := newTestDB(t)
	requestRepo := NewChangeRequestRepository(db, zap.NewNop())
	historyRepo := NewHistoryRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, requestRepo.Create(ctx, request))

	steps := [][2]string{
		{"draft", "validation"},
		{"validation", "analysis"},
	}
	for _, step := range steps {
		require.NoError(t, historyRepo.Create(ctx, &entity.ChangeHistory{
			RequestID:      request.ID,
			PreviousStatus: step[0],
			NewStatus:      step[1],
			Action:         "advance",
			ActorID:        "u-alice",
			ActionData:     "{}",
		}))
	}

	trail, err := historyRepo.GetByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "validation", trail[0].NewStatus)
	assert.Equal(t, "analysis", trail[1].NewStatus)
}

func TestAnalysisRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	requestRepo := NewChangeRequestRepository(db, zap.NewNop())
	analysisRepo := NewAnalysisRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, requestRepo.Create(ctx, request))

	analysis := &entity.ImpactAnalysis{
		RequestID:           request.ID,
		TotalCostImpact:     15000,
		ScheduleImpactDays:  6,
		AffectsCriticalPath: true,
		AffectedWorkItems:   []string{"WBS-1.2", "WBS-1.3"},
		Summary:             "Pump replacement pushes commissioning",
		RiskNotes:           []string{"long lead time on impeller"},
		PreparedBy:          "u-carol",
	}
	require.NoError(t, analysisRepo.Create(ctx, analysis))

	got, err := analysisRepo.GetLatestByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AffectsCriticalPath)
	assert.Equal(t, []string{"WBS-1.2", "WBS-1.3"}, got.AffectedWorkItems)
	assert.Equal(t, []string{"long lead time on impeller"}, got.RiskNotes)
}

func TestAnalysisRepository_MissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	analysisRepo := NewAnalysisRepository(db, zap.NewNop())

	got, err := analysisRepo.GetLatestByRequestID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	requestRepo := NewChangeRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	request := newTestRequest()
	require.NoError(t, requestRepo.Create(ctx, request))

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := requestRepo.UpdateStatus(ctx, request.ID, "validation"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	got, err := requestRepo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status, "rolled back update must not be visible")
}

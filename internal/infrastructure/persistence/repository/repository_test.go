package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/adityarama/procurement-engine/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run(filepath.Join("..", "..", "..", "..", "migrations")))
	return db
}

func newDefinition(code string, version int, active bool) *entity.WorkflowDefinition {
	return &entity.WorkflowDefinition{
		Code:     code,
		Version:  version,
		Name:     "Procurement Approval",
		IsActive: active,
		Steps: []*entity.StepTemplate{
			{StepNumber: 1, Title: "PPK Review", AssigneeSpec: "PPK"},
			{StepNumber: 2, Title: "KPA Approval", AssigneeSpec: `["KPA"]`, IsLast: true},
		},
	}
}

func TestActivateSwapsActiveVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDefinitionRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDefinition("PROCUREMENT_APPROVAL", 1, true)))
	require.NoError(t, repo.Create(ctx, newDefinition("PROCUREMENT_APPROVAL", 2, false)))

	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.DeactivateAll(txCtx, "PROCUREMENT_APPROVAL"); err != nil {
			return err
		}
		rows, err := repo.Activate(txCtx, "PROCUREMENT_APPROVAL", 2)
		if err != nil {
			return err
		}
		require.Equal(t, int64(1), rows)
		return nil
	})
	require.NoError(t, err)

	active, err := repo.GetActiveByCode(ctx, "PROCUREMENT_APPROVAL")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Version)
	assert.Len(t, active.Steps, 2)

	var activeCount int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM workflow_definitions WHERE code = ? AND is_active",
		"PROCUREMENT_APPROVAL",
	).Scan(&activeCount)
	require.NoError(t, err)
	assert.Equal(t, 1, activeCount)
}

func TestActivateUnknownVersionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDefinitionRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDefinition("PROCUREMENT_APPROVAL", 1, true)))

	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.DeactivateAll(txCtx, "PROCUREMENT_APPROVAL"); err != nil {
			return err
		}
		rows, err := repo.Activate(txCtx, "PROCUREMENT_APPROVAL", 99)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("version not found: %w", workflow.ErrNotFound)
		}
		return nil
	})
	require.ErrorIs(t, err, workflow.ErrNotFound)

	// The deactivation must have rolled back with the failed activation
	active, err := repo.GetActiveByCode(ctx, "PROCUREMENT_APPROVAL")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1, active.Version)
}

func TestReactivationLeavesPinnedInstanceUntouched(t *testing.T) {
	db := setupTestDB(t)
	defRepo := NewDefinitionRepository(db, zap.NewNop())
	instRepo := NewInstanceRepository(db, zap.NewNop())
	stepRepo := NewStepRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, defRepo.Create(ctx, newDefinition("PROCUREMENT_APPROVAL", 1, true)))
	require.NoError(t, defRepo.Create(ctx, newDefinition("PROCUREMENT_APPROVAL", 2, false)))

	// Instance pinned to version 1 with its steps already materialized
	instance := createInstance(t, db, workflow.InstanceInProgress)
	step := createStep(t, db, instance.ID, 1, `["user-ppk-1"]`, workflow.StepPending)

	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := defRepo.DeactivateAll(txCtx, "PROCUREMENT_APPROVAL"); err != nil {
			return err
		}
		_, err := defRepo.Activate(txCtx, "PROCUREMENT_APPROVAL", 2)
		return err
	})
	require.NoError(t, err)

	active, err := defRepo.GetActiveByCode(ctx, "PROCUREMENT_APPROVAL")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Version)

	// The in-flight instance still carries the version it was created under
	got, err := instRepo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.DefinitionVersion)
	assert.Equal(t, workflow.InstanceInProgress, got.Status)

	steps, err := stepRepo.GetByInstanceID(ctx, instance.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, step.AssignedTo, steps[0].AssignedTo)
	assert.Equal(t, workflow.StepPending, steps[0].Status)
}

func TestGetActiveByCodeNone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDefinitionRepository(db, zap.NewNop())

	require.NoError(t, repo.Create(context.Background(), newDefinition("PROCUREMENT_APPROVAL", 1, false)))

	active, err := repo.GetActiveByCode(context.Background(), "PROCUREMENT_APPROVAL")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCreateCaseDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db, zap.NewNop())
	ctx := context.Background()

	first := &entity.ProcurementCase{
		ID:        uuid.NewString(),
		CaseCode:  "PROC-2024-000001",
		Title:     "Laptops",
		CreatedBy: "user-ppk-1",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, first))

	second := &entity.ProcurementCase{
		ID:        uuid.NewString(),
		CaseCode:  "PROC-2024-000001",
		Title:     "Desks",
		CreatedBy: "user-ppk-2",
		CreatedAt: time.Now().UTC(),
	}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, workflow.ErrDuplicateCode)
}

func TestCountCreatedBetween(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db, zap.NewNop())
	ctx := context.Background()

	inside := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
	outside := time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{inside, inside.AddDate(0, 1, 0), outside} {
		require.NoError(t, repo.Create(ctx, &entity.ProcurementCase{
			ID:        uuid.NewString(),
			CaseCode:  fmt.Sprintf("PROC-TEST-%06d", i+1),
			Title:     "Case",
			CreatedBy: "user-ppk-1",
			CreatedAt: at,
		}))
	}

	yearStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	count, err := repo.CountCreatedBetween(ctx, yearStart, yearStart.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func createInstance(t *testing.T, db *database.DB, status workflow.InstanceStatus) *entity.WorkflowInstance {
	t.Helper()
	instance := &entity.WorkflowInstance{
		ID:                uuid.NewString(),
		DefinitionCode:    "PROCUREMENT_APPROVAL",
		DefinitionVersion: 1,
		CaseID:            uuid.NewString(),
		Status:            status,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, NewInstanceRepository(db, zap.NewNop()).Create(context.Background(), instance))
	return instance
}

func createStep(t *testing.T, db *database.DB, instanceID string, number int, assignedTo string, status workflow.StepStatus) *entity.StepInstance {
	t.Helper()
	step := &entity.StepInstance{
		ID:         uuid.NewString(),
		InstanceID: instanceID,
		StepNumber: number,
		Title:      "Review",
		AssignedTo: assignedTo,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, NewStepRepository(db, zap.NewNop()).Create(context.Background(), step))
	return step
}

func TestCountPendingForUserBothEncodings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	running := createInstance(t, db, workflow.InstanceInProgress)
	finished := createInstance(t, db, workflow.InstanceCompleted)

	// Legacy bare id and JSON array rows both match; each exactly once
	createStep(t, db, running.ID, 1, "user-1", workflow.StepPending)
	createStep(t, db, running.ID, 2, `["user-1","user-2"]`, workflow.StepPending)
	createStep(t, db, running.ID, 3, `["user-2"]`, workflow.StepPending)
	createStep(t, db, running.ID, 4, `["user-1"]`, workflow.StepApproved)
	createStep(t, db, finished.ID, 1, "user-1", workflow.StepPending)

	repo := NewStepRepository(db, zap.NewNop())

	count, err := repo.CountPendingForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountPendingForUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountPendingForUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStepCompleteRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	running := createInstance(t, db, workflow.InstanceInProgress)
	step := createStep(t, db, running.ID, 1, `["user-1"]`, workflow.StepPending)

	repo := NewStepRepository(db, zap.NewNop())
	at := time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Complete(ctx, step.ID, workflow.StepApproved, "user-1", at))

	got, err := repo.GetByID(ctx, step.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, workflow.StepApproved, got.Status)
	assert.Equal(t, "user-1", got.ApproverID)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(at))
}

func createNotification(t *testing.T, db *database.DB, recipientType, recipientID string) *entity.Notification {
	t.Helper()
	n := &entity.Notification{
		ID:            uuid.NewString(),
		RecipientType: recipientType,
		RecipientID:   recipientID,
		Subject:       "Approval needed",
		Body:          "A step is waiting for you",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, NewNotificationRepository(db, zap.NewNop()).Create(context.Background(), n))
	return n
}

func TestCountUnreadTargeting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db, zap.NewNop())

	createNotification(t, db, entity.RecipientUser, "user-1")
	createNotification(t, db, entity.RecipientUser, "user-2")
	createNotification(t, db, entity.RecipientRole, "KPA")
	createNotification(t, db, entity.RecipientRole, "PPK")

	read := createNotification(t, db, entity.RecipientUser, "user-1")
	require.NoError(t, repo.MarkRead(ctx, read.ID, time.Now().UTC()))

	archived := createNotification(t, db, entity.RecipientRole, "KPA")
	require.NoError(t, repo.Archive(ctx, archived.ID, time.Now().UTC()))

	// Direct row plus the KPA role row; read and archived excluded
	count, err := repo.CountUnread(ctx, "user-1", []string{"KPA"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountUnread(ctx, "user-3", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db, zap.NewNop())

	n := createNotification(t, db, entity.RecipientUser, "user-1")
	first := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRead(ctx, n.ID, first))
	require.NoError(t, repo.MarkRead(ctx, n.ID, first.Add(time.Hour)))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(first))
}

func TestRoleMembers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, row := range [][2]string{
		{"KPA", "user-kpa-1"},
		{"KPA", "user-kpa-2"},
		{"PPK", "user-ppk-1"},
	} {
		_, err := db.Exec("INSERT INTO role_members (role_code, user_id) VALUES (?, ?)", row[0], row[1])
		require.NoError(t, err)
	}

	repo := NewRoleMemberRepository(db, zap.NewNop())
	members, err := repo.MembersOf(ctx, "KPA")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-kpa-1", "user-kpa-2"}, members)

	members, err = repo.MembersOf(ctx, "UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, members)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/adityarama/procurement-engine/pkg/database"
	"go.uber.org/zap"
)

// StepRepository implements port.StepRepository
type StepRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *database.DB, logger *zap.Logger) port.StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new step instance
func (r *StepRepository) Create(ctx context.Context, step *entity.StepInstance) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO step_instances (id, instance_id, step_number, title, assigned_to, is_last, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		step.ID,
		step.InstanceID,
		step.StepNumber,
		step.Title,
		step.AssignedTo,
		step.IsLast,
		step.Status.String(),
		step.CreatedAt,
		step.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create step instance",
			zap.String("instance_id", step.InstanceID),
			zap.Int("step_number", step.StepNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create step instance: %w", err)
	}
	return nil
}

// GetByID retrieves a step instance by its id
func (r *StepRepository) GetByID(ctx context.Context, id string) (*entity.StepInstance, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, instance_id, step_number, title, assigned_to, is_last, status, approver_id, approved_at, created_at, updated_at
		FROM step_instances
		WHERE id = ?
	`, id)

	step, err := scanStep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get step instance", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get step instance: %w", err)
	}
	return step, nil
}

// GetByInstanceID returns all steps of an instance ordered by step number
func (r *StepRepository) GetByInstanceID(ctx context.Context, instanceID string) ([]*entity.StepInstance, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, instance_id, step_number, title, assigned_to, is_last, status, approver_id, approved_at, created_at, updated_at
		FROM step_instances
		WHERE instance_id = ?
		ORDER BY step_number
	`, instanceID)
	if err != nil {
		r.logger.Error("Failed to get step instances",
			zap.String("instance_id", instanceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get step instances: %w", err)
	}
	defer rows.Close()

	var steps []*entity.StepInstance
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step instance: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Complete moves a step to a terminal status recording who acted and when
func (r *StepRepository) Complete(ctx context.Context, id string, status workflow.StepStatus, approverID string, at time.Time) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE step_instances
		SET status = ?, approver_id = ?, approved_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status.String(), approverID, at, id)
	if err != nil {
		r.logger.Error("Failed to complete step instance",
			zap.String("id", id),
			zap.String("status", status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to complete step instance: %w", err)
	}
	return nil
}

// CountPendingForUser counts PENDING steps of IN_PROGRESS instances whose
// assigned_to contains the user. Two textual encodings of assigned_to exist
// in historical data (bare user id and JSON array), so the predicate tests
// both; a row matches exactly once.
func (r *StepRepository) CountPendingForUser(ctx context.Context, userID string) (int, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM step_instances s
		JOIN workflow_instances i ON i.id = s.instance_id
		WHERE s.status = ?
		  AND i.status = ?
		  AND (s.assigned_to = ? OR (json_valid(s.assigned_to) AND EXISTS (
			SELECT 1 FROM json_each(s.assigned_to) WHERE json_each.value = ?
		  )))
	`, workflow.StepPending.String(), workflow.InstanceInProgress.String(), userID, userID)

	var count int
	if err := row.Scan(&count); err != nil {
		r.logger.Error("Failed to count pending steps",
			zap.String("user_id", userID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count pending steps: %w", err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for step scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStep(row scanner) (*entity.StepInstance, error) {
	var step entity.StepInstance
	var status string
	var approverID sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&step.ID,
		&step.InstanceID,
		&step.StepNumber,
		&step.Title,
		&step.AssignedTo,
		&step.IsLast,
		&status,
		&approverID,
		&approvedAt,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	step.Status = workflow.StepStatus(status)
	if approverID.Valid {
		step.ApproverID = approverID.String
	}
	if approvedAt.Valid {
		step.ApprovedAt = &approvedAt.Time
	}
	return &step, nil
}

// Verify interface compliance
var _ port.StepRepository = (*StepRepository)(nil)

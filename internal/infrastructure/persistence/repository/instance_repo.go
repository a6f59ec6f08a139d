package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/adityarama/procurement-engine/pkg/database"
	"go.uber.org/zap"
)

// InstanceRepository implements port.InstanceRepository
type InstanceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *database.DB, logger *zap.Logger) port.InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new workflow instance
func (r *InstanceRepository) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO workflow_instances (id, definition_code, definition_version, case_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		instance.ID,
		instance.DefinitionCode,
		instance.DefinitionVersion,
		instance.CaseID,
		instance.Status.String(),
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow instance",
			zap.String("id", instance.ID),
			zap.String("definition_code", instance.DefinitionCode),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow instance: %w", err)
	}
	return nil
}

// GetByID retrieves an instance by its id
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowInstance, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, definition_code, definition_version, case_id, status, created_at, updated_at
		FROM workflow_instances
		WHERE id = ?
	`, id)

	var instance entity.WorkflowInstance
	var status string
	err := row.Scan(
		&instance.ID,
		&instance.DefinitionCode,
		&instance.DefinitionVersion,
		&instance.CaseID,
		&status,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow instance", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow instance: %w", err)
	}
	instance.Status = workflow.InstanceStatus(status)
	return &instance, nil
}

// UpdateStatus moves an instance to a new status
func (r *InstanceRepository) UpdateStatus(ctx context.Context, id string, status workflow.InstanceStatus) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE workflow_instances SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status.String(), id)
	if err != nil {
		r.logger.Error("Failed to update instance status",
			zap.String("id", id),
			zap.String("status", status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update instance status: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.InstanceRepository = (*InstanceRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/pkg/database"
	"go.uber.org/zap"
)

// DefinitionRepository implements port.DefinitionRepository
type DefinitionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDefinitionRepository creates a new definition repository
func NewDefinitionRepository(db *database.DB, logger *zap.Logger) port.DefinitionRepository {
	return &DefinitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a definition together with its step templates
func (r *DefinitionRepository) Create(ctx context.Context, def *entity.WorkflowDefinition) error {
	ex := r.db.Executor(ctx)

	result, err := ex.ExecContext(ctx, `
		INSERT INTO workflow_definitions (code, version, name, is_active)
		VALUES (?, ?, ?, ?)
	`, def.Code, def.Version, def.Name, def.IsActive)
	if err != nil {
		r.logger.Error("Failed to create workflow definition",
			zap.String("code", def.Code),
			zap.Int("version", def.Version),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow definition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	def.ID = id

	for _, step := range def.Steps {
		step.DefinitionID = id
		_, err := ex.ExecContext(ctx, `
			INSERT INTO step_templates (definition_id, step_number, title, assignee_spec, is_last)
			VALUES (?, ?, ?, ?, ?)
		`, id, step.StepNumber, step.Title, step.AssigneeSpec, step.IsLast)
		if err != nil {
			r.logger.Error("Failed to create step template",
				zap.Int64("definition_id", id),
				zap.Int("step_number", step.StepNumber),
				zap.Error(err))
			return fmt.Errorf("failed to create step template: %w", err)
		}
	}
	return nil
}

// GetByCodeAndVersion retrieves one version of a definition with its steps
func (r *DefinitionRepository) GetByCodeAndVersion(ctx context.Context, code string, version int) (*entity.WorkflowDefinition, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, code, version, name, is_active, created_at
		FROM workflow_definitions
		WHERE code = ? AND version = ?
	`, code, version)

	def, err := r.scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow definition",
			zap.String("code", code),
			zap.Int("version", version),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow definition: %w", err)
	}

	if err := r.loadSteps(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// GetActiveByCode retrieves the active version of a code, straight from
// storage, with its steps
func (r *DefinitionRepository) GetActiveByCode(ctx context.Context, code string) (*entity.WorkflowDefinition, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, code, version, name, is_active, created_at
		FROM workflow_definitions
		WHERE code = ? AND is_active = TRUE
	`, code)

	def, err := r.scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get active workflow definition",
			zap.String("code", code),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active workflow definition: %w", err)
	}

	if err := r.loadSteps(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// DeactivateAll clears the active flag on every version of a code
func (r *DefinitionRepository) DeactivateAll(ctx context.Context, code string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE workflow_definitions SET is_active = FALSE WHERE code = ?
	`, code)
	if err != nil {
		r.logger.Error("Failed to deactivate workflow definitions",
			zap.String("code", code),
			zap.Error(err))
		return fmt.Errorf("failed to deactivate workflow definitions: %w", err)
	}
	return nil
}

// Activate sets the active flag on one version and reports rows affected
func (r *DefinitionRepository) Activate(ctx context.Context, code string, version int) (int64, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE workflow_definitions SET is_active = TRUE WHERE code = ? AND version = ?
	`, code, version)
	if err != nil {
		r.logger.Error("Failed to activate workflow definition",
			zap.String("code", code),
			zap.Int("version", version),
			zap.Error(err))
		return 0, fmt.Errorf("failed to activate workflow definition: %w", err)
	}
	return result.RowsAffected()
}

func (r *DefinitionRepository) scanDefinition(row *sql.Row) (*entity.WorkflowDefinition, error) {
	var def entity.WorkflowDefinition
	err := row.Scan(&def.ID, &def.Code, &def.Version, &def.Name, &def.IsActive, &def.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *DefinitionRepository) loadSteps(ctx context.Context, def *entity.WorkflowDefinition) error {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, definition_id, step_number, title, assignee_spec, is_last
		FROM step_templates
		WHERE definition_id = ?
		ORDER BY step_number
	`, def.ID)
	if err != nil {
		r.logger.Error("Failed to load step templates",
			zap.Int64("definition_id", def.ID),
			zap.Error(err))
		return fmt.Errorf("failed to load step templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step entity.StepTemplate
		if err := rows.Scan(&step.ID, &step.DefinitionID, &step.StepNumber, &step.Title, &step.AssigneeSpec, &step.IsLast); err != nil {
			return fmt.Errorf("failed to scan step template: %w", err)
		}
		def.Steps = append(def.Steps, &step)
	}
	return rows.Err()
}

// Verify interface compliance
var _ port.DefinitionRepository = (*DefinitionRepository)(nil)

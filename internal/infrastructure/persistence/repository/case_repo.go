package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/adityarama/procurement-engine/pkg/database"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// CaseRepository implements port.CaseRepository
type CaseRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *database.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new procurement case. A unique-constraint violation on
// case_code is classified as the retryable ErrDuplicateCode.
func (r *CaseRepository) Create(ctx context.Context, c *entity.ProcurementCase) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO procurement_cases (id, case_code, title, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.CaseCode, c.Title, c.CreatedBy, c.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			r.logger.Warn("Case code collision",
				zap.String("case_code", c.CaseCode))
			return fmt.Errorf("case code %s: %w", c.CaseCode, workflow.ErrDuplicateCode)
		}
		r.logger.Error("Failed to create procurement case",
			zap.String("case_code", c.CaseCode),
			zap.Error(err))
		return fmt.Errorf("failed to create procurement case: %w", err)
	}
	return nil
}

// GetByID retrieves a case by its id
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*entity.ProcurementCase, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, case_code, title, created_by, created_at
		FROM procurement_cases
		WHERE id = ?
	`, id)

	var c entity.ProcurementCase
	err := row.Scan(&c.ID, &c.CaseCode, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get procurement case", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get procurement case: %w", err)
	}
	return &c, nil
}

// CountCreatedBetween counts cases with created_at in [from, to)
func (r *CaseRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM procurement_cases WHERE created_at >= ? AND created_at < ?
	`, from, to)

	var count int
	if err := row.Scan(&count); err != nil {
		r.logger.Error("Failed to count procurement cases", zap.Error(err))
		return 0, fmt.Errorf("failed to count procurement cases: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.CaseRepository = (*CaseRepository)(nil)

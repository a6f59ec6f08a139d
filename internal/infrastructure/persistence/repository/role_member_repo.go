package repository

import (
	"context"
	"fmt"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/pkg/database"
	"go.uber.org/zap"
)

// RoleMemberRepository implements port.RoleMemberRepository against the
// role membership master data.
type RoleMemberRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRoleMemberRepository creates a new role member repository
func NewRoleMemberRepository(db *database.DB, logger *zap.Logger) port.RoleMemberRepository {
	return &RoleMemberRepository{
		db:     db,
		logger: logger,
	}
}

// MembersOf returns the user ids holding a role. An unknown role yields an
// empty set, not an error; emptiness is judged by the caller.
func (r *RoleMemberRepository) MembersOf(ctx context.Context, roleCode string) ([]string, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT user_id FROM role_members WHERE role_code = ? ORDER BY user_id
	`, roleCode)
	if err != nil {
		r.logger.Error("Failed to query role members",
			zap.String("role_code", roleCode),
			zap.Error(err))
		return nil, fmt.Errorf("failed to query role members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan role member: %w", err)
		}
		members = append(members, userID)
	}
	return members, rows.Err()
}

// Verify interface compliance
var _ port.RoleMemberRepository = (*RoleMemberRepository)(nil)

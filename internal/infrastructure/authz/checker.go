// Package authz provides the in-process permission checker. Policy storage
// proper lives outside this system; the engine only consumes the check.
package authz

import (
	"context"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"go.uber.org/zap"
)

// RolePermissionChecker grants actions to roles from a static map loaded
// out of configuration. A "*" role grants the action to any session.
type RolePermissionChecker struct {
	grants map[string][]string
	logger *zap.Logger
}

// NewRolePermissionChecker creates a checker from an action-to-roles map
func NewRolePermissionChecker(grants map[string][]string, logger *zap.Logger) *RolePermissionChecker {
	return &RolePermissionChecker{
		grants: grants,
		logger: logger,
	}
}

// HasPermission reports whether the session on ctx may perform the action
func (c *RolePermissionChecker) HasPermission(ctx context.Context, action, resource string) bool {
	session, ok := port.SessionFromContext(ctx)
	if !ok {
		return false
	}

	for _, role := range c.grants[action] {
		if role == "*" || session.HasRole(role) {
			return true
		}
	}

	c.logger.Debug("Permission denied",
		zap.String("action", action),
		zap.String("resource", resource),
		zap.String("user_id", session.UserID))
	return false
}

// Verify interface compliance
var _ port.PermissionChecker = (*RolePermissionChecker)(nil)

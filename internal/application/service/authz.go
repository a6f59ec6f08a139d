package service

import (
	"context"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
)

// Permission actions consumed from the external checker
const (
	ActionDefinitionCreate   = "workflow:definition:create"
	ActionDefinitionActivate = "workflow:definition:activate"
	ActionInstanceCreate     = "workflow:instance:create"
	ActionInstanceCancel     = "workflow:instance:cancel"
	ActionStepTransition     = "workflow:step:transition"
	ActionCaseCreate         = "case:create"
)

// authorize verifies a session is present and the permission checker allows
// the action. It runs before any transaction opens.
func authorize(ctx context.Context, checker port.PermissionChecker, action, resource string) (*port.Session, error) {
	session, ok := port.SessionFromContext(ctx)
	if !ok {
		return nil, workflow.ErrUnauthorized
	}
	if !checker.HasPermission(ctx, action, resource) {
		return nil, workflow.ErrForbidden
	}
	return session, nil
}

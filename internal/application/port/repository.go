package port

import (
	"context"
	"time"

	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
)

// DefinitionRepository defines persistence operations for WorkflowDefinition
type DefinitionRepository interface {
	// Create inserts a definition together with its step templates
	Create(ctx context.Context, def *entity.WorkflowDefinition) error

	// GetByCodeAndVersion retrieves one version of a definition, steps included
	GetByCodeAndVersion(ctx context.Context, code string, version int) (*entity.WorkflowDefinition, error)

	// GetActiveByCode retrieves the currently active version of a code,
	// steps included. Always reads storage fresh; never cached.
	GetActiveByCode(ctx context.Context, code string) (*entity.WorkflowDefinition, error)

	// DeactivateAll clears the active flag on every version of a code
	DeactivateAll(ctx context.Context, code string) error

	// Activate sets the active flag on one (code, version) row and returns
	// the number of rows affected
	Activate(ctx context.Context, code string, version int) (int64, error)
}

// InstanceRepository defines persistence operations for WorkflowInstance
type InstanceRepository interface {
	Create(ctx context.Context, instance *entity.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*entity.WorkflowInstance, error)
	UpdateStatus(ctx context.Context, id string, status workflow.InstanceStatus) error
}

// StepRepository defines persistence operations for StepInstance
type StepRepository interface {
	Create(ctx context.Context, step *entity.StepInstance) error
	GetByID(ctx context.Context, id string) (*entity.StepInstance, error)

	// GetByInstanceID returns all steps of an instance ordered by step number
	GetByInstanceID(ctx context.Context, instanceID string) ([]*entity.StepInstance, error)

	// Complete moves a step to a terminal status recording who acted and when
	Complete(ctx context.Context, id string, status workflow.StepStatus, approverID string, at time.Time) error

	// CountPendingForUser counts PENDING steps of IN_PROGRESS instances whose
	// assigned_to contains the user in either historical encoding
	CountPendingForUser(ctx context.Context, userID string) (int, error)
}

// CaseRepository defines persistence operations for ProcurementCase
type CaseRepository interface {
	Create(ctx context.Context, c *entity.ProcurementCase) error
	GetByID(ctx context.Context, id string) (*entity.ProcurementCase, error)

	// CountCreatedBetween counts cases with created_at in [from, to)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	Archive(ctx context.Context, id string, at time.Time) error

	// CountUnread counts unread, unarchived notifications targeted at the
	// user directly or at any of the given roles
	CountUnread(ctx context.Context, userID string, roles []string) (int, error)
}

// RoleMemberRepository resolves role codes to member user ids
type RoleMemberRepository interface {
	MembersOf(ctx context.Context, roleCode string) ([]string, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether ctx already carries an open transaction
	InTransaction(ctx context.Context) bool
}

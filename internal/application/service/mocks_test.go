package service

import (
	"context"
	"time"

	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
)

// Mock repositories in the function-field style: each method delegates to
// an optional func so tests override only what they care about.

type mockDefinitionRepo struct {
	createFunc              func(ctx context.Context, def *entity.WorkflowDefinition) error
	getByCodeAndVersionFunc func(ctx context.Context, code string, version int) (*entity.WorkflowDefinition, error)
	getActiveByCodeFunc     func(ctx context.Context, code string) (*entity.WorkflowDefinition, error)
	deactivateAllFunc       func(ctx context.Context, code string) error
	activateFunc            func(ctx context.Context, code string, version int) (int64, error)
}

func (m *mockDefinitionRepo) Create(ctx context.Context, def *entity.WorkflowDefinition) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, def)
	}
	def.ID = 1
	return nil
}

func (m *mockDefinitionRepo) GetByCodeAndVersion(ctx context.Context, code string, version int) (*entity.WorkflowDefinition, error) {
	if m.getByCodeAndVersionFunc != nil {
		return m.getByCodeAndVersionFunc(ctx, code, version)
	}
	return nil, nil
}

func (m *mockDefinitionRepo) GetActiveByCode(ctx context.Context, code string) (*entity.WorkflowDefinition, error) {
	if m.getActiveByCodeFunc != nil {
		return m.getActiveByCodeFunc(ctx, code)
	}
	return nil, nil
}

func (m *mockDefinitionRepo) DeactivateAll(ctx context.Context, code string) error {
	if m.deactivateAllFunc != nil {
		return m.deactivateAllFunc(ctx, code)
	}
	return nil
}

func (m *mockDefinitionRepo) Activate(ctx context.Context, code string, version int) (int64, error) {
	if m.activateFunc != nil {
		return m.activateFunc(ctx, code, version)
	}
	return 1, nil
}

type mockInstanceRepo struct {
	createFunc       func(ctx context.Context, instance *entity.WorkflowInstance) error
	getByIDFunc      func(ctx context.Context, id string) (*entity.WorkflowInstance, error)
	updateStatusFunc func(ctx context.Context, id string, status workflow.InstanceStatus) error
}

func (m *mockInstanceRepo) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, instance)
	}
	return nil
}

func (m *mockInstanceRepo) GetByID(ctx context.Context, id string) (*entity.WorkflowInstance, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInstanceRepo) UpdateStatus(ctx context.Context, id string, status workflow.InstanceStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

type mockStepRepo struct {
	createFunc              func(ctx context.Context, step *entity.StepInstance) error
	getByIDFunc             func(ctx context.Context, id string) (*entity.StepInstance, error)
	getByInstanceIDFunc     func(ctx context.Context, instanceID string) ([]*entity.StepInstance, error)
	completeFunc            func(ctx context.Context, id string, status workflow.StepStatus, approverID string, at time.Time) error
	countPendingForUserFunc func(ctx context.Context, userID string) (int, error)
}

func (m *mockStepRepo) Create(ctx context.Context, step *entity.StepInstance) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, step)
	}
	return nil
}

func (m *mockStepRepo) GetByID(ctx context.Context, id string) (*entity.StepInstance, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockStepRepo) GetByInstanceID(ctx context.Context, instanceID string) ([]*entity.StepInstance, error) {
	if m.getByInstanceIDFunc != nil {
		return m.getByInstanceIDFunc(ctx, instanceID)
	}
	return nil, nil
}

func (m *mockStepRepo) Complete(ctx context.Context, id string, status workflow.StepStatus, approverID string, at time.Time) error {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, status, approverID, at)
	}
	return nil
}

func (m *mockStepRepo) CountPendingForUser(ctx context.Context, userID string) (int, error) {
	if m.countPendingForUserFunc != nil {
		return m.countPendingForUserFunc(ctx, userID)
	}
	return 0, nil
}

type mockCaseRepo struct {
	createFunc              func(ctx context.Context, c *entity.ProcurementCase) error
	getByIDFunc             func(ctx context.Context, id string) (*entity.ProcurementCase, error)
	countCreatedBetweenFunc func(ctx context.Context, from, to time.Time) (int, error)
}

func (m *mockCaseRepo) Create(ctx context.Context, c *entity.ProcurementCase) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	return nil
}

func (m *mockCaseRepo) GetByID(ctx context.Context, id string) (*entity.ProcurementCase, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCaseRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	if m.countCreatedBetweenFunc != nil {
		return m.countCreatedBetweenFunc(ctx, from, to)
	}
	return 0, nil
}

type mockNotificationRepo struct {
	createFunc      func(ctx context.Context, n *entity.Notification) error
	getByIDFunc     func(ctx context.Context, id string) (*entity.Notification, error)
	markReadFunc    func(ctx context.Context, id string, at time.Time) error
	archiveFunc     func(ctx context.Context, id string, at time.Time) error
	countUnreadFunc func(ctx context.Context, userID string, roles []string) (int, error)

	created []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, at)
	}
	return nil
}

func (m *mockNotificationRepo) Archive(ctx context.Context, id string, at time.Time) error {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, id, at)
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string, roles []string) (int, error) {
	if m.countUnreadFunc != nil {
		return m.countUnreadFunc(ctx, userID, roles)
	}
	return 0, nil
}

type mockRoleMemberRepo struct {
	members map[string][]string
}

func (m *mockRoleMemberRepo) MembersOf(ctx context.Context, roleCode string) ([]string, error) {
	return m.members[roleCode], nil
}

// mockTxManager runs the function directly; rollback is represented by the
// error propagating.
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockTxManager) InTransaction(ctx context.Context) bool {
	return true
}

type mockPermissionChecker struct {
	allow bool
}

func (m *mockPermissionChecker) HasPermission(ctx context.Context, action, resource string) bool {
	return m.allow
}

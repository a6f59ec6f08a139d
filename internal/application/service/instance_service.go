package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/assignee"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstanceService creates workflow instances and drives step transitions
type InstanceService interface {
	CreateInstance(ctx context.Context, definitionCode, caseID string) (*entity.WorkflowInstance, error)
	TransitionStep(ctx context.Context, stepID string, action workflow.StepAction, actorID string) (*entity.StepInstance, error)
	CancelInstance(ctx context.Context, instanceID string) (*entity.WorkflowInstance, error)
	GetInstance(ctx context.Context, id string) (*entity.WorkflowInstance, error)
	ListSteps(ctx context.Context, instanceID string) ([]*entity.StepInstance, error)
}

type instanceServiceImpl struct {
	definitionRepo   port.DefinitionRepository
	instanceRepo     port.InstanceRepository
	stepRepo         port.StepRepository
	notificationRepo port.NotificationRepository
	resolver         AssigneeResolver
	txManager        port.TransactionManager
	permissions      port.PermissionChecker
	logger           *zap.Logger
}

// NewInstanceService creates a new InstanceService
func NewInstanceService(
	definitionRepo port.DefinitionRepository,
	instanceRepo port.InstanceRepository,
	stepRepo port.StepRepository,
	notificationRepo port.NotificationRepository,
	resolver AssigneeResolver,
	txManager port.TransactionManager,
	permissions port.PermissionChecker,
	logger *zap.Logger,
) InstanceService {
	return &instanceServiceImpl{
		definitionRepo:   definitionRepo,
		instanceRepo:     instanceRepo,
		stepRepo:         stepRepo,
		notificationRepo: notificationRepo,
		resolver:         resolver,
		txManager:        txManager,
		permissions:      permissions,
		logger:           logger,
	}
}

// CreateInstance starts a workflow for a case. The currently active version
// of the definition is pinned onto the instance, and every step's assignees
// are resolved up front; a step that resolves to nobody aborts the whole
// creation before anything is written.
func (s *instanceServiceImpl) CreateInstance(ctx context.Context, definitionCode, caseID string) (*entity.WorkflowInstance, error) {
	if _, err := authorize(ctx, s.permissions, ActionInstanceCreate, definitionCode); err != nil {
		return nil, err
	}

	def, err := s.definitionRepo.GetActiveByCode(ctx, definitionCode)
	if err != nil {
		return nil, fmt.Errorf("lookup active definition: %w", err)
	}
	if def == nil {
		return nil, fmt.Errorf("definition %s: %w", definitionCode, workflow.ErrDefinitionNotActive)
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("definition %s version %d has no steps: %w", def.Code, def.Version, workflow.ErrDefinitionNotActive)
	}

	// Resolve every step before the transaction opens; role lookups must
	// not extend the write critical section.
	now := time.Now()
	instance := &entity.WorkflowInstance{
		ID:                uuid.NewString(),
		DefinitionCode:    def.Code,
		DefinitionVersion: def.Version,
		CaseID:            caseID,
		Status:            workflow.InstanceInProgress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	steps := make([]*entity.StepInstance, 0, len(def.Steps))
	for _, tmpl := range def.Steps {
		users, err := s.resolver.Resolve(ctx, tmpl.AssigneeSpec)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", tmpl.StepNumber, err)
		}
		steps = append(steps, &entity.StepInstance{
			ID:         uuid.NewString(),
			InstanceID: instance.ID,
			StepNumber: tmpl.StepNumber,
			Title:      tmpl.Title,
			AssignedTo: assignee.EncodeUsers(users),
			IsLast:     tmpl.IsLast,
			Status:     workflow.StepPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	firstNotifications := s.notificationsForSpec(def.Steps[0].AssigneeSpec,
		fmt.Sprintf("Approval required: %s step 1", def.Name),
		fmt.Sprintf("Workflow %s started for case %s", def.Code, caseID))

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.instanceRepo.Create(txCtx, instance); err != nil {
			return fmt.Errorf("create instance: %w", err)
		}
		for _, step := range steps {
			if err := s.stepRepo.Create(txCtx, step); err != nil {
				return fmt.Errorf("create step %d: %w", step.StepNumber, err)
			}
		}
		for _, n := range firstNotifications {
			if err := s.notificationRepo.Create(txCtx, n); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create workflow instance",
			zap.String("definition_code", definitionCode),
			zap.String("case_id", caseID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Workflow instance created",
		zap.String("instance_id", instance.ID),
		zap.String("definition_code", def.Code),
		zap.Int("definition_version", def.Version),
		zap.Int("steps", len(steps)))
	return instance, nil
}

// TransitionStep applies an approver action to a pending step. Approve on
// the last step completes the instance; reject anywhere rejects it
// immediately, leaving later steps untouched. Skip is an administrative
// override behind the same permission gate as reject.
func (s *instanceServiceImpl) TransitionStep(ctx context.Context, stepID string, action workflow.StepAction, actorID string) (*entity.StepInstance, error) {
	if _, err := authorize(ctx, s.permissions, ActionStepTransition, stepID); err != nil {
		return nil, err
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("action %q: %w", action, workflow.ErrInvalidTransition)
	}

	var updated *entity.StepInstance
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Step and instance state are validated against a fresh read
		// inside the transaction; nothing is trusted from outside it.
		step, err := s.stepRepo.GetByID(txCtx, stepID)
		if err != nil {
			return fmt.Errorf("lookup step: %w", err)
		}
		if step == nil {
			return fmt.Errorf("step %s: %w", stepID, workflow.ErrNotFound)
		}

		instance, err := s.instanceRepo.GetByID(txCtx, step.InstanceID)
		if err != nil {
			return fmt.Errorf("lookup instance: %w", err)
		}
		if instance == nil {
			return fmt.Errorf("instance %s: %w", step.InstanceID, workflow.ErrNotFound)
		}

		if !workflow.CanTransition(step.Status, action) {
			return fmt.Errorf("step %s is %s: %w", stepID, step.Status, workflow.ErrInvalidTransition)
		}
		if instance.Status != workflow.InstanceInProgress {
			return fmt.Errorf("instance %s is %s: %w", instance.ID, instance.Status, workflow.ErrInvalidTransition)
		}

		// Skip is administrative; approve and reject require the actor to
		// be among the step's resolved assignees, whichever encoding the
		// row was written with.
		if action != workflow.ActionSkip && !assignee.MatchesUser(step.AssignedTo, actorID) {
			return fmt.Errorf("user %s is not assigned to step %s: %w", actorID, stepID, workflow.ErrForbidden)
		}

		now := time.Now()
		if err := s.stepRepo.Complete(txCtx, step.ID, action.ResultStatus(), actorID, now); err != nil {
			return fmt.Errorf("complete step: %w", err)
		}
		step.Status = action.ResultStatus()
		step.ApproverID = actorID
		step.ApprovedAt = &now
		step.UpdatedAt = now

		next, err := s.settleInstance(txCtx, instance, step, action)
		if err != nil {
			return err
		}
		if next != nil {
			for _, id := range assignee.DecodeUsers(next.AssignedTo) {
				n := &entity.Notification{
					ID:            uuid.NewString(),
					RecipientType: entity.RecipientUser,
					RecipientID:   id,
					Subject:       fmt.Sprintf("Approval required: step %d", next.StepNumber),
					Body:          fmt.Sprintf("Workflow %s reached step %d", instance.DefinitionCode, next.StepNumber),
					CreatedAt:     now,
				}
				if err := s.notificationRepo.Create(txCtx, n); err != nil {
					return fmt.Errorf("create notification: %w", err)
				}
			}
		}

		updated = step
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Step transitioned",
		zap.String("step_id", stepID),
		zap.String("action", string(action)),
		zap.String("actor_id", actorID),
		zap.String("status", updated.Status.String()))
	return updated, nil
}

// settleInstance derives the instance status after a step changed and
// returns the next pending step, if the instance is still in progress.
func (s *instanceServiceImpl) settleInstance(ctx context.Context, instance *entity.WorkflowInstance, step *entity.StepInstance, action workflow.StepAction) (*entity.StepInstance, error) {
	if action == workflow.ActionReject {
		// Later steps are deliberately left untouched
		if err := s.instanceRepo.UpdateStatus(ctx, instance.ID, workflow.InstanceRejected); err != nil {
			return nil, fmt.Errorf("reject instance: %w", err)
		}
		return nil, nil
	}

	if action == workflow.ActionApprove && step.IsLast {
		if err := s.instanceRepo.UpdateStatus(ctx, instance.ID, workflow.InstanceCompleted); err != nil {
			return nil, fmt.Errorf("complete instance: %w", err)
		}
		return nil, nil
	}

	// The current step is simply the lowest-numbered remaining PENDING
	// step; no cursor is kept.
	steps, err := s.stepRepo.GetByInstanceID(ctx, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	var next *entity.StepInstance
	for _, st := range steps {
		if st.Status == workflow.StepPending && (next == nil || st.StepNumber < next.StepNumber) {
			next = st
		}
	}
	if next == nil {
		// Everything terminal without a rejection, e.g. the last step
		// was skipped administratively
		if err := s.instanceRepo.UpdateStatus(ctx, instance.ID, workflow.InstanceCompleted); err != nil {
			return nil, fmt.Errorf("complete instance: %w", err)
		}
	}
	return next, nil
}

// CancelInstance is an administrative override terminating an in-progress
// instance without touching its steps.
func (s *instanceServiceImpl) CancelInstance(ctx context.Context, instanceID string) (*entity.WorkflowInstance, error) {
	if _, err := authorize(ctx, s.permissions, ActionInstanceCancel, instanceID); err != nil {
		return nil, err
	}

	var instance *entity.WorkflowInstance
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		instance, err = s.instanceRepo.GetByID(txCtx, instanceID)
		if err != nil {
			return fmt.Errorf("lookup instance: %w", err)
		}
		if instance == nil {
			return fmt.Errorf("instance %s: %w", instanceID, workflow.ErrNotFound)
		}
		if instance.Status != workflow.InstanceInProgress {
			return fmt.Errorf("instance %s is %s: %w", instanceID, instance.Status, workflow.ErrInvalidTransition)
		}
		if err := s.instanceRepo.UpdateStatus(txCtx, instanceID, workflow.InstanceCancelled); err != nil {
			return fmt.Errorf("cancel instance: %w", err)
		}
		instance.Status = workflow.InstanceCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Workflow instance cancelled", zap.String("instance_id", instanceID))
	return instance, nil
}

// GetInstance retrieves an instance by id
func (s *instanceServiceImpl) GetInstance(ctx context.Context, id string) (*entity.WorkflowInstance, error) {
	instance, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("instance %s: %w", id, workflow.ErrNotFound)
	}
	return instance, nil
}

// ListSteps returns the steps of an instance ordered by step number
func (s *instanceServiceImpl) ListSteps(ctx context.Context, instanceID string) ([]*entity.StepInstance, error) {
	return s.stepRepo.GetByInstanceID(ctx, instanceID)
}

// notificationsForSpec builds notification rows for the recipients a
// template spec designates: ROLE rows for role codes, a USER row for a
// direct user reference.
func (s *instanceServiceImpl) notificationsForSpec(spec, subject, body string) []*entity.Notification {
	parsed := assignee.New(spec)
	now := time.Now()

	if userID, ok := parsed.UserID(); ok {
		return []*entity.Notification{{
			ID:            uuid.NewString(),
			RecipientType: entity.RecipientUser,
			RecipientID:   userID,
			Subject:       subject,
			Body:          body,
			CreatedAt:     now,
		}}
	}

	var out []*entity.Notification
	for _, role := range parsed.Roles() {
		out = append(out, &entity.Notification{
			ID:            uuid.NewString(),
			RecipientType: entity.RecipientRole,
			RecipientID:   role,
			Subject:       subject,
			Body:          body,
			CreatedAt:     now,
		})
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"go.uber.org/zap"
)

// ActivationStatus is the result status of a successful activation
const ActivationStatus = "ACTIVATED"

// ActivationResult reports a committed activation
type ActivationResult struct {
	Code    string `json:"code"`
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// StepInput describes one step template when authoring a definition
type StepInput struct {
	Title        string `json:"title"`
	AssigneeSpec string `json:"assignee_spec"`
}

// CreateDefinitionInput describes a new definition version to author
type CreateDefinitionInput struct {
	Code    string      `json:"code"`
	Version int         `json:"version"`
	Name    string      `json:"name"`
	Steps   []StepInput `json:"steps"`
}

// DefinitionService manages versioned workflow definitions
type DefinitionService interface {
	CreateDefinition(ctx context.Context, input CreateDefinitionInput) (*entity.WorkflowDefinition, error)
	ActivateVersion(ctx context.Context, code string, version int) (*ActivationResult, error)
	GetActiveDefinition(ctx context.Context, code string) (*entity.WorkflowDefinition, error)
}

type definitionServiceImpl struct {
	definitionRepo port.DefinitionRepository
	txManager      port.TransactionManager
	permissions    port.PermissionChecker
	logger         *zap.Logger
}

// NewDefinitionService creates a new DefinitionService
func NewDefinitionService(
	definitionRepo port.DefinitionRepository,
	txManager port.TransactionManager,
	permissions port.PermissionChecker,
	logger *zap.Logger,
) DefinitionService {
	return &definitionServiceImpl{
		definitionRepo: definitionRepo,
		txManager:      txManager,
		permissions:    permissions,
		logger:         logger,
	}
}

// CreateDefinition inserts a new, inactive definition version with its step
// templates. Versions become visible to instances only through activation.
func (s *definitionServiceImpl) CreateDefinition(ctx context.Context, input CreateDefinitionInput) (*entity.WorkflowDefinition, error) {
	if _, err := authorize(ctx, s.permissions, ActionDefinitionCreate, input.Code); err != nil {
		return nil, err
	}

	if input.Code == "" {
		return nil, fmt.Errorf("definition code is required")
	}
	if input.Version < 1 {
		return nil, fmt.Errorf("definition version must be positive")
	}
	if len(input.Steps) == 0 {
		return nil, fmt.Errorf("definition must have at least one step")
	}

	def := &entity.WorkflowDefinition{
		Code:      input.Code,
		Version:   input.Version,
		Name:      input.Name,
		IsActive:  false,
		CreatedAt: time.Now(),
	}
	for i, step := range input.Steps {
		if step.AssigneeSpec == "" {
			return nil, fmt.Errorf("step %d has no assignee spec", i+1)
		}
		def.Steps = append(def.Steps, &entity.StepTemplate{
			StepNumber:   i + 1,
			Title:        step.Title,
			AssigneeSpec: step.AssigneeSpec,
			IsLast:       i == len(input.Steps)-1,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.definitionRepo.Create(txCtx, def)
	})
	if err != nil {
		s.logger.Error("Failed to create workflow definition",
			zap.String("code", input.Code),
			zap.Int("version", input.Version),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Workflow definition created",
		zap.String("code", def.Code),
		zap.Int("version", def.Version),
		zap.Int("steps", len(def.Steps)))
	return def, nil
}

// ActivateVersion atomically makes one version of a code the active one.
// Within a single transaction every version of the code is deactivated and
// exactly the target activated; if the target update touches zero rows the
// whole unit rolls back, so a code is never left without an active version.
func (s *definitionServiceImpl) ActivateVersion(ctx context.Context, code string, version int) (*ActivationResult, error) {
	if _, err := authorize(ctx, s.permissions, ActionDefinitionActivate, code); err != nil {
		if err == workflow.ErrForbidden {
			s.logger.Warn("Activation denied",
				zap.String("code", code),
				zap.Int("version", version))
		}
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		target, err := s.definitionRepo.GetByCodeAndVersion(txCtx, code, version)
		if err != nil {
			return fmt.Errorf("lookup definition: %w", err)
		}
		if target == nil {
			return fmt.Errorf("definition %s version %d: %w", code, version, workflow.ErrNotFound)
		}

		if err := s.definitionRepo.DeactivateAll(txCtx, code); err != nil {
			return fmt.Errorf("deactivate versions of %s: %w", code, err)
		}

		affected, err := s.definitionRepo.Activate(txCtx, code, version)
		if err != nil {
			return fmt.Errorf("activate %s version %d: %w", code, version, err)
		}
		if affected == 0 {
			// Roll back rather than leave the code with zero active versions
			return fmt.Errorf("definition %s version %d vanished during activation: %w", code, version, workflow.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Workflow definition activated",
		zap.String("code", code),
		zap.Int("version", version))
	return &ActivationResult{Code: code, Version: version, Status: ActivationStatus}, nil
}

// GetActiveDefinition reads the currently active version straight from
// storage. The active flag is never cached in process.
func (s *definitionServiceImpl) GetActiveDefinition(ctx context.Context, code string) (*entity.WorkflowDefinition, error) {
	def, err := s.definitionRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("definition %s: %w", code, workflow.ErrDefinitionNotActive)
	}
	return def, nil
}

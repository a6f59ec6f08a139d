package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// caseCodePrefix is the literal prefix of every generated case code
const caseCodePrefix = "PROC"

// duplicateCodeRetries bounds how often a lost code race is retried
const duplicateCodeRetries = 3

// CaseService allocates case codes and creates procurement cases
type CaseService interface {
	CreateCase(ctx context.Context, title string) (*entity.ProcurementCase, error)
	GetCase(ctx context.Context, id string) (*entity.ProcurementCase, error)

	// GenerateCaseCode computes the next year-scoped case code. It is only
	// callable inside an already-open case-creation transaction, since the
	// count it derives from is meaningless outside one.
	GenerateCaseCode(ctx context.Context) (string, error)
}

type caseServiceImpl struct {
	caseRepo    port.CaseRepository
	txManager   port.TransactionManager
	permissions port.PermissionChecker
	now         func() time.Time
	logger      *zap.Logger
}

// NewCaseService creates a new CaseService
func NewCaseService(
	caseRepo port.CaseRepository,
	txManager port.TransactionManager,
	permissions port.PermissionChecker,
	logger *zap.Logger,
) CaseService {
	return &caseServiceImpl{
		caseRepo:    caseRepo,
		txManager:   txManager,
		permissions: permissions,
		now:         time.Now,
		logger:      logger,
	}
}

// CreateCase allocates the next case code and inserts the case in one
// transaction. The count-then-format generation can race under concurrent
// creations; the unique index on case_code catches the loser, which is
// retried from scratch a bounded number of times.
func (s *caseServiceImpl) CreateCase(ctx context.Context, title string) (*entity.ProcurementCase, error) {
	session, err := authorize(ctx, s.permissions, ActionCaseCreate, "")
	if err != nil {
		return nil, err
	}

	var created *entity.ProcurementCase
	for attempt := 0; ; attempt++ {
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			code, err := s.GenerateCaseCode(txCtx)
			if err != nil {
				return err
			}
			c := &entity.ProcurementCase{
				ID:        uuid.NewString(),
				CaseCode:  code,
				Title:     title,
				CreatedBy: session.UserID,
				CreatedAt: s.now(),
			}
			if err := s.caseRepo.Create(txCtx, c); err != nil {
				return err
			}
			created = c
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, workflow.ErrDuplicateCode) && attempt < duplicateCodeRetries {
			s.logger.Warn("Case code collision, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}

	s.logger.Info("Procurement case created",
		zap.String("case_id", created.ID),
		zap.String("case_code", created.CaseCode))
	return created, nil
}

// GetCase retrieves a case by its id
func (s *caseServiceImpl) GetCase(ctx context.Context, id string) (*entity.ProcurementCase, error) {
	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", id, workflow.ErrNotFound)
	}
	return c, nil
}

// GenerateCaseCode counts this year's cases under the open transaction and
// formats PROC-{year}-{seq} with the sequence zero-padded to six digits.
func (s *caseServiceImpl) GenerateCaseCode(ctx context.Context) (string, error) {
	if !s.txManager.InTransaction(ctx) {
		return "", fmt.Errorf("case code generation requires an open transaction")
	}

	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	nextYear := yearStart.AddDate(1, 0, 0)

	count, err := s.caseRepo.CountCreatedBetween(ctx, yearStart, nextYear)
	if err != nil {
		return "", fmt.Errorf("count cases for %d: %w", now.Year(), err)
	}

	return fmt.Sprintf("%s-%d-%06d", caseCodePrefix, now.Year(), count+1), nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/workflow"
	"go.uber.org/zap"
)

// InboxCount aggregates a user's pending approval tasks and unread
// notifications into one badge value.
type InboxCount struct {
	TaskCount         int `json:"task_count"`
	NotificationCount int `json:"notification_count"`
	Total             int `json:"total"`
}

// InboxService is the read-mostly aggregation view polled by clients. Its
// two sources are independent queries; no transaction or locking is used
// and the result is only eventually consistent within the polling interval.
type InboxService interface {
	GetInboxCount(ctx context.Context, userID string, roles []string) (*InboxCount, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ArchiveNotification(ctx context.Context, id string) error
}

type inboxServiceImpl struct {
	stepRepo         port.StepRepository
	notificationRepo port.NotificationRepository
	logger           *zap.Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(
	stepRepo port.StepRepository,
	notificationRepo port.NotificationRepository,
	logger *zap.Logger,
) InboxService {
	return &inboxServiceImpl{
		stepRepo:         stepRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// GetInboxCount counts pending steps assigned to the user (in either
// historical assigned_to encoding, each row once) and unread notifications
// targeted at the user or any of their roles.
func (s *inboxServiceImpl) GetInboxCount(ctx context.Context, userID string, roles []string) (*InboxCount, error) {
	tasks, err := s.stepRepo.CountPendingForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count pending tasks: %w", err)
	}

	notifs, err := s.notificationRepo.CountUnread(ctx, userID, roles)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	return &InboxCount{
		TaskCount:         tasks,
		NotificationCount: notifs,
		Total:             tasks + notifs,
	}, nil
}

// MarkNotificationRead stamps read_at on a notification
func (s *inboxServiceImpl) MarkNotificationRead(ctx context.Context, id string) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, workflow.ErrNotFound)
	}
	if err := s.notificationRepo.MarkRead(ctx, id, time.Now()); err != nil {
		s.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ArchiveNotification stamps archived_at on a notification
func (s *inboxServiceImpl) ArchiveNotification(ctx context.Context, id string) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, workflow.ErrNotFound)
	}
	if err := s.notificationRepo.Archive(ctx, id, time.Now()); err != nil {
		s.logger.Error("Failed to archive notification", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/adityarama/procurement-engine/internal/application/port"
	"github.com/adityarama/procurement-engine/internal/domain/entity"
	"github.com/adityarama/procurement-engine/pkg/database"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new notification row
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_type, recipient_id, subject, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.RecipientType, n.RecipientID, n.Subject, n.Body, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("recipient_type", n.RecipientType),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by its id
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, recipient_type, recipient_id, subject, body, read_at, archived_at, created_at
		FROM notifications
		WHERE id = ?
	`, id)

	var n entity.Notification
	var readAt, archivedAt sql.NullTime
	err := row.Scan(&n.ID, &n.RecipientType, &n.RecipientID, &n.Subject, &n.Body, &readAt, &archivedAt, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get notification", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if archivedAt.Valid {
		n.ArchivedAt = &archivedAt.Time
	}
	return &n, nil
}

// MarkRead stamps read_at on a notification
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL
	`, at, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// Archive stamps archived_at on a notification
func (r *NotificationRepository) Archive(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications SET archived_at = ? WHERE id = ? AND archived_at IS NULL
	`, at, id)
	if err != nil {
		r.logger.Error("Failed to archive notification", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to archive notification: %w", err)
	}
	return nil
}

// CountUnread counts unread, unarchived notifications targeted at the user
// directly or at any of the given roles
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string, roles []string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE read_at IS NULL
		  AND archived_at IS NULL
		  AND ((recipient_type = ? AND recipient_id = ?)`
	args := []interface{}{entity.RecipientUser, userID}

	if len(roles) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
		query += fmt.Sprintf(" OR (recipient_type = ? AND recipient_id IN (%s))", placeholders)
		args = append(args, entity.RecipientRole)
		for _, role := range roles {
			args = append(args, role)
		}
	}
	query += ")"

	var count int
	if err := r.db.Executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count unread notifications",
			zap.String("user_id", userID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)

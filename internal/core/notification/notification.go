package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
)

// Message represents a notification to fan out to one or more users
type Message struct {
	Title      string
	Body       string
	EntityType string
	EntityID   *uuid.UUID
	Data       map[string]interface{} // Additional metadata
}

// Service writes in-app notification rows; delivery to other channels
// (email digests, push) is handled outside the engine
type Service struct {
	db *gorm.DB
}

// NewService creates a new notification service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Send fans the message out to every recipient. It fails when no recipient
// is given, and reports a partial error when some inserts fail.
func (s *Service) Send(ctx context.Context, projectID uuid.UUID, recipients []uuid.UUID, msg Message) error {
	if len(recipients) == 0 {
		return fmt.Errorf("notification has no recipients")
	}

	var metadata datatypes.JSON
	if msg.Data != nil {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return fmt.Errorf("failed to serialize notification metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	var failed []uuid.UUID
	for _, userID := range recipients {
		row := &models.Notification{
			ProjectID:  projectID,
			UserID:     userID,
			Title:      msg.Title,
			Message:    msg.Body,
			EntityType: msg.EntityType,
			EntityID:   msg.EntityID,
			Metadata:   metadata,
		}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			failed = append(failed, userID)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to notify %d of %d recipients", len(failed), len(recipients))
	}
	return nil
}

// MarkRead marks a notification as read for its owner
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// ListUnread returns unread notifications for a user, newest first
func (s *Service) ListUnread(ctx context.Context, projectID, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Notification
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND is_read = ?", projectID, userID, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return rows, nil
}

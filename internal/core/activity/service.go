package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service provides activity logging functionality
type Service struct {
	db *gorm.DB
}

// NewService creates a new activity service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Log creates a new activity entry
func (s *Service) Log(ctx context.Context, entry *Activity) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// LogForEntity creates an activity linked to an entity with optional metadata
func (s *Service) LogForEntity(ctx context.Context, projectID uuid.UUID, entityType string, entityID uuid.UUID, activityType, title, body string, metadata map[string]interface{}) error {
	entry := &Activity{
		ProjectID:    projectID,
		EntityType:   entityType,
		EntityID:     entityID,
		ActivityType: activityType,
		Title:        title,
		Body:         body,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize activity metadata: %w", err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	return s.Log(ctx, entry)
}

// GetActivities retrieves activities with filtering
func (s *Service) GetActivities(ctx context.Context, filter Filter) ([]Activity, int64, error) {
	query := s.db.WithContext(ctx).Model(&Activity{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.ActivityType != "" {
		query = query.Where("activity_type = ?", filter.ActivityType)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var entries []Activity
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}

	return entries, total, nil
}

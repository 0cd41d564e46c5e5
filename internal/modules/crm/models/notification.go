package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is an in-app notification row for one recipient
type Notification struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID  uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Title      string         `json:"title" gorm:"type:varchar(255);not null"`
	Message    string         `json:"message" gorm:"type:text"`
	EntityType string         `json:"entity_type" gorm:"type:varchar(32)"`
	EntityID   *uuid.UUID     `json:"entity_id" gorm:"type:uuid"`
	IsRead     bool           `json:"is_read" gorm:"default:false;index"`
	Metadata   datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime;index:,sort:desc"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

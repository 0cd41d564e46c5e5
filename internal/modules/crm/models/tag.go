package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a project-scoped label
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null"`
	Color     string    `json:"color" gorm:"type:varchar(16)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// EntityTag joins a tag to any entity; unique per (tag, entity type, entity
// id) so tag actions are idempotent by construction
type EntityTag struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TagID      uuid.UUID `json:"tag_id" gorm:"type:uuid;not null;index:idx_entity_tags_unique,unique"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(32);not null;index:idx_entity_tags_unique,unique"`
	EntityID   uuid.UUID `json:"entity_id" gorm:"type:uuid;not null;index:idx_entity_tags_unique,unique"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for EntityTag
func (EntityTag) TableName() string {
	return "entity_tags"
}

package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity represents an activity-log entry attached to a CRM entity
type Activity struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// Context
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`

	// Linked entity
	EntityType string    `json:"entity_type" gorm:"type:varchar(32);not null;index"`
	EntityID   uuid.UUID `json:"entity_id" gorm:"type:uuid;not null;index"`

	// Activity details
	ActivityType string `json:"activity_type" gorm:"type:varchar(64);not null;index"` // note, status_change, automation, ...
	Title        string `json:"title" gorm:"type:varchar(255);not null"`
	Body         string `json:"body,omitempty" gorm:"type:text"`

	// Attribution: automation-created activities carry the automation's
	// identity in metadata for traceability
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index:,sort:desc"`
}

// TableName specifies the table name
func (Activity) TableName() string {
	return "activities"
}

// Filter represents filters for querying activities
type Filter struct {
	ProjectID    *uuid.UUID
	EntityType   string
	EntityID     *uuid.UUID
	ActivityType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

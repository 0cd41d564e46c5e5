package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmailTemplate is a reusable subject/body pair owned by a project
type EmailTemplate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(512);not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for EmailTemplate
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// EmailDraft is a queued outbound email awaiting manual dispatch. Automations
// only ever create drafts; sending happens outside the engine so no channel
// credentials live in the execution path.
type EmailDraft struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID    uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	TemplateID   *uuid.UUID     `json:"template_id" gorm:"type:uuid"`
	ToAddress    string         `json:"to_address" gorm:"type:varchar(255);not null"`
	Subject      string         `json:"subject" gorm:"type:varchar(512);not null"`
	Body         string         `json:"body" gorm:"type:text;not null"`
	Status       string         `json:"status" gorm:"type:varchar(20);not null;default:'queued';index"` // 'queued', 'sent', 'discarded'
	EntityType   string         `json:"entity_type" gorm:"type:varchar(32)"`
	EntityID     *uuid.UUID     `json:"entity_id" gorm:"type:uuid;index"`
	AutomationID *uuid.UUID     `json:"automation_id" gorm:"type:uuid;index"`
	Metadata     datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for EmailDraft
func (EmailDraft) TableName() string {
	return "email_drafts"
}

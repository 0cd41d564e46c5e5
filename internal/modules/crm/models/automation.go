package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Automation represents a stored automation rule for a project
type Automation struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID     uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	Description   string         `json:"description" gorm:"type:text"`
	TriggerType   string         `json:"trigger_type" gorm:"type:varchar(64);not null;index"`
	TriggerConfig datatypes.JSON `json:"trigger_config" gorm:"type:jsonb;not null;default:'{}'"`
	Conditions    datatypes.JSON `json:"conditions" gorm:"type:jsonb;default:'[]'"`
	Actions       datatypes.JSON `json:"actions" gorm:"type:jsonb;not null;default:'[]'"`
	IsActive      bool           `json:"is_active" gorm:"default:true;index"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime;index:,sort:desc"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Automation
func (Automation) TableName() string {
	return "automations"
}

// AutomationExecution is the audit row written once per dispatch that reaches
// condition evaluation or beyond
type AutomationExecution struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AutomationID  uuid.UUID      `json:"automation_id" gorm:"type:uuid;not null;index"`
	ProjectID     uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	TriggerType   string         `json:"trigger_type" gorm:"type:varchar(64);not null"`
	EntityType    string         `json:"entity_type" gorm:"type:varchar(32);not null"`
	EntityID      uuid.UUID      `json:"entity_id" gorm:"type:uuid;not null;index"`
	ConditionsMet bool           `json:"conditions_met" gorm:"not null"`
	ActionResults datatypes.JSON `json:"action_results" gorm:"type:jsonb;default:'[]'"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;index"` // 'success', 'partial_failure', 'failed', 'skipped'
	ErrorMessage  string         `json:"error_message,omitempty" gorm:"type:text"`
	DurationMs    int            `json:"duration_ms"`
	ExecutedAt    time.Time      `json:"executed_at" gorm:"autoCreateTime;index:,sort:desc"`
}

// TableName specifies the table name for AutomationExecution
func (AutomationExecution) TableName() string {
	return "automation_executions"
}

// TimeTriggerState keeps the per-automation snapshot of entity ids already
// matched by a time-based trigger, so a still-matching entity does not
// re-fire on every poll. The set only grows while the automation exists.
type TimeTriggerState struct {
	AutomationID uuid.UUID      `json:"automation_id" gorm:"type:uuid;primaryKey"`
	MatchedIDs   datatypes.JSON `json:"matched_ids" gorm:"type:jsonb;not null;default:'[]'"`
	LastRunAt    time.Time      `json:"last_run_at"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for TimeTriggerState
func (TimeTriggerState) TableName() string {
	return "automation_time_trigger_state"
}

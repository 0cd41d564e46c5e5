package automation

import (
	"github.com/google/uuid"
)

// Trigger types understood by the engine. Time-based triggers are synthesized
// by the poller; everything else arrives from record-mutation handlers.
const (
	TriggerEntityCreated     = "entity.created"
	TriggerEntityUpdated     = "entity.updated"
	TriggerFieldChanged      = "field.changed"
	TriggerStageChanged      = "opportunity.stage_changed"
	TriggerRFPStatusChanged  = "rfp.status_changed"
	TriggerCallDispositioned = "call.dispositioned"
	TriggerMeetingCompleted  = "meeting.completed"
	TriggerSequenceReplied   = "sequence.replied"
	TriggerSequenceCompleted = "sequence.completed"

	TriggerEntityInactive       = "time.entity_inactive"
	TriggerTaskOverdue          = "time.task_overdue"
	TriggerCloseDateApproaching = "time.close_date_approaching"
	TriggerCreatedAgo           = "time.created_ago"
)

// TimeTriggerTypes lists the triggers handled by the poller instead of
// organic events.
var TimeTriggerTypes = []string{
	TriggerEntityInactive,
	TriggerTaskOverdue,
	TriggerCloseDateApproaching,
	TriggerCreatedAgo,
}

// IsTimeTrigger reports whether the trigger type is poller-driven.
func IsTimeTrigger(triggerType string) bool {
	for _, t := range TimeTriggerTypes {
		if t == triggerType {
			return true
		}
	}
	return false
}

// Action types in the engine's fixed vocabulary.
const (
	ActionCreateTask       = "create_task"
	ActionUpdateField      = "update_field"
	ActionChangeStage      = "change_stage"
	ActionChangeStatus     = "change_status"
	ActionAssignOwner      = "assign_owner"
	ActionSendNotification = "send_notification"
	ActionSendEmail        = "send_email"
	ActionEnrollInSequence = "enroll_in_sequence"
	ActionAddTag           = "add_tag"
	ActionRemoveTag        = "remove_tag"
	ActionCreateActivity   = "create_activity"
	ActionRunAIResearch    = "run_ai_research"
	ActionFireWebhook      = "fire_webhook"
)

// Entity types the engine reacts to.
const (
	EntityOrganization = "organization"
	EntityPerson       = "person"
	EntityOpportunity  = "opportunity"
	EntityRFP          = "rfp"
	EntityTask         = "task"
	EntityMeeting      = "meeting"
	EntityCall         = "call"
)

// entityTables maps an entity type to its table name.
var entityTables = map[string]string{
	EntityOrganization: "organizations",
	EntityPerson:       "people",
	EntityOpportunity:  "opportunities",
	EntityRFP:          "rfps",
	EntityTask:         "tasks",
	EntityMeeting:      "meetings",
	EntityCall:         "calls",
}

// EntityTable returns the table name for an entity type, or "" if unknown.
func EntityTable(entityType string) string {
	return entityTables[entityType]
}

// Event is the ephemeral payload handed to the dispatcher. It is never
// persisted as-is; only the execution record keeps a summary.
type Event struct {
	ProjectID    uuid.UUID              `json:"project_id"`
	TriggerType  string                 `json:"trigger_type"`
	EntityType   string                 `json:"entity_type"`
	EntityID     uuid.UUID              `json:"entity_id"`
	Data         map[string]interface{} `json:"data"`
	PreviousData map[string]interface{} `json:"previous_data,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Condition is a single boolean predicate over entity data. Conditions within
// one automation are AND-combined.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// Action is one side-effecting operation in an automation's ordered list.
type Action struct {
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config"`
}

// ActionResult is produced once per executed action.
type ActionResult struct {
	ActionType string                 `json:"action_type"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
}

// ActionContext carries the execution scope into every action handler.
type ActionContext struct {
	ProjectID      uuid.UUID
	EntityType     string
	EntityID       uuid.UUID
	Data           map[string]interface{}
	AutomationID   uuid.UUID
	AutomationName string
}

func failure(actionType, msg string) ActionResult {
	return ActionResult{ActionType: actionType, Success: false, Error: msg}
}

func success(actionType string, result map[string]interface{}) ActionResult {
	return ActionResult{ActionType: actionType, Success: true, Result: result}
}

package automation

import "fmt"

var validTriggerTypes = map[string]bool{
	TriggerEntityCreated:        true,
	TriggerEntityUpdated:        true,
	TriggerFieldChanged:         true,
	TriggerStageChanged:         true,
	TriggerRFPStatusChanged:     true,
	TriggerCallDispositioned:    true,
	TriggerMeetingCompleted:     true,
	TriggerSequenceReplied:      true,
	TriggerSequenceCompleted:    true,
	TriggerEntityInactive:       true,
	TriggerTaskOverdue:          true,
	TriggerCloseDateApproaching: true,
	TriggerCreatedAgo:           true,
}

var validOperators = map[string]bool{
	"equals":       true,
	"not_equals":   true,
	"contains":     true,
	"not_contains": true,
	"greater_than": true,
	"less_than":    true,
	"is_empty":     true,
	"is_not_empty": true,
	"in":           true,
	"not_in":       true,
}

// requiredActionConfig lists the config key each action cannot run without.
// Checked at save time so the executor can assume well-formed definitions;
// the executor still re-checks because old rows may predate a rule change.
var requiredActionConfig = map[string]string{
	ActionCreateTask:       "title",
	ActionUpdateField:      "field_name",
	ActionChangeStage:      "stage",
	ActionChangeStatus:     "status",
	ActionAssignOwner:      "owner_id",
	ActionSendEmail:        "template_id",
	ActionEnrollInSequence: "sequence_id",
	ActionAddTag:           "tag_id",
	ActionRemoveTag:        "tag_id",
	ActionCreateActivity:   "title",
	ActionRunAIResearch:    "topic",
	ActionFireWebhook:      "url",
}

// ValidateDefinition checks an automation definition at save time: trigger
// type, condition operators, and action configs must all be well formed.
func ValidateDefinition(triggerType string, triggerConfig map[string]interface{}, conditions []Condition, actions []Action) error {
	if !validTriggerTypes[triggerType] {
		return fmt.Errorf("unknown trigger type: %s", triggerType)
	}

	switch triggerType {
	case TriggerEntityInactive, TriggerCreatedAgo:
		days, ok := toFloat64(triggerConfig["days"])
		if !ok || days < 1 || days > 365 {
			return fmt.Errorf("trigger %s requires days between 1 and 365", triggerType)
		}
		entityType, _ := triggerConfig["entity_type"].(string)
		if EntityTable(entityType) == "" {
			return fmt.Errorf("trigger %s requires a valid entity_type", triggerType)
		}
	case TriggerCloseDateApproaching:
		days, ok := toFloat64(triggerConfig["days_before"])
		if !ok || days < 1 || days > 365 {
			return fmt.Errorf("trigger %s requires days_before between 1 and 365", triggerType)
		}
	}

	for i, condition := range conditions {
		if condition.Field == "" {
			return fmt.Errorf("condition %d has no field", i+1)
		}
		if !validOperators[condition.Operator] {
			return fmt.Errorf("condition %d has unknown operator: %s", i+1, condition.Operator)
		}
	}

	for i, action := range actions {
		requiredKey, known := requiredActionConfig[action.Type]
		if !known && action.Type != ActionSendNotification {
			return fmt.Errorf("action %d has unknown type: %s", i+1, action.Type)
		}
		if requiredKey != "" {
			if raw, exists := action.Config[requiredKey]; !exists || raw == "" || raw == nil {
				return fmt.Errorf("action %d (%s) is missing required config: %s", i+1, action.Type, requiredKey)
			}
		}
		if action.Type == ActionSendNotification {
			if _, hasList := action.Config["user_ids"]; !hasList {
				if _, hasOne := action.Config["user_id"]; !hasOne {
					return fmt.Errorf("action %d (send_notification) needs user_ids or user_id", i+1)
				}
			}
		}
		if action.Type == ActionFireWebhook {
			if targetURL, ok := action.Config["url"].(string); ok {
				if err := ValidateWebhookURL(targetURL); err != nil {
					return fmt.Errorf("action %d (fire_webhook): %w", i+1, err)
				}
			}
		}
	}

	return nil
}

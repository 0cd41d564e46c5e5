package automation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateDefinition(t *testing.T) {
	okActions := []Action{
		{Type: ActionCreateTask, Config: map[string]interface{}{"title": "follow up"}},
	}

	assert.NoError(t, ValidateDefinition(TriggerEntityCreated, nil, nil, okActions))

	// unknown vocabulary
	assert.Error(t, ValidateDefinition("entity.exploded", nil, nil, okActions))
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil, nil, []Action{{Type: "do_magic"}}))
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil,
		[]Condition{{Field: "stage", Operator: "matches_regex"}}, okActions))
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil,
		[]Condition{{Operator: "equals"}}, okActions))

	// missing required action config
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil, nil,
		[]Action{{Type: ActionAddTag, Config: map[string]interface{}{}}}))

	// send_notification needs at least one recipient key
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil, nil,
		[]Action{{Type: ActionSendNotification, Config: map[string]interface{}{"title": "hi"}}}))
	assert.NoError(t, ValidateDefinition(TriggerEntityCreated, nil, nil,
		[]Action{{Type: ActionSendNotification, Config: map[string]interface{}{"user_id": uuid.New().String()}}}))
}

func TestValidateDefinition_TimeTriggers(t *testing.T) {
	actions := []Action{{Type: ActionCreateTask, Config: map[string]interface{}{"title": "t"}}}

	assert.NoError(t, ValidateDefinition(TriggerEntityInactive,
		map[string]interface{}{"days": float64(30), "entity_type": "organization"}, nil, actions))
	assert.Error(t, ValidateDefinition(TriggerEntityInactive,
		map[string]interface{}{"days": float64(0), "entity_type": "organization"}, nil, actions))
	assert.Error(t, ValidateDefinition(TriggerEntityInactive,
		map[string]interface{}{"days": float64(400), "entity_type": "organization"}, nil, actions))
	assert.Error(t, ValidateDefinition(TriggerEntityInactive,
		map[string]interface{}{"days": float64(30), "entity_type": "starship"}, nil, actions))

	assert.NoError(t, ValidateDefinition(TriggerCloseDateApproaching,
		map[string]interface{}{"days_before": float64(7)}, nil, actions))
	assert.Error(t, ValidateDefinition(TriggerCloseDateApproaching,
		map[string]interface{}{}, nil, actions))

	// task_overdue needs no config
	assert.NoError(t, ValidateDefinition(TriggerTaskOverdue, nil, nil, actions))
}

func TestValidateDefinition_WebhookURLCheckedAtSave(t *testing.T) {
	assert.Error(t, ValidateDefinition(TriggerEntityCreated, nil, nil,
		[]Action{{Type: ActionFireWebhook, Config: map[string]interface{}{"url": "http://127.0.0.1/hook"}}}))
	assert.NoError(t, ValidateDefinition(TriggerEntityCreated, nil, nil,
		[]Action{{Type: ActionFireWebhook, Config: map[string]interface{}{"url": "https://example.com/hook"}}}))
}

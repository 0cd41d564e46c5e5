package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// The config-validation and type-guard paths below all fail before any
// database or service call, so a zero executor is enough.

func testContext() ActionContext {
	return ActionContext{
		ProjectID:      uuid.New(),
		EntityID:       uuid.New(),
		AutomationID:   uuid.New(),
		AutomationName: "test automation",
		Data:           map[string]interface{}{"first_name": "Ada"},
	}
}

func TestExecute_UnknownActionType(t *testing.T) {
	e := &ActionExecutor{}

	result := e.Execute(context.Background(), Action{Type: "launch_rocket"}, testContext())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown action type")
	assert.Equal(t, "launch_rocket", result.ActionType)
}

func TestExecute_MissingRequiredConfig(t *testing.T) {
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityPerson

	cases := []struct {
		action  Action
		wantErr string
	}{
		{Action{Type: ActionCreateTask, Config: map[string]interface{}{}}, "title is required"},
		{Action{Type: ActionUpdateField, Config: map[string]interface{}{}}, "field_name is required"},
		{Action{Type: ActionUpdateField, Config: map[string]interface{}{"field_name": "phone"}}, "value is required"},
		{Action{Type: ActionAssignOwner, Config: map[string]interface{}{}}, "owner_id is required"},
		{Action{Type: ActionAssignOwner, Config: map[string]interface{}{"owner_id": "not-a-uuid"}}, "owner_id is required"},
		{Action{Type: ActionSendNotification, Config: map[string]interface{}{}}, "recipient"},
		{Action{Type: ActionSendEmail, Config: map[string]interface{}{}}, "template_id is required"},
		{Action{Type: ActionEnrollInSequence, Config: map[string]interface{}{}}, "sequence_id is required"},
		{Action{Type: ActionAddTag, Config: map[string]interface{}{}}, "tag_id is required"},
		{Action{Type: ActionRemoveTag, Config: map[string]interface{}{}}, "tag_id is required"},
		{Action{Type: ActionCreateActivity, Config: map[string]interface{}{}}, "title is required"},
		{Action{Type: ActionRunAIResearch, Config: map[string]interface{}{}}, "topic is required"},
		{Action{Type: ActionFireWebhook, Config: map[string]interface{}{}}, "url is required"},
	}

	for _, tc := range cases {
		result := e.Execute(context.Background(), tc.action, actx)
		assert.False(t, result.Success, tc.action.Type)
		assert.Contains(t, result.Error, tc.wantErr, tc.action.Type)
	}
}

func TestExecute_ChangeStageTypeGuard(t *testing.T) {
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityPerson

	result := e.Execute(context.Background(), Action{
		Type:   ActionChangeStage,
		Config: map[string]interface{}{"stage": "won"},
	}, actx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "only applies to opportunities")
}

func TestExecute_ChangeStatusTypeGuard(t *testing.T) {
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityOpportunity

	result := e.Execute(context.Background(), Action{
		Type:   ActionChangeStatus,
		Config: map[string]interface{}{"status": "submitted"},
	}, actx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "only applies to rfps")
}

func TestExecute_EnrollRestrictedToPeople(t *testing.T) {
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityOrganization

	result := e.Execute(context.Background(), Action{
		Type:   ActionEnrollInSequence,
		Config: map[string]interface{}{"sequence_id": uuid.New().String()},
	}, actx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "only applies to people")
}

func TestExecute_UpdateFieldAllowlist(t *testing.T) {
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityOpportunity

	// protected columns are rejected before any write
	for _, field := range []string{"id", "project_id", "owner_id", "created_at", "status"} {
		result := e.Execute(context.Background(), Action{
			Type:   ActionUpdateField,
			Config: map[string]interface{}{"field_name": field, "value": "x"},
		}, actx)
		assert.False(t, result.Success, field)
		assert.Contains(t, result.Error, "not writable", field)
	}
}

func TestExecute_FireWebhookBlockedURL(t *testing.T) {
	e := &ActionExecutor{webhooks: NewWebhookClient()}
	actx := testContext()
	actx.EntityType = EntityPerson

	result := e.Execute(context.Background(), Action{
		Type:   ActionFireWebhook,
		Config: map[string]interface{}{"url": "http://10.0.0.1/hook"},
	}, actx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "private or reserved")
}

func TestExecute_RecoversFromPanic(t *testing.T) {
	// a nil executor forces a panic inside the db-backed handler path
	e := &ActionExecutor{}
	actx := testContext()
	actx.EntityType = EntityPerson

	result := e.Execute(context.Background(), Action{
		Type:   ActionCreateTask,
		Config: map[string]interface{}{"title": "follow up"},
	}, actx)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestReplaceVariables(t *testing.T) {
	e := &ActionExecutor{}
	data := map[string]interface{}{
		"first_name": "Ada",
		"amount":     float64(1200),
		"custom_fields": map[string]interface{}{
			"region": "emea",
		},
	}

	out := e.replaceVariables("Call {first_name} about {amount} in {custom_fields.region}", data)
	assert.Equal(t, "Call Ada about 1200 in emea", out)

	// unknown placeholders stay verbatim
	out = e.replaceVariables("Hi {nobody}", data)
	assert.Equal(t, "Hi {nobody}", out)
}

func TestAllowlistCoverage(t *testing.T) {
	// spot-check writable sets per table
	assert.True(t, IsWritableField(EntityOpportunity, "stage"))
	assert.True(t, IsWritableField(EntityOpportunity, "next_step"))
	assert.True(t, IsWritableField(EntityPerson, "lifecycle_stage"))
	assert.True(t, IsWritableField(EntityCall, "disposition"))
	assert.False(t, IsWritableField(EntityCall, "duration_seconds"))
	assert.False(t, IsWritableField(EntityPerson, "email"))
	assert.False(t, IsWritableField("unknown", "name"))

	assert.True(t, IsCustomField("custom_fields.region"))
	assert.False(t, IsCustomField("custom_fields."))
	assert.False(t, IsCustomField("region"))
	assert.Equal(t, "region", CustomFieldKey("custom_fields.region"))
}

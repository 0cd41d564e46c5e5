package automation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMatches_EmptyConfigMatchesEverything(t *testing.T) {
	event := Event{TriggerType: TriggerEntityCreated, EntityType: EntityPerson, EntityID: uuid.New()}

	assert.True(t, Matches(TriggerEntityCreated, nil, event))
	assert.True(t, Matches(TriggerEntityCreated, map[string]interface{}{}, event))
}

func TestMatches_EntityTypeFilter(t *testing.T) {
	event := Event{TriggerType: TriggerEntityCreated, EntityType: EntityPerson}

	assert.True(t, Matches(TriggerEntityCreated, map[string]interface{}{"entity_type": "person"}, event))
	assert.False(t, Matches(TriggerEntityCreated, map[string]interface{}{"entity_type": "organization"}, event))

	// non-string or empty entity_type counts as absent
	assert.True(t, Matches(TriggerEntityCreated, map[string]interface{}{"entity_type": ""}, event))
	assert.True(t, Matches(TriggerEntityCreated, map[string]interface{}{"entity_type": 42}, event))
}

func TestMatches_FieldChanged(t *testing.T) {
	event := Event{
		TriggerType:  TriggerFieldChanged,
		EntityType:   EntityPerson,
		Data:         map[string]interface{}{"lifecycle_stage": "customer"},
		PreviousData: map[string]interface{}{"lifecycle_stage": "lead"},
	}

	// field actually changed
	assert.True(t, Matches(TriggerFieldChanged, map[string]interface{}{"field_name": "lifecycle_stage"}, event))

	// to_value constraint
	assert.True(t, Matches(TriggerFieldChanged, map[string]interface{}{
		"field_name": "lifecycle_stage", "to_value": "customer",
	}, event))
	assert.False(t, Matches(TriggerFieldChanged, map[string]interface{}{
		"field_name": "lifecycle_stage", "to_value": "churned",
	}, event))

	// unchanged field does not match
	same := event
	same.PreviousData = map[string]interface{}{"lifecycle_stage": "customer"}
	assert.False(t, Matches(TriggerFieldChanged, map[string]interface{}{"field_name": "lifecycle_stage"}, same))

	// no field_name configured: any event matches
	assert.True(t, Matches(TriggerFieldChanged, map[string]interface{}{}, event))
}

func TestMatches_StageTransition(t *testing.T) {
	event := Event{
		TriggerType:  TriggerStageChanged,
		EntityType:   EntityOpportunity,
		Data:         map[string]interface{}{"stage": "negotiation"},
		PreviousData: map[string]interface{}{"stage": "proposal"},
	}

	assert.True(t, Matches(TriggerStageChanged, map[string]interface{}{"to_stage": "negotiation"}, event))
	assert.True(t, Matches(TriggerStageChanged, map[string]interface{}{"from_stage": "proposal"}, event))
	assert.True(t, Matches(TriggerStageChanged, map[string]interface{}{
		"from_stage": "proposal", "to_stage": "negotiation",
	}, event))
	assert.False(t, Matches(TriggerStageChanged, map[string]interface{}{"from_stage": "demo"}, event))
	assert.False(t, Matches(TriggerStageChanged, map[string]interface{}{"to_stage": "closed_won"}, event))
}

func TestMatches_RFPStatusTransition(t *testing.T) {
	event := Event{
		TriggerType:  TriggerRFPStatusChanged,
		EntityType:   EntityRFP,
		Data:         map[string]interface{}{"status": "submitted"},
		PreviousData: map[string]interface{}{"status": "drafting"},
	}

	assert.True(t, Matches(TriggerRFPStatusChanged, map[string]interface{}{"to_status": "submitted"}, event))
	assert.False(t, Matches(TriggerRFPStatusChanged, map[string]interface{}{"from_status": "won"}, event))
}

func TestMatches_CallDispositioned(t *testing.T) {
	event := Event{
		TriggerType: TriggerCallDispositioned,
		EntityType:  EntityCall,
		Data:        map[string]interface{}{"disposition": "connected", "direction": "outbound"},
	}

	assert.True(t, Matches(TriggerCallDispositioned, map[string]interface{}{"disposition": "connected"}, event))
	assert.True(t, Matches(TriggerCallDispositioned, map[string]interface{}{
		"disposition": "connected", "direction": "outbound",
	}, event))
	assert.False(t, Matches(TriggerCallDispositioned, map[string]interface{}{"direction": "inbound"}, event))
}

func TestMatches_MeetingCompleted(t *testing.T) {
	event := Event{
		TriggerType: TriggerMeetingCompleted,
		EntityType:  EntityMeeting,
		Data:        map[string]interface{}{"meeting_type": "demo", "outcome": "positive"},
	}

	assert.True(t, Matches(TriggerMeetingCompleted, map[string]interface{}{"meeting_type": "demo"}, event))
	assert.False(t, Matches(TriggerMeetingCompleted, map[string]interface{}{"outcome": "no_show"}, event))
}

func TestMatches_SequenceID(t *testing.T) {
	seqID := uuid.New().String()
	event := Event{
		TriggerType: TriggerSequenceReplied,
		EntityType:  EntityPerson,
		Metadata:    map[string]interface{}{"sequence_id": seqID},
	}

	assert.True(t, Matches(TriggerSequenceReplied, map[string]interface{}{"sequence_id": seqID}, event))
	assert.False(t, Matches(TriggerSequenceReplied, map[string]interface{}{"sequence_id": uuid.New().String()}, event))

	// falls back to event data when metadata is absent
	event.Metadata = nil
	event.Data = map[string]interface{}{"sequence_id": seqID}
	assert.True(t, Matches(TriggerSequenceCompleted, map[string]interface{}{"sequence_id": seqID}, event))
}

func TestIsTimeTrigger(t *testing.T) {
	assert.True(t, IsTimeTrigger(TriggerTaskOverdue))
	assert.True(t, IsTimeTrigger(TriggerEntityInactive))
	assert.False(t, IsTimeTrigger(TriggerEntityCreated))
}

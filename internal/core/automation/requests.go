package automation

// CreateAutomationRequest is the payload for creating an automation
type CreateAutomationRequest struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	TriggerType   string                 `json:"trigger_type"`
	TriggerConfig map[string]interface{} `json:"trigger_config"`
	Conditions    []Condition            `json:"conditions"`
	Actions       []Action               `json:"actions"`
	IsActive      *bool                  `json:"is_active"`
}

// UpdateAutomationRequest is the payload for updating an automation; nil
// fields are left unchanged
type UpdateAutomationRequest struct {
	Name          *string                `json:"name"`
	Description   *string                `json:"description"`
	TriggerType   *string                `json:"trigger_type"`
	TriggerConfig map[string]interface{} `json:"trigger_config"`
	Conditions    []Condition            `json:"conditions"`
	Actions       []Action               `json:"actions"`
	IsActive      *bool                  `json:"is_active"`
}

// DryRunResult previews whether an automation's conditions hold against the
// current entity row, without executing anything
type DryRunResult struct {
	WouldTrigger  bool                   `json:"would_trigger"`
	ConditionsMet bool                   `json:"conditions_met"`
	Actions       []Action               `json:"actions"`
	EntityData    map[string]interface{} `json:"entity_data"`
}

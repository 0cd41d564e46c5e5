package automation

import "strings"

// writableFields lists, per entity table, the columns update_field may touch.
// Everything else (ids, foreign keys, timestamps) is off limits to automations.
var writableFields = map[string]map[string]bool{
	EntityOrganization: {
		"name":            true,
		"domain":          true,
		"industry":        true,
		"website":         true,
		"phone":           true,
		"employee_count":  true,
		"lifecycle_stage": true,
	},
	EntityPerson: {
		"first_name":      true,
		"last_name":       true,
		"phone":           true,
		"title":           true,
		"lifecycle_stage": true,
	},
	EntityOpportunity: {
		"name":        true,
		"stage":       true,
		"amount":      true,
		"probability": true,
		"close_date":  true,
		"next_step":   true,
	},
	EntityRFP: {
		"title":    true,
		"status":   true,
		"due_date": true,
	},
	EntityTask: {
		"title":       true,
		"description": true,
		"status":      true,
		"priority":    true,
		"due_date":    true,
	},
	EntityMeeting: {
		"title":        true,
		"meeting_type": true,
		"outcome":      true,
		"notes":        true,
	},
	EntityCall: {
		"disposition": true,
		"notes":       true,
	},
}

// customFieldPrefix addresses keys inside the entity's custom_fields JSON map.
const customFieldPrefix = "custom_fields."

// IsCustomField reports whether the field name addresses a custom field key.
func IsCustomField(field string) bool {
	return strings.HasPrefix(field, customFieldPrefix) && len(field) > len(customFieldPrefix)
}

// CustomFieldKey strips the custom_fields. prefix.
func CustomFieldKey(field string) string {
	return strings.TrimPrefix(field, customFieldPrefix)
}

// IsWritableField reports whether update_field may write the given column on
// the given entity type. Custom fields are handled separately.
func IsWritableField(entityType, field string) bool {
	fields, ok := writableFields[entityType]
	if !ok {
		return false
	}
	return fields[field]
}

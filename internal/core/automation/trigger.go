package automation

// Matches decides whether an event satisfies an automation's trigger config.
// It is a cheap pre-filter ahead of condition evaluation: every recognized
// config key is ANDed, and malformed or missing keys are treated as absent.
func Matches(triggerType string, config map[string]interface{}, event Event) bool {
	if want, ok := configString(config, "entity_type"); ok && want != event.EntityType {
		return false
	}

	switch triggerType {
	case TriggerFieldChanged:
		return matchesFieldChanged(config, event)

	case TriggerStageChanged:
		return matchesTransition(config, event, "from_stage", "to_stage", "stage")

	case TriggerRFPStatusChanged:
		return matchesTransition(config, event, "from_status", "to_status", "status")

	case TriggerCallDispositioned:
		return matchesDataKeys(config, event, "disposition", "direction")

	case TriggerMeetingCompleted:
		return matchesDataKeys(config, event, "meeting_type", "outcome")

	case TriggerSequenceReplied, TriggerSequenceCompleted:
		if want, ok := configString(config, "sequence_id"); ok {
			got := eventString(event.Metadata, "sequence_id")
			if got == "" {
				got = eventString(event.Data, "sequence_id")
			}
			if got != want {
				return false
			}
		}
		return true

	default:
		return true
	}
}

func matchesFieldChanged(config map[string]interface{}, event Event) bool {
	fieldName, ok := configString(config, "field_name")
	if !ok {
		return true
	}

	current := coerceString(event.Data[fieldName])
	previous := coerceString(previousValue(event, fieldName))
	if current == previous {
		return false
	}

	if toValue, ok := configString(config, "to_value"); ok && current != toValue {
		return false
	}
	return true
}

// matchesTransition checks optional from/to constraints against the previous
// and current value of one data field.
func matchesTransition(config map[string]interface{}, event Event, fromKey, toKey, field string) bool {
	if from, ok := configString(config, fromKey); ok {
		if coerceString(previousValue(event, field)) != from {
			return false
		}
	}
	if to, ok := configString(config, toKey); ok {
		if coerceString(event.Data[field]) != to {
			return false
		}
	}
	return true
}

// matchesDataKeys requires each configured key to equal the event's data
// field of the same name exactly.
func matchesDataKeys(config map[string]interface{}, event Event, keys ...string) bool {
	for _, key := range keys {
		if want, ok := configString(config, key); ok {
			if eventString(event.Data, key) != want {
				return false
			}
		}
	}
	return true
}

func previousValue(event Event, field string) interface{} {
	if event.PreviousData == nil {
		return nil
	}
	return event.PreviousData[field]
}

// configString reads a non-empty string config key; anything else counts as
// absent.
func configString(config map[string]interface{}, key string) (string, bool) {
	if config == nil {
		return "", false
	}
	s, ok := config[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func eventString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	return coerceString(data[key])
}

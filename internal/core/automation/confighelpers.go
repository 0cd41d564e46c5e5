package automation

import "github.com/google/uuid"

// configUUID reads a UUID-valued config key. Missing or malformed values
// report !ok rather than an error; the caller decides whether that fails the
// action.
func configUUID(config map[string]interface{}, key string) (uuid.UUID, bool) {
	raw, exists := config[key]
	if !exists {
		return uuid.Nil, false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// configUUIDList reads a list of UUID strings; malformed entries are dropped.
func configUUIDList(config map[string]interface{}, key string) []uuid.UUID {
	raw, exists := config[key]
	if !exists {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var ids []uuid.UUID
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

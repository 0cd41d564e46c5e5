package repositories

import "encoding/json"

// decodeJSONColumns rewrites raw jsonb column values inside a row into nested
// maps and slices. The driver hands jsonb back as []byte (or a string,
// depending on the scan path), which dot-path field resolution cannot descend
// into; conditions on custom_fields.<key> need the decoded form.
func decodeJSONColumns(row map[string]interface{}) map[string]interface{} {
	for column, value := range row {
		switch raw := value.(type) {
		case []byte:
			row[column] = decodeJSONValue(raw, string(raw))
		case json.RawMessage:
			row[column] = decodeJSONValue(raw, string(raw))
		case string:
			// Only rewrite strings that decode to a container, so ordinary
			// text columns pass through untouched.
			if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
				row[column] = decodeJSONValue([]byte(raw), raw)
			}
		}
	}
	return row
}

// decodeJSONValue returns the decoded container for a JSON object or array,
// and the fallback for anything else (scalars, invalid JSON).
func decodeJSONValue(raw []byte, fallback interface{}) interface{} {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fallback
	}
	switch decoded.(type) {
	case map[string]interface{}, []interface{}:
		return decoded
	default:
		return fallback
	}
}

func decodeJSONRows(rows []map[string]interface{}) []map[string]interface{} {
	for i := range rows {
		rows[i] = decodeJSONColumns(rows[i])
	}
	return rows
}

package automation

import (
	"fmt"
	"strconv"
	"strings"
)

// ConditionEvaluator evaluates automation conditions against entity data.
// It is a pure filter: malformed conditions evaluate to false, never to an
// error, so a bad rule can only suppress itself.
type ConditionEvaluator struct{}

// NewConditionEvaluator creates a new condition evaluator
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{}
}

// EvaluateAll evaluates all conditions against the provided data.
// Returns true if all conditions pass (or if no conditions exist).
func (e *ConditionEvaluator) EvaluateAll(conditions []Condition, data map[string]interface{}) bool {
	for _, condition := range conditions {
		if !e.evaluateSingle(condition, data) {
			return false
		}
	}
	return true
}

// blockedSegments are path segments that must never resolve, regardless of
// what keys the record actually carries.
var blockedSegments = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// ResolveField walks a dot-separated path through the data map. It returns
// (nil, false) when any segment is missing, not a map, or blocked.
func ResolveField(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current interface{} = data
	for _, segment := range segments {
		if blockedSegments[segment] {
			return nil, false
		}
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (e *ConditionEvaluator) evaluateSingle(condition Condition, data map[string]interface{}) bool {
	fieldValue, _ := ResolveField(data, condition.Field)

	switch condition.Operator {
	case "equals":
		return coerceString(fieldValue) == coerceString(condition.Value)

	case "not_equals":
		return coerceString(fieldValue) != coerceString(condition.Value)

	case "contains":
		return e.contains(fieldValue, condition.Value)

	case "not_contains":
		return !e.contains(fieldValue, condition.Value)

	case "greater_than":
		fieldNum, condNum, ok := coerceNumbers(fieldValue, condition.Value)
		return ok && fieldNum > condNum

	case "less_than":
		fieldNum, condNum, ok := coerceNumbers(fieldValue, condition.Value)
		return ok && fieldNum < condNum

	case "is_empty":
		return isEmpty(fieldValue)

	case "is_not_empty":
		return !isEmpty(fieldValue)

	case "in":
		return inList(fieldValue, condition.Value)

	case "not_in":
		list, ok := condition.Value.([]interface{})
		if !ok {
			return false
		}
		return !inListValues(fieldValue, list)

	default:
		// Unknown operator fails closed
		return false
	}
}

// contains is a case-insensitive substring test for strings and a membership
// test for array fields.
func (e *ConditionEvaluator) contains(fieldValue, conditionValue interface{}) bool {
	switch v := fieldValue.(type) {
	case string:
		needle, ok := conditionValue.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(v), strings.ToLower(needle))
	case []interface{}:
		return inListValues(conditionValue, v)
	default:
		return false
	}
}

func inList(fieldValue, conditionValue interface{}) bool {
	list, ok := conditionValue.([]interface{})
	if !ok {
		return false
	}
	return inListValues(fieldValue, list)
}

func inListValues(value interface{}, list []interface{}) bool {
	target := coerceString(value)
	for _, item := range list {
		if coerceString(item) == target {
			return true
		}
	}
	return false
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

// coerceString normalizes a value for string-coerced comparison, so 5 and
// "5" compare equal and nil compares equal to nil only.
func coerceString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceNumbers converts both sides to float64; any non-numeric input fails.
func coerceNumbers(a, b interface{}) (float64, float64, bool) {
	fa, okA := toFloat64(a)
	fb, okB := toFloat64(b)
	return fa, fb, okA && okB
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

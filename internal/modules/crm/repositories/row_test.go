package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklane/tracklane-be/internal/core/automation"
)

func TestDecodeJSONColumns_JSONBBytes(t *testing.T) {
	row := map[string]interface{}{
		"id":            "0f6a2e9c-1111-2222-3333-444455556666",
		"name":          "Acme",
		"custom_fields": []byte(`{"plan":"gold","seats":25}`),
		"labels":        []byte(`["hot","inbound"]`),
	}

	decoded := decodeJSONColumns(row)

	cf, ok := decoded["custom_fields"].(map[string]interface{})
	require.True(t, ok, "jsonb object should decode to a map")
	assert.Equal(t, "gold", cf["plan"])
	assert.Equal(t, float64(25), cf["seats"])

	labels, ok := decoded["labels"].([]interface{})
	require.True(t, ok, "jsonb array should decode to a slice")
	assert.Equal(t, []interface{}{"hot", "inbound"}, labels)

	// non-JSON columns pass through untouched
	assert.Equal(t, "Acme", decoded["name"])
}

func TestDecodeJSONColumns_StringsAndRawMessage(t *testing.T) {
	row := map[string]interface{}{
		"custom_fields": `{"plan":"gold"}`,
		"metadata":      json.RawMessage(`{"source":"import"}`),
		"notes":         "plain text, not json",
		"title":         "{brackets} but not json",
	}

	decoded := decodeJSONColumns(row)

	cf, ok := decoded["custom_fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "gold", cf["plan"])

	md, ok := decoded["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "import", md["source"])

	assert.Equal(t, "plain text, not json", decoded["notes"])
	assert.Equal(t, "{brackets} but not json", decoded["title"])
}

func TestDecodeJSONColumns_ScalarBytesFallBackToString(t *testing.T) {
	row := map[string]interface{}{
		"domain": []byte("acme.io"),
		"count":  []byte("42"),
	}

	decoded := decodeJSONColumns(row)
	assert.Equal(t, "acme.io", decoded["domain"])
	assert.Equal(t, "42", decoded["count"])
}

// A condition on custom_fields.<key> must see into the jsonb column exactly as
// it comes back from the driver.
func TestDecodedRowSupportsCustomFieldConditions(t *testing.T) {
	row := decodeJSONColumns(map[string]interface{}{
		"id":            "0f6a2e9c-1111-2222-3333-444455556666",
		"custom_fields": []byte(`{"plan":"gold"}`),
	})

	e := automation.NewConditionEvaluator()
	assert.True(t, e.EvaluateAll([]automation.Condition{
		{Field: "custom_fields.plan", Operator: "equals", Value: "gold"},
	}, row))
	assert.False(t, e.EvaluateAll([]automation.Condition{
		{Field: "custom_fields.plan", Operator: "is_empty"},
	}, row))
}

func TestDecodeJSONRows(t *testing.T) {
	rows := decodeJSONRows([]map[string]interface{}{
		{"custom_fields": []byte(`{"tier":"a"}`)},
		{"custom_fields": []byte(`{"tier":"b"}`)},
	})
	for i, tier := range []string{"a", "b"} {
		cf, ok := rows[i]["custom_fields"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, tier, cf["tier"])
	}
}

package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateErr(t *testing.T, data string, schema *Schema) *ValidationErrors {
	t.Helper()
	err := NewValidator().Validate([]byte(data), schema)
	require.Error(t, err)
	verrs, ok := err.(*ValidationErrors)
	require.True(t, ok)
	return verrs
}

func TestValidateNilSchema(t *testing.T) {
	assert.NoError(t, NewValidator().Validate([]byte(`whatever`), nil))
}

func TestValidateInvalidJSON(t *testing.T) {
	verrs := validateErr(t, `{broken`, String(""))
	assert.Contains(t, verrs.Error(), "invalid JSON")
}

func TestValidateString(t *testing.T) {
	schema := String("")
	assert.NoError(t, NewValidator().Validate([]byte(`"hello"`), schema))

	verrs := validateErr(t, `42`, schema)
	assert.Contains(t, verrs.Error(), "expected string")
}

func TestValidateStringLength(t *testing.T) {
	schema := String("")
	schema.MinLength = Int(3)
	schema.MaxLength = Int(5)

	assert.NoError(t, NewValidator().Validate([]byte(`"abcd"`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`"ab"`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`"abcdef"`), schema))
}

func TestValidateIntegerRange(t *testing.T) {
	schema := &Schema{Type: TypeInteger, Minimum: Float(1), Maximum: Float(10)}

	assert.NoError(t, NewValidator().Validate([]byte(`7`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`0`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`11`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`7.5`), schema))
}

func TestValidateEnum(t *testing.T) {
	schema := String("")
	schema.Enum = []any{"critical", "moderate", "minor"}

	assert.NoError(t, NewValidator().Validate([]byte(`"moderate"`), schema))

	verrs := validateErr(t, `"catastrophic"`, schema)
	assert.Contains(t, verrs.Error(), "must be one of")
}

func TestValidateObjectRequired(t *testing.T) {
	schema := Object("", map[string]*Schema{
		"gap":    String(""),
		"advice": String(""),
	})

	assert.NoError(t, NewValidator().Validate([]byte(`{"gap": "g", "advice": "a"}`), schema))

	verrs := validateErr(t, `{"gap": "g"}`, schema)
	assert.Contains(t, verrs.Error(), "advice")
	assert.Contains(t, verrs.Error(), "required field is missing")

	verrs = validateErr(t, `{"gap": "g", "advice": null}`, schema)
	assert.Contains(t, verrs.Error(), "must not be null")
}

func TestValidateNestedPaths(t *testing.T) {
	schema := Object("", map[string]*Schema{
		"gaps": Array("", Object("", map[string]*Schema{
			"severity": String(""),
		})),
	})

	verrs := validateErr(t, `{"gaps": [{"severity": "minor"}, {"severity": 3}]}`, schema)
	require.Len(t, verrs.Errors, 1)
	assert.Equal(t, "gaps[1].severity", verrs.Errors[0].Path)
}

func TestValidateArrayBounds(t *testing.T) {
	schema := Array("", String(""))
	schema.MinItems = Int(1)
	schema.MaxItems = Int(2)

	assert.NoError(t, NewValidator().Validate([]byte(`["a"]`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`[]`), schema))
	assert.Error(t, NewValidator().Validate([]byte(`["a", "b", "c"]`), schema))
}

func TestObjectMarksAllPropertiesRequired(t *testing.T) {
	schema := Object("", map[string]*Schema{
		"b": String(""),
		"a": String(""),
		"c": String(""),
	})

	assert.Equal(t, []string{"a", "b", "c"}, schema.Required)
}

// Package structured constrains generation-service output to a declared
// JSON schema. The schema is injected into the prompt and the response is
// validated after the call; a mismatch is a hard error, never silently
// accepted.
package structured

import (
	"encoding/json"
	"sort"
)

// SchemaType is a JSON Schema primitive type.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
)

// Schema is the subset of JSON Schema the validator understands: typed
// objects and arrays with required fields, enums, numeric ranges, string
// lengths, and array bounds.
type Schema struct {
	Type        SchemaType         `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinLength   *int               `json:"minLength,omitempty"`
	MaxLength   *int               `json:"maxLength,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
}

// ToJSONIndent renders the schema as indented JSON for prompt embedding.
func (s *Schema) ToJSONIndent() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers for literal schema declarations.

func Float(f float64) *float64 { return &f }
func Int(i int) *int           { return &i }

// Object builds an object schema with the given properties, all required.
func Object(desc string, props map[string]*Schema) *Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return &Schema{Type: TypeObject, Description: desc, Properties: props, Required: required}
}

// Array builds an array schema of the given item schema.
func Array(desc string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: items}
}

// String builds a string schema.
func String(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

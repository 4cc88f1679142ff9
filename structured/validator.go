package structured

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Validator validates JSON data against a Schema.
type Validator interface {
	Validate(data []byte, schema *Schema) error
}

// ParseError is a single validation failure with a field path.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors aggregates all failures of one validation pass.
type ValidationErrors struct {
	Errors []ParseError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// DefaultValidator is the stock Validator implementation.
type DefaultValidator struct{}

// NewValidator creates a DefaultValidator.
func NewValidator() *DefaultValidator {
	return &DefaultValidator{}
}

// Validate checks JSON data against a schema, collecting every failure.
func (v *DefaultValidator) Validate(data []byte, schema *Schema) error {
	if schema == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationErrors{
			Errors: []ParseError{{Message: fmt.Sprintf("invalid JSON: %v", err)}},
		}
	}

	var errs []ParseError
	v.validateValue(value, schema, "", &errs)
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func (v *DefaultValidator) validateValue(value any, schema *Schema, path string, errs *[]ParseError) {
	if schema == nil {
		return
	}

	if len(schema.Enum) > 0 {
		found := false
		for _, enumVal := range schema.Enum {
			if v.equalValues(value, enumVal) {
				found = true
				break
			}
		}
		if !found {
			*errs = append(*errs, ParseError{
				Path:    path,
				Message: fmt.Sprintf("value must be one of: %v", schema.Enum),
			})
		}
	}

	switch schema.Type {
	case TypeString:
		v.validateString(value, schema, path, errs)
	case TypeNumber:
		if num, ok := v.toFloat64(value); !ok {
			*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected number, got %T", value)})
		} else {
			v.validateRange(num, schema, path, errs)
		}
	case TypeInteger:
		v.validateInteger(value, schema, path, errs)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected boolean, got %T", value)})
		}
	case TypeObject:
		v.validateObject(value, schema, path, errs)
	case TypeArray:
		v.validateArray(value, schema, path, errs)
	}
}

func (v *DefaultValidator) validateString(value any, schema *Schema, path string, errs *[]ParseError) {
	str, ok := value.(string)
	if !ok {
		*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected string, got %T", value)})
		return
	}
	if schema.MinLength != nil && len(str) < *schema.MinLength {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("string length %d is less than minimum %d", len(str), *schema.MinLength),
		})
	}
	if schema.MaxLength != nil && len(str) > *schema.MaxLength {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("string length %d exceeds maximum %d", len(str), *schema.MaxLength),
		})
	}
}

func (v *DefaultValidator) validateInteger(value any, schema *Schema, path string, errs *[]ParseError) {
	num, ok := v.toFloat64(value)
	if !ok {
		*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected integer, got %T", value)})
		return
	}
	if num != math.Trunc(num) {
		*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected integer, got %v", num)})
		return
	}
	v.validateRange(num, schema, path, errs)
}

func (v *DefaultValidator) validateRange(num float64, schema *Schema, path string, errs *[]ParseError) {
	if schema.Minimum != nil && num < *schema.Minimum {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *schema.Minimum),
		})
	}
	if schema.Maximum != nil && num > *schema.Maximum {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("value %v exceeds maximum %v", num, *schema.Maximum),
		})
	}
}

func (v *DefaultValidator) validateObject(value any, schema *Schema, path string, errs *[]ParseError) {
	obj, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected object, got %T", value)})
		return
	}

	for _, req := range schema.Required {
		val, exists := obj[req]
		if !exists {
			*errs = append(*errs, ParseError{Path: v.joinPath(path, req), Message: "required field is missing"})
		} else if val == nil {
			*errs = append(*errs, ParseError{Path: v.joinPath(path, req), Message: "required field must not be null"})
		}
	}

	for propName, propValue := range obj {
		if propSchema, ok := schema.Properties[propName]; ok {
			v.validateValue(propValue, propSchema, v.joinPath(path, propName), errs)
		}
	}
}

func (v *DefaultValidator) validateArray(value any, schema *Schema, path string, errs *[]ParseError) {
	arr, ok := value.([]any)
	if !ok {
		*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("expected array, got %T", value)})
		return
	}
	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("array has %d items, minimum is %d", len(arr), *schema.MinItems),
		})
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		*errs = append(*errs, ParseError{
			Path:    path,
			Message: fmt.Sprintf("array has %d items, maximum is %d", len(arr), *schema.MaxItems),
		})
	}
	if schema.Items != nil {
		for i, item := range arr {
			v.validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", path, i), errs)
		}
	}
}

func (v *DefaultValidator) toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (v *DefaultValidator) equalValues(a, b any) bool {
	aNum, aIsNum := v.toFloat64(a)
	bNum, bIsNum := v.toFloat64(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}
	if aStr, ok := a.(string); ok {
		bStr, ok2 := b.(string)
		return ok2 && aStr == bStr
	}
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}

func (v *DefaultValidator) joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// ABOUTME: Parameter validation against the JSON-schema subset tools declare.
// ABOUTME: Required fields must be present; declared fields must match their type.

package tool

import (
	"encoding/json"
	"fmt"
)

// ValidationError reports a parameter that failed schema validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Field, e.Message)
}

// MustSchema parses a JSON schema literal, panicking on malformed input.
// Intended for compile-time schema constants, in the manner of template.Must.
func MustSchema(raw string) map[string]any {
	var schema map[string]any
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		panic(fmt.Sprintf("tool: invalid schema literal: %v", err))
	}
	return schema
}

// ValidateParams checks params against a schema. Every name in the schema's
// required list must be present, and values supplied for declared properties
// must match the declared JSON type. Parameters outside the schema pass
// through without complaint.
func ValidateParams(params map[string]any, schema map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, name := range requiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required parameter is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := prop["type"].(string)
		if wantType == "" || matchesType(value, wantType) {
			continue
		}
		return &ValidationError{
			Field:   name,
			Value:   value,
			Message: fmt.Sprintf("expected %s, got %T", wantType, value),
		}
	}
	return nil
}

// requiredFields reads the schema's required list, tolerating both []string
// (schemas built in Go) and []any (schemas decoded from JSON).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, f := range req {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

// matchesType reports whether a decoded JSON value satisfies a schema type.
// JSON numbers decode as float64, so integer checks accept whole floats.
func matchesType(value any, wantType string) bool {
	if value == nil {
		return true
	}
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

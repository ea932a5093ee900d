package tools

import (
	"fmt"
	"strings"
)

// Validate checks params against def: every required parameter is present
// first, then kinds and allowed values. The first broken rule is reported;
// parameters the definition does not declare are ignored.
func Validate(def ToolDefinition, params Params) error {
	for _, p := range def.Parameters {
		if !p.Required {
			continue
		}
		if value, present := params[p.Name]; !present || value.IsNull() {
			return fmt.Errorf("%w: %s: missing required parameter %q", ErrValidation, def.Name, p.Name)
		}
	}
	for _, p := range def.Parameters {
		value, present := params[p.Name]
		if !present || value.IsNull() {
			continue
		}
		if value.Kind() != p.Kind {
			return fmt.Errorf("%w: %s: wrong type for parameter %q: expected %s, got %s",
				ErrValidation, def.Name, p.Name, p.Kind, value.Kind())
		}
		if len(p.AllowedValues) > 0 && !allowed(p.AllowedValues, value.String()) {
			return fmt.Errorf("%w: %s: invalid value %q for parameter %q (allowed: %s)",
				ErrValidation, def.Name, value.String(), p.Name, strings.Join(p.AllowedValues, ", "))
		}
	}
	return nil
}

func allowed(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Prepare normalizes then validates call against def.
func Prepare(def ToolDefinition, call ToolCall) (ToolCall, error) {
	params := Normalize(def, call.Parameters)
	if err := Validate(def, params); err != nil {
		return call, err
	}
	return ToolCall{Tool: def.Name, Parameters: params}, nil
}

package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tally-dashboard/internal/models"
)

// dateLayouts are the accepted textual date formats, tried in order
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Summary joins field errors into one line for logs and wrapped errors
func Summary(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// ValidateRecord checks a full record against a collection schema.
// Every required field must be present and unknown fields are rejected.
// Derived fields are skipped; the store recomputes them.
func ValidateRecord(schema *models.Schema, raw map[string]interface{}) (map[string]interface{}, []ValidationError) {
	values, errs := validate(schema.Fields, raw)

	var unknown []string
	for name := range raw {
		if _, ok := schema.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, ValidationError{Field: name, Message: "unknown field"})
	}

	return values, errs
}

// ValidateForm checks submitted form values against the declared fields.
// Keys that the form does not declare are ignored.
func ValidateForm(fields []models.Field, raw map[string]interface{}) (map[string]interface{}, []ValidationError) {
	return validate(fields, raw)
}

// ValidateValue checks one value against its field declaration
func ValidateValue(field models.Field, raw interface{}) (interface{}, *ValidationError) {
	if isBlank(raw) {
		if field.Required {
			return nil, &ValidationError{Field: field.Name, Message: field.Name + " is required"}
		}
		return nil, nil
	}
	value, err := coerce(field, raw)
	if err != nil {
		return nil, err
	}
	if err := checkConstraints(field, value); err != nil {
		return nil, err
	}
	return value, nil
}

func validate(fields []models.Field, raw map[string]interface{}) (map[string]interface{}, []ValidationError) {
	var errors []ValidationError
	values := make(map[string]interface{}, len(fields))

	for _, field := range fields {
		if field.Derived {
			continue
		}
		value, err := ValidateValue(field, raw[field.Name])
		if err != nil {
			errors = append(errors, *err)
			continue
		}
		if value != nil {
			values[field.Name] = value
		}
	}

	return values, errors
}

func isBlank(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func coerce(field models.Field, raw interface{}) (interface{}, *ValidationError) {
	switch field.Type {
	case models.FieldString:
		return coerceString(field, raw)
	case models.FieldEnum:
		s, err := coerceString(field, raw)
		if err != nil {
			return nil, err
		}
		for _, opt := range field.Options {
			if s == opt {
				return s, nil
			}
		}
		return nil, &ValidationError{
			Field:   field.Name,
			Message: fmt.Sprintf("invalid %s, must be one of: %s", field.Name, strings.Join(field.Options, ", ")),
			Value:   raw,
		}
	case models.FieldNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, &ValidationError{Field: field.Name, Message: field.Name + " must be a number", Value: raw}
		}
		return f, nil
	case models.FieldInteger:
		f, ok := toFloat(raw)
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
			return nil, &ValidationError{Field: field.Name, Message: field.Name + " must be a whole number", Value: raw}
		}
		return int64(f), nil
	case models.FieldDate:
		if t, ok := raw.(time.Time); ok {
			return t, nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, &ValidationError{Field: field.Name, Message: "invalid date format", Value: raw}
		}
		t, err := ParseDate(s)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Message: "invalid date format, expected YYYY-MM-DD", Value: raw}
		}
		return t, nil
	}
	return nil, &ValidationError{Field: field.Name, Message: fmt.Sprintf("unsupported field type %q", field.Type)}
}

func coerceString(field models.Field, raw interface{}) (string, *ValidationError) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	}
	return "", &ValidationError{Field: field.Name, Message: field.Name + " must be text", Value: raw}
}

func toFloat(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func checkConstraints(field models.Field, value interface{}) *ValidationError {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int64:
		n = float64(v)
	default:
		return nil
	}

	if field.NonNegative && n < 0 {
		return &ValidationError{Field: field.Name, Message: field.Name + " must be non-negative", Value: value}
	}
	if field.Min != nil && n < *field.Min {
		return &ValidationError{Field: field.Name, Message: fmt.Sprintf("%s must be at least %g", field.Name, *field.Min), Value: value}
	}
	if field.Max != nil && n > *field.Max {
		return &ValidationError{Field: field.Name, Message: fmt.Sprintf("%s must be at most %g", field.Name, *field.Max), Value: value}
	}
	return nil
}

// ParseDate parses the accepted date formats
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

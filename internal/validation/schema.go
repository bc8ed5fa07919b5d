// Package validation evaluates loosely typed request input against typed field rules.
package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Kind is the target type a field is coerced into.
type Kind int

// Supported field kinds.
const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Field describes the rules for one input key.
type Field struct {
	Name           string
	Kind           Kind
	Required       bool
	Pattern        *regexp.Regexp
	PatternMessage string
	Min            *int
	Max            *int
	OneOf          []string
	Default        interface{}
}

// Order requires Values[After] to be strictly greater than Values[Before] when both are present.
type Order struct {
	Before  string
	After   string
	Message string
}

// Schema is a set of field and cross-field rules.
type Schema struct {
	Fields []Field
	Orders []Order
}

// FieldError is a single rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result is the outcome of evaluating input. Values only holds keys that passed coercion.
type Result struct {
	Values map[string]interface{}
	Errors []FieldError
}

// Int returns a pointer to v, for Min/Max rules.
func Int(v int) *int {
	return &v
}

// OK reports whether every rule passed.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Err converts a failed result into a validation error with field details.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field, fe.Message))
	}
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrValidation, "validation failed: "+strings.Join(parts, "; ")),
		r.Errors,
	)
}

// Decode maps the coerced values into dest using mapstructure tags.
func (r Result) Decode(dest interface{}) error {
	if !r.OK() {
		return r.Err()
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  dest,
		TagName: "mapstructure",
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build decoder")
	}
	if err := decoder.Decode(r.Values); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}

// Evaluate checks input against the schema. It never panics; every problem is reported as a FieldError.
func (s Schema) Evaluate(input map[string]interface{}) Result {
	result := Result{Values: make(map[string]interface{}), Errors: []FieldError{}}
	failed := make(map[string]bool)

	for _, field := range s.Fields {
		raw, present := input[field.Name]
		if present && isBlank(raw) {
			present = false
		}
		if !present {
			if field.Default != nil {
				result.Values[field.Name] = field.Default
			} else if field.Required {
				result.add(field.Name, "required", "is required")
				failed[field.Name] = true
			}
			continue
		}

		value, err := coerce(field.Kind, raw)
		if err != nil {
			result.add(field.Name, "type", err.Error())
			failed[field.Name] = true
			continue
		}
		if fe := field.check(value); fe != nil {
			result.Errors = append(result.Errors, *fe)
			failed[field.Name] = true
			continue
		}
		result.Values[field.Name] = value
	}

	for _, order := range s.Orders {
		if failed[order.Before] || failed[order.After] {
			continue
		}
		before, okBefore := result.Values[order.Before]
		after, okAfter := result.Values[order.After]
		if !okBefore || !okAfter {
			continue
		}
		if !greater(after, before) {
			msg := order.Message
			if msg == "" {
				msg = fmt.Sprintf("must be after %s", order.Before)
			}
			result.add(order.After, "order", msg)
		}
	}
	return result
}

func (r *Result) add(field, rule, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Rule: rule, Message: message})
}

func (f Field) check(value interface{}) *FieldError {
	switch v := value.(type) {
	case string:
		if f.Pattern != nil && !f.Pattern.MatchString(v) {
			msg := f.PatternMessage
			if msg == "" {
				msg = fmt.Sprintf("must match %s", f.Pattern.String())
			}
			return &FieldError{Field: f.Name, Rule: "pattern", Message: msg}
		}
		if len(f.OneOf) > 0 && !contains(f.OneOf, v) {
			return &FieldError{Field: f.Name, Rule: "oneOf", Message: "must be one of " + strings.Join(f.OneOf, ", ")}
		}
	case int:
		if f.Min != nil && v < *f.Min {
			return &FieldError{Field: f.Name, Rule: "min", Message: fmt.Sprintf("must be at least %d", *f.Min)}
		}
		if f.Max != nil && v > *f.Max {
			return &FieldError{Field: f.Name, Rule: "max", Message: fmt.Sprintf("must be at most %d", *f.Max)}
		}
	}
	return nil
}

func coerce(kind Kind, raw interface{}) (interface{}, error) {
	switch kind {
	case KindInt:
		switch v := raw.(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("must be an integer")
			}
			return n, nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("must be an integer")
			}
		case float32:
			if float64(v) != math.Trunc(float64(v)) {
				return nil, fmt.Errorf("must be an integer")
			}
		case bool:
			return nil, fmt.Errorf("must be an integer")
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return n, nil
	case KindBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	default:
		switch raw.(type) {
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("must be a string")
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a string")
		}
		return strings.TrimSpace(s), nil
	}
}

func greater(a, b interface{}) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av > bv
	case string:
		bv, ok := b.(string)
		return ok && av > bv
	}
	return false
}

func isBlank(raw interface{}) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// FromValues flattens query parameters into evaluator input, keeping the first value per key.
func FromValues(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for key, list := range values {
		if len(list) > 0 {
			out[key] = list[0]
		}
	}
	return out
}

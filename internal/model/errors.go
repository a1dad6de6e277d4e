package model

import "fmt"

// ValidationError reports a record field that violates its constraints.
type ValidationError struct {
	Kind   Kind
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s (got %#v)", e.Kind, e.Field, e.Reason, e.Value)
}

func invalid(kind Kind, field string, value any, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Value: value, Reason: reason}
}

package snowmelt

import (
	"errors"
	"fmt"
)

// ErrDomain is matched by every DomainError via errors.Is
var ErrDomain = errors.New("value outside physically valid domain")

// DomainError reports an input that would make one of the formulas produce
// NaN or Infinity (a fraction outside [0,1], a non-positive height, a zero
// wind speed, and so on).
type DomainError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

// Is lets callers test for ErrDomain without caring about the field
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

func domainError(field string, value float64, reason string) error {
	return &DomainError{Field: field, Value: value, Reason: reason}
}

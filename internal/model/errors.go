package model

import (
	"errors"
	"fmt"
)

var (
	ErrInput            = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUpstreamTimeout  = errors.New("upstream evaluator timed out")
	ErrUpstreamError    = errors.New("upstream evaluator error")
	ErrBudgetExhausted  = errors.New("evaluation budget exhausted")
)

// InputError rejects a submission before it enters the pipeline
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInput, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInput
}

// FailureLabel maps a gateway error to its telemetry label
func FailureLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrBudgetExhausted):
		return "budget_exhausted"
	default:
		return "upstream_error"
	}
}

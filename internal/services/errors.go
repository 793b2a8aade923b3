package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input; never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration; never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrClassification marks an unreachable classifier or a non-conforming
	// model response; retried by the workflow engine.
	ErrClassification = errors.New("classification error")
	// ErrStorage marks a transient persistence failure; retried by the engine.
	ErrStorage = errors.New("storage error")
	// ErrAlert marks a notification delivery failure; advisory, never fatal.
	ErrAlert = errors.New("alert error")
	// ErrTransient marks any other failure worth retrying.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later retry classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether a step error should fail the job immediately
// instead of consuming the remaining retry budget.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

// IsAdvisory reports whether a step error is logged but never fails the job.
func IsAdvisory(err error) bool {
	return errors.Is(err, ErrAlert)
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

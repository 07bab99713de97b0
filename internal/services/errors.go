package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermanent marks failures caused by the content of an input file.
	// Retrying with the same input cannot succeed.
	ErrPermanent = errors.New("permanent error")
	// ErrProgramming marks failures in the integration itself: bad credentials,
	// malformed handles, API contract drift or exhausted transport retries.
	ErrProgramming = errors.New("programming error")
)

// Kind classifies an error by the marker it carries.
type Kind string

const (
	KindPermanent   Kind = "permanent"
	KindProgramming Kind = "programming"
	KindUnknown     Kind = "unknown"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above; a nil marker defaults to ErrProgramming.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProgramming
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Permanent is shorthand for Wrap(ErrPermanent, ...).
func Permanent(component, operation, message string, err error) error {
	return Wrap(ErrPermanent, component, operation, message, err)
}

// Programming is shorthand for Wrap(ErrProgramming, ...).
func Programming(component, operation, message string, err error) error {
	return Wrap(ErrProgramming, component, operation, message, err)
}

// KindOf reports which marker err carries.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPermanent):
		return KindPermanent
	case errors.Is(err, ErrProgramming):
		return KindProgramming
	default:
		return KindUnknown
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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

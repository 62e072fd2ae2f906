package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/models"
)

// Service errors. Callers match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = models.ErrInvalidTransition
	ErrUnauthorized      = auth.ErrUnauthorized
	ErrNotFound          = errors.New("not found")
	ErrIntegrity         = errors.New("integrity violation")
)

// ValidationError reports one or more rejected input fields.
type ValidationError struct {
	Fields map[string]string
}

// Error lists the offending fields in a stable order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// fieldError builds a single-field ValidationError.
func fieldError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// fieldErrors collects per-field messages and yields nil when none were added.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

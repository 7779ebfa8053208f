// Package parser turns raw export payloads (CSV, JSON, HTML tables,
// script-embedded XML, activity pages) into typed records. Row-level problems
// are reported as warnings and the row is dropped; only structurally invalid
// documents produce an error.
package parser

import (
	"fmt"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// Result is the output of one parser run over one payload.
type Result[T any] struct {
	Data     []T
	Warnings []models.Warning
	// Rows counts the candidate rows seen, parsed or not.
	Rows int
}

func (r *Result[T]) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, models.Warning{Message: fmt.Sprintf(format, args...)})
}

// Skipped returns how many candidate rows were dropped.
func (r *Result[T]) Skipped() int {
	return r.Rows - len(r.Data)
}

// SchemaError reports a payload that is structurally invalid as a whole:
// bad JSON or XML, or a CSV header missing required columns.
type SchemaError struct {
	Format string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s document: %v", e.Format, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func schemaErrorf(format, msg string, args ...interface{}) *SchemaError {
	return &SchemaError{Format: format, Err: fmt.Errorf(msg, args...)}
}

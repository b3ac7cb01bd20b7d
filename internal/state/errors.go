package state

import (
	"errors"
	"fmt"

	"github.com/tally-dashboard/internal/validation"
)

var (
	ErrUninitialized     = errors.New("state store used before initialisation")
	ErrUnknownKey        = errors.New("unknown state key")
	ErrInvalidValue      = errors.New("invalid value for state key")
	ErrReadOnlyKey       = errors.New("collections change only through append or update")
	ErrInvalidSession    = errors.New("role cannot be set without a logged-in session")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrSchemaViolation   = errors.New("record violates collection schema")
	ErrRecordNotFound    = errors.New("record not found")
	ErrAppendOnly        = errors.New("collection is append-only")
)

// SchemaError lists the field errors behind an ErrSchemaViolation
type SchemaError struct {
	Collection string
	Row        int // 1-based row for batch appends, 0 otherwise
	Errors     []validation.ValidationError
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s row %d: %s", e.Collection, e.Row, validation.Summary(e.Errors))
	}
	return fmt.Sprintf("%s: %s", e.Collection, validation.Summary(e.Errors))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

package schema

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no compiler is registered for a format.
var ErrUnsupportedFormat = errors.New("unsupported schema format")

// DefinitionError reports a schema definition that could not be turned into a Layout.
type DefinitionError struct {
	Format Format `json:"format"`
	Field  string `json:"field,omitempty"`
	Err    error  `json:"-"`
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s schema: field '%s': %v", e.Format, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s schema: %v", e.Format, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// Details returns the structured fields of the error for API responses.
func (e *DefinitionError) Details() map[string]interface{} {
	d := map[string]interface{}{"format": string(e.Format)}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

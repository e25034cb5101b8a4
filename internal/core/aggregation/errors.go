package aggregation

import (
	"errors"
	"fmt"
	"strings"
)

// Causes of an InvalidExpressionError. Match them with errors.Is.
var (
	ErrEmptyRule            = errors.New("rule does not contain any fragment")
	ErrEmptyFragment        = errors.New("empty fragment")
	ErrInvalidCharacters    = errors.New("invalid characters detected")
	ErrMissingSeparator     = errors.New("missing separator between fragments")
	ErrMissingParenthesis   = errors.New("missing parenthesis or separator")
	ErrUnmatchedParenthesis = errors.New("unmatched parenthesis")
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrKeyNotAllowed        = errors.New("key clause is not allowed in a reduce rule")
	ErrDuplicateKey         = errors.New("key field is not unique")
	ErrMissingKey           = errors.New("rule does not contain a key field")
	ErrMissingReduction     = errors.New("rule does not contain a reduce function")
	ErrUnsupportedOperation = errors.New("unsupported operation type")
	ErrUnsupportedFunction  = errors.New("unsupported function")
	ErrFieldMismatch        = errors.New("unsupported or unused field")
	ErrAlreadyAggregated    = errors.New("field already aggregated")
	ErrIncompatibleType     = errors.New("incorrect type of field for function")
)

// InvalidExpressionError reports a rule that cannot be parsed or validated.
type InvalidExpressionError struct {
	// Kind is one of the Err* causes above.
	Kind error
	// Fragment is the offending rule fragment, empty for rule-wide errors.
	Fragment string
	// Offset is the byte offset inside Fragment, or -1.
	Offset int
	// Token is the text found at Offset.
	Token  string
	Detail string
}

func (e *InvalidExpressionError) Error() string {
	var b strings.Builder
	b.WriteString("invalid aggregation expression: ")
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Fragment != "" {
		fmt.Fprintf(&b, " in fragment %q", e.Fragment)
		if e.Offset >= 0 {
			fmt.Fprintf(&b, " at offset %d", e.Offset)
		}
		if e.Token != "" {
			fmt.Fprintf(&b, " near %q", e.Token)
		}
	}
	return b.String()
}

func (e *InvalidExpressionError) Unwrap() error {
	return e.Kind
}

// Details returns the structured fields of the error for API responses.
func (e *InvalidExpressionError) Details() map[string]interface{} {
	d := make(map[string]interface{})
	if e.Fragment != "" {
		d["fragment"] = e.Fragment
	}
	if e.Offset >= 0 && e.Fragment != "" {
		d["offset"] = e.Offset
	}
	if e.Token != "" {
		d["token"] = e.Token
	}
	return d
}

func ruleError(kind error, detail string) *InvalidExpressionError {
	return &InvalidExpressionError{Kind: kind, Offset: -1, Detail: detail}
}

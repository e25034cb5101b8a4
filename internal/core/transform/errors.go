package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Causes of a CompilationError.
var (
	ErrEmptyTransformation = errors.New("transformation set is empty")
	ErrEmptyOutputName     = errors.New("output field name is empty")
	ErrEmptyExpression     = errors.New("expression is empty")
	ErrUnknownOperation    = errors.New("unknown operation")
	ErrArityMismatch       = errors.New("arity mismatch")
	ErrUndeclaredField     = errors.New("undeclared field")
	ErrDuplicateOutput     = errors.New("output field declared more than once")
	ErrArgumentType        = errors.New("argument type mismatch")
	ErrMissingResource     = errors.New("lookup resource is not configured")
	ErrInvalidLiteral      = errors.New("invalid literal")
)

// Errors returned by Program.Apply. They concern the record being processed,
// never the structure of the program.
var (
	ErrRecordShape    = errors.New("record does not match the input layout")
	ErrValueType      = errors.New("field value has an unexpected type")
	ErrDivisionByZero = errors.New("division by zero")
)

// CompilationError reports a transformation that cannot be compiled.
type CompilationError struct {
	// Kind is one of the Err* compile causes above.
	Kind error
	// Output is the output field being compiled, if any.
	Output string
	// Expr is the rendering of the offending expression node.
	Expr   string
	Detail string
}

func (e *CompilationError) Error() string {
	var b strings.Builder
	b.WriteString("compilation error: ")
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Expr != "" {
		fmt.Fprintf(&b, " in expression %s", e.Expr)
	}
	if e.Output != "" {
		fmt.Fprintf(&b, " for output %q", e.Output)
	}
	return b.String()
}

func (e *CompilationError) Unwrap() error {
	return e.Kind
}

// Details returns the structured fields of the error for API responses.
func (e *CompilationError) Details() map[string]interface{} {
	d := make(map[string]interface{})
	if e.Output != "" {
		d["output"] = e.Output
	}
	if e.Expr != "" {
		d["expression"] = e.Expr
	}
	return d
}

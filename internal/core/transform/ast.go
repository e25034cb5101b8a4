// Package transform compiles field-transformation expressions into pure
// record functions.
//
// A transformation set is an ordered list of FieldTransformation values. Each
// one binds an output field name to an expression tree made of literals,
// field references and operation calls. Compilation resolves every name
// against the input layout and the operation registry up front, so a compiled
// Program never fails on structure while records are processed.
package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is an expression node. The set of implementations is closed:
// Literal, FieldRef and Call.
type Expr interface {
	exprNode()
	String() string
}

// Literal is a constant. Value is a number, a decimal.Decimal, a string or a bool.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

func (l Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return strconv.Quote(v)
	case decimal.Decimal:
		return v.String()
	case nil:
		return "null"
	}
	return fmt.Sprint(l.Value)
}

// FieldRef reads an input field by name.
type FieldRef struct {
	Name string
}

func (FieldRef) exprNode() {}

func (f FieldRef) String() string { return f.Name }

// Call applies a registered operation to its argument expressions.
type Call struct {
	Op   string
	Args []Expr
}

func (Call) exprNode() {}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a == nil {
			args[i] = "<nil>"
			continue
		}
		args[i] = a.String()
	}
	return c.Op + "(" + strings.Join(args, ", ") + ")"
}

// NewCall builds a Call node.
func NewCall(op string, args ...Expr) Call {
	return Call{Op: op, Args: args}
}

// FieldTransformation binds the result of Expr to the output field Output.
type FieldTransformation struct {
	Output string
	Expr   Expr
}

// PassThrough copies the input field name to an output field of the same name.
func PassThrough(name string) FieldTransformation {
	return FieldTransformation{Output: name, Expr: FieldRef{Name: name}}
}

// Rename copies the input field from to an output field named output.
func Rename(output, from string) FieldTransformation {
	return FieldTransformation{Output: output, Expr: FieldRef{Name: from}}
}

func (t FieldTransformation) String() string {
	if ref, ok := t.Expr.(FieldRef); ok && ref.Name == t.Output {
		return t.Output
	}
	if t.Expr == nil {
		return t.Output + " = <nil>"
	}
	return t.Output + " = " + t.Expr.String()
}

package transform

import (
	"errors"
	"fmt"

	"github.com/aevon-lab/flowrule/internal/core/values"
	"github.com/aevon-lab/flowrule/internal/schema"
)

// Record is one input row. Positions follow the input layout.
type Record []any

// Tuple is one output row. Positions follow the declared transformation order.
type Tuple []any

// Evaluator computes the value of a compiled expression for a record.
type Evaluator func(Record) (any, error)

// Compiler turns expressions over a fixed input layout into evaluators.
// A Compiler is immutable and may be shared.
type Compiler struct {
	input     schema.Layout
	index     map[string]int
	registry  *Registry
	resources Resources
}

// NewCompiler returns a compiler for records shaped like input. A nil registry
// means DefaultRegistry. resources may be nil when no lookup operation is used.
func NewCompiler(input schema.Layout, registry *Registry, resources Resources) *Compiler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	res := make(Resources, len(resources))
	for kind, r := range resources {
		res[kind] = r
	}
	return &Compiler{
		input:     input,
		index:     input.Index(),
		registry:  registry,
		resources: res,
	}
}

// compiled is a checked expression node.
type compiled struct {
	eval Evaluator
	typ  schema.DataType
	// constant is set for literals so numeric text can be converted once.
	constant any
	literal  bool
}

// CompileExpr checks e and returns its evaluator and result type.
func (c *Compiler) CompileExpr(e Expr) (Evaluator, schema.DataType, error) {
	node, err := c.compile(e)
	if err != nil {
		return nil, "", err
	}
	return node.eval, node.typ, nil
}

func (c *Compiler) compile(e Expr) (compiled, error) {
	switch n := e.(type) {
	case nil:
		return compiled{}, &CompilationError{Kind: ErrEmptyExpression}
	case Literal:
		return compileLiteral(n)
	case *Literal:
		if n == nil {
			return compiled{}, &CompilationError{Kind: ErrEmptyExpression}
		}
		return compileLiteral(*n)
	case FieldRef:
		return c.compileField(n)
	case *FieldRef:
		if n == nil {
			return compiled{}, &CompilationError{Kind: ErrEmptyExpression}
		}
		return c.compileField(*n)
	case Call:
		return c.compileCall(n)
	case *Call:
		if n == nil {
			return compiled{}, &CompilationError{Kind: ErrEmptyExpression}
		}
		return c.compileCall(*n)
	}
	return compiled{}, &CompilationError{Kind: ErrEmptyExpression, Detail: fmt.Sprintf("unsupported node %T", e)}
}

func compileLiteral(l Literal) (compiled, error) {
	var (
		v   any
		typ schema.DataType
	)
	switch val := l.Value.(type) {
	case string:
		v, typ = val, schema.TypeString
	case bool:
		v, typ = val, schema.TypeBool
	default:
		d, ok := values.ToDecimal(val)
		if !ok {
			return compiled{}, &CompilationError{
				Kind:   ErrInvalidLiteral,
				Expr:   l.String(),
				Detail: fmt.Sprintf("unsupported literal type %T", l.Value),
			}
		}
		v, typ = d, schema.TypeDecimal
	}
	return compiled{
		eval:     func(Record) (any, error) { return v, nil },
		typ:      typ,
		constant: v,
		literal:  true,
	}, nil
}

func (c *Compiler) compileField(f FieldRef) (compiled, error) {
	pos, ok := c.index[f.Name]
	if !ok {
		return compiled{}, &CompilationError{
			Kind:   ErrUndeclaredField,
			Expr:   f.String(),
			Detail: fmt.Sprintf("field %q is not part of the input layout", f.Name),
		}
	}
	return compiled{
		eval: func(r Record) (any, error) { return r[pos], nil },
		typ:  c.input[pos].Type,
	}, nil
}

func (c *Compiler) compileCall(call Call) (compiled, error) {
	op, ok := c.registry.Lookup(call.Op)
	if !ok {
		return compiled{}, &CompilationError{
			Kind:   ErrUnknownOperation,
			Expr:   call.String(),
			Detail: fmt.Sprintf("operation %q is not registered", call.Op),
		}
	}
	if len(call.Args) != op.Arity() {
		return compiled{}, &CompilationError{
			Kind:   ErrArityMismatch,
			Expr:   call.String(),
			Detail: fmt.Sprintf("%s takes %d arguments, got %d", op.Name, op.Arity(), len(call.Args)),
		}
	}

	var res Resource
	if op.Resource != "" {
		res = c.resources[op.Resource]
		if res == nil {
			return compiled{}, &CompilationError{
				Kind:   ErrMissingResource,
				Expr:   call.String(),
				Detail: fmt.Sprintf("%s needs the %q lookup", op.Name, op.Resource),
			}
		}
	}

	args := make([]Evaluator, len(call.Args))
	for i, argExpr := range call.Args {
		arg, err := c.compile(argExpr)
		if err != nil {
			return compiled{}, err
		}
		conv, err := coerceArg(arg, op.Args[i])
		if err != nil {
			return compiled{}, &CompilationError{
				Kind:   ErrArgumentType,
				Expr:   call.String(),
				Detail: fmt.Sprintf("argument %d of %s: %v", i+1, op.Name, err),
			}
		}
		args[i] = conv
	}

	eval := op.Eval
	return compiled{
		eval: func(r Record) (any, error) {
			in := make([]any, len(args))
			for i, arg := range args {
				v, err := arg(r)
				if err != nil {
					return nil, err
				}
				if v == nil {
					return nil, nil
				}
				in[i] = v
			}
			out, err := eval(in, res)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op.Name, err)
			}
			return out, nil
		},
		typ: op.Result,
	}, nil
}

// coerceArg checks that arg can feed a parameter of kind and wraps its
// evaluator so the operation receives a decimal.Decimal or a string.
func coerceArg(arg compiled, kind ArgKind) (Evaluator, error) {
	switch kind {
	case ArgNumeric:
		if arg.literal {
			d, ok := values.ToDecimal(arg.constant)
			if !ok {
				return nil, fmt.Errorf("literal %v is not numeric", arg.constant)
			}
			return func(Record) (any, error) { return d, nil }, nil
		}
		if !arg.typ.IsNumeric() {
			return nil, fmt.Errorf("expected numeric value, got %s", arg.typ)
		}
		inner := arg.eval
		return func(r Record) (any, error) {
			v, err := inner(r)
			if err != nil || v == nil {
				return nil, err
			}
			d, ok := values.ToDecimal(v)
			if !ok {
				return nil, fmt.Errorf("%w: expected number, got %T", ErrValueType, v)
			}
			return d, nil
		}, nil

	case ArgText:
		if arg.typ != schema.TypeString {
			return nil, fmt.Errorf("expected string value, got %s", arg.typ)
		}
		inner := arg.eval
		return func(r Record) (any, error) {
			v, err := inner(r)
			if err != nil || v == nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, v)
			}
			return s, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown argument kind %s", kind)
}

// Compile checks a transformation set and returns the program producing one
// tuple per record, in declared order.
func (c *Compiler) Compile(transformations []FieldTransformation) (*Program, error) {
	if len(transformations) == 0 {
		return nil, &CompilationError{Kind: ErrEmptyTransformation}
	}

	fields := make([]Evaluator, 0, len(transformations))
	output := make(schema.Layout, 0, len(transformations))
	seen := make(map[string]struct{}, len(transformations))

	for _, t := range transformations {
		if t.Output == "" {
			return nil, &CompilationError{Kind: ErrEmptyOutputName, Expr: exprString(t.Expr)}
		}
		if _, dup := seen[t.Output]; dup {
			return nil, &CompilationError{Kind: ErrDuplicateOutput, Output: t.Output}
		}
		seen[t.Output] = struct{}{}

		node, err := c.compile(t.Expr)
		if err != nil {
			var ce *CompilationError
			if errors.As(err, &ce) && ce.Output == "" {
				ce.Output = t.Output
			}
			return nil, err
		}

		fields = append(fields, node.eval)
		output = append(output, schema.FieldSpec{Name: t.Output, Type: node.typ})
	}

	return &Program{
		width:  len(c.input),
		fields: fields,
		output: output,
	}, nil
}

// Compile is a shorthand for NewCompiler(input, DefaultRegistry(), resources).Compile.
func Compile(input schema.Layout, transformations []FieldTransformation, resources Resources) (*Program, error) {
	return NewCompiler(input, nil, resources).Compile(transformations)
}

func exprString(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

// Program is a compiled transformation set. It holds no mutable state;
// Apply may be called concurrently.
type Program struct {
	width  int
	fields []Evaluator
	output schema.Layout
}

// Output returns the layout of the tuples Apply produces.
func (p *Program) Output() schema.Layout {
	out := make(schema.Layout, len(p.output))
	copy(out, p.output)
	return out
}

// Apply transforms one record. Errors only come from the record's values:
// a wrong number of fields, a value of the wrong type, or a division by zero.
// A null field makes every operation that reads it yield null.
func (p *Program) Apply(r Record) (Tuple, error) {
	if len(r) != p.width {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrRecordShape, len(r), p.width)
	}
	out := make(Tuple, len(p.fields))
	for i, f := range p.fields {
		v, err := f(r)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", p.output[i].Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Func returns Apply as a plain function value for engines that take one.
func (p *Program) Func() func(Record) (Tuple, error) {
	return p.Apply
}

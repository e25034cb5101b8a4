package transform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/shopspring/decimal"
)

// ArgKind is the kind of value an operation argument must evaluate to.
type ArgKind int

const (
	// ArgNumeric arguments are passed to Eval as decimal.Decimal.
	ArgNumeric ArgKind = iota + 1
	// ArgText arguments are passed to Eval as string.
	ArgText
)

func (k ArgKind) String() string {
	switch k {
	case ArgNumeric:
		return "numeric"
	case ArgText:
		return "text"
	}
	return fmt.Sprintf("ArgKind(%d)", int(k))
}

// Resource is a read-only lookup dataset shared by every compiled program that
// references it. Implementations must be safe for concurrent Lookup calls.
type Resource interface {
	Lookup(key string) (string, bool)
}

// Resources maps a lookup kind (country, city, asn) to its opened resource.
type Resources map[string]Resource

// Operation describes a transformation operation.
type Operation struct {
	Name string
	// Args lists the argument kinds; its length is the operation arity.
	Args   []ArgKind
	Result schema.DataType
	// Resource names the lookup kind the operation needs, empty for pure operations.
	Resource string
	// Eval computes the result. args are already converted per Args and res is
	// the bound resource, nil when Resource is empty. Eval is not called when
	// an argument is null; the call yields null instead.
	Eval func(args []any, res Resource) (any, error)
}

// Arity returns the number of arguments the operation takes.
func (op Operation) Arity() int { return len(op.Args) }

// Registry is an immutable set of operations keyed by name.
type Registry struct {
	ops map[string]Operation
}

// NewRegistry builds a registry. Operation names must be unique.
func NewRegistry(ops ...Operation) (*Registry, error) {
	r := &Registry{ops: make(map[string]Operation, len(ops))}
	for _, op := range ops {
		if op.Name == "" {
			return nil, errors.New("operation name is required")
		}
		if op.Eval == nil {
			return nil, fmt.Errorf("operation %q has no implementation", op.Name)
		}
		if _, dup := r.ops[op.Name]; dup {
			return nil, fmt.Errorf("operation %q registered more than once", op.Name)
		}
		r.ops[op.Name] = op
	}
	return r, nil
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names returns the registered operation names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup kinds understood by the default registry.
const (
	LookupCountry = "country"
	LookupCity    = "city"
	LookupASN     = "asn"
)

var defaultRegistry = mustRegistry(
	arithmetic("add", func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Add(b), nil }),
	arithmetic("sub", func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Sub(b), nil }),
	arithmetic("mult", func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Mul(b), nil }),
	arithmetic("div", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return a.Div(b), nil
	}),
	lookup(LookupCountry),
	lookup(LookupCity),
	lookup(LookupASN),
)

// DefaultRegistry returns the built-in arithmetic and lookup operations.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func mustRegistry(ops ...Operation) *Registry {
	r, err := NewRegistry(ops...)
	if err != nil {
		panic(err)
	}
	return r
}

func arithmetic(name string, fn func(a, b decimal.Decimal) (decimal.Decimal, error)) Operation {
	return Operation{
		Name:   name,
		Args:   []ArgKind{ArgNumeric, ArgNumeric},
		Result: schema.TypeDecimal,
		Eval: func(args []any, _ Resource) (any, error) {
			return fn(args[0].(decimal.Decimal), args[1].(decimal.Decimal))
		},
	}
}

// lookup resolves a text key through the resource of the same kind.
// Keys the resource does not know yield an empty string.
func lookup(kind string) Operation {
	return Operation{
		Name:     kind,
		Args:     []ArgKind{ArgText},
		Result:   schema.TypeString,
		Resource: kind,
		Eval: func(args []any, res Resource) (any, error) {
			v, _ := res.Lookup(args[0].(string))
			return v, nil
		},
	}
}

package aggregation

import (
	"fmt"
)

// OperationType selects how the fragments of a rule are read.
type OperationType int

const (
	// Reduce collapses the whole input into one row per function.
	Reduce OperationType = iota + 1
	// ReduceByKey produces one row per distinct key combination.
	ReduceByKey
)

var operationNames = map[OperationType]string{
	Reduce:      "reduce",
	ReduceByKey: "reduceByKey",
}

// ParseOperationType resolves the configuration spelling of an operation type.
func ParseOperationType(s string) (OperationType, error) {
	for op, name := range operationNames {
		if name == s {
			return op, nil
		}
	}
	return 0, &InvalidExpressionError{
		Kind:   ErrUnsupportedOperation,
		Offset: -1,
		Detail: fmt.Sprintf("the operation %q is not supported", s),
	}
}

func (o OperationType) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OperationType(%d)", int(o))
}

// MarshalText encodes the operation type with its configuration spelling.
func (o OperationType) MarshalText() ([]byte, error) {
	name, ok := operationNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown operation type %d", int(o))
	}
	return []byte(name), nil
}

// UnmarshalText decodes "reduce" or "reduceByKey".
func (o *OperationType) UnmarshalText(text []byte) error {
	op, err := ParseOperationType(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// AggregationTerm is one parsed rule entry. Key terms carry no function;
// every other term names a registered reduce function.
type AggregationTerm struct {
	FuncName   string `json:"func_name"`
	InputField string `json:"input_field"`
	Key        bool   `json:"key"`
}

// ParsedAggregation is a rule ready to be handed to the execution engine.
// For ReduceByKey the key terms always come first, in declared order.
type ParsedAggregation struct {
	OperationType OperationType     `json:"operation_type"`
	Rule          []AggregationTerm `json:"rule"`
}

// KeyFields returns the grouping fields in declared order.
func (p *ParsedAggregation) KeyFields() []string {
	var keys []string
	for _, term := range p.Rule {
		if term.Key {
			keys = append(keys, term.InputField)
		}
	}
	return keys
}

// Reductions returns the non-key terms in rule order.
func (p *ParsedAggregation) Reductions() []AggregationTerm {
	var out []AggregationTerm
	for _, term := range p.Rule {
		if !term.Key {
			out = append(out, term)
		}
	}
	return out
}

package aggregation

import (
	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/shopspring/decimal"
)

// Supported reduce functions.
const (
	FnCount = "count"
	FnSum   = "sum"
	FnMul   = "mul"
	FnMin   = "min"
	FnMax   = "max"
	FnAvg   = "avg"
)

// State is the running value of one reduction for one group.
// Count is the number of values folded in; avg needs it, the others ignore it.
type State struct {
	Value decimal.Decimal
	Count int64
}

// Aggregator defines the reduce semantics of a rule function.
// Merge must be associative so partial states from different partitions can
// be combined in any order.
type Aggregator interface {
	// Initial returns the state after the very first value for a group.
	Initial(incoming decimal.Decimal) State

	// Apply folds an incoming value into an existing state.
	Apply(current State, incoming decimal.Decimal) State

	// Merge combines two partial states.
	Merge(a, b State) State

	// Result returns the final value of a state.
	Result(s State) decimal.Decimal
}

// Function is a registry entry: reduce semantics plus the field types it accepts.
type Function struct {
	Aggregator Aggregator
	Accepts    func(schema.DataType) bool
}

func anyType(schema.DataType) bool { return true }

func numericType(t schema.DataType) bool { return t.IsNumeric() }

// Functions is the registry of all supported reduce functions.
// To add a function: implement Aggregator and add an entry here.
var Functions = map[string]Function{
	FnCount: {Aggregator: countAgg{}, Accepts: anyType},
	FnSum:   {Aggregator: sumAgg{}, Accepts: numericType},
	FnMul:   {Aggregator: mulAgg{}, Accepts: numericType},
	FnMin:   {Aggregator: minAgg{}, Accepts: numericType},
	FnMax:   {Aggregator: maxAgg{}, Accepts: numericType},
	FnAvg:   {Aggregator: avgAgg{}, Accepts: numericType},
}

// ValidFunction reports whether name is a registered reduce function.
func ValidFunction(name string) bool {
	_, ok := Functions[name]
	return ok
}

// TypeCompatible reports whether fields of type t can be reduced with fn.
func TypeCompatible(t schema.DataType, fn string) bool {
	f, ok := Functions[fn]
	return ok && f.Accepts(t)
}

// countAgg increments by 1 per value. The incoming value is ignored.
type countAgg struct{}

func (countAgg) Initial(_ decimal.Decimal) State {
	return State{Value: decimal.NewFromInt(1), Count: 1}
}
func (countAgg) Apply(cur State, _ decimal.Decimal) State {
	return State{Value: cur.Value.Add(decimal.NewFromInt(1)), Count: cur.Count + 1}
}
func (countAgg) Merge(a, b State) State {
	return State{Value: a.Value.Add(b.Value), Count: a.Count + b.Count}
}
func (countAgg) Result(s State) decimal.Decimal { return s.Value }

// sumAgg accumulates the sum of incoming values.
type sumAgg struct{}

func (sumAgg) Initial(v decimal.Decimal) State { return State{Value: v, Count: 1} }
func (sumAgg) Apply(cur State, inc decimal.Decimal) State {
	return State{Value: cur.Value.Add(inc), Count: cur.Count + 1}
}
func (sumAgg) Merge(a, b State) State {
	return State{Value: a.Value.Add(b.Value), Count: a.Count + b.Count}
}
func (sumAgg) Result(s State) decimal.Decimal { return s.Value }

// mulAgg accumulates the product of incoming values.
type mulAgg struct{}

func (mulAgg) Initial(v decimal.Decimal) State { return State{Value: v, Count: 1} }
func (mulAgg) Apply(cur State, inc decimal.Decimal) State {
	return State{Value: cur.Value.Mul(inc), Count: cur.Count + 1}
}
func (mulAgg) Merge(a, b State) State {
	return State{Value: a.Value.Mul(b.Value), Count: a.Count + b.Count}
}
func (mulAgg) Result(s State) decimal.Decimal { return s.Value }

// minAgg tracks the minimum value seen.
type minAgg struct{}

func (minAgg) Initial(v decimal.Decimal) State { return State{Value: v, Count: 1} }
func (minAgg) Apply(cur State, inc decimal.Decimal) State {
	return minAgg{}.Merge(cur, State{Value: inc, Count: 1})
}
func (minAgg) Merge(a, b State) State {
	if b.Value.LessThan(a.Value) {
		return State{Value: b.Value, Count: a.Count + b.Count}
	}
	return State{Value: a.Value, Count: a.Count + b.Count}
}
func (minAgg) Result(s State) decimal.Decimal { return s.Value }

// maxAgg tracks the maximum value seen.
type maxAgg struct{}

func (maxAgg) Initial(v decimal.Decimal) State { return State{Value: v, Count: 1} }
func (maxAgg) Apply(cur State, inc decimal.Decimal) State {
	return maxAgg{}.Merge(cur, State{Value: inc, Count: 1})
}
func (maxAgg) Merge(a, b State) State {
	if b.Value.GreaterThan(a.Value) {
		return State{Value: b.Value, Count: a.Count + b.Count}
	}
	return State{Value: a.Value, Count: a.Count + b.Count}
}
func (maxAgg) Result(s State) decimal.Decimal { return s.Value }

// avgAgg keeps sum and count; the mean is only computed in Result.
type avgAgg struct{}

func (avgAgg) Initial(v decimal.Decimal) State { return State{Value: v, Count: 1} }
func (avgAgg) Apply(cur State, inc decimal.Decimal) State {
	return State{Value: cur.Value.Add(inc), Count: cur.Count + 1}
}
func (avgAgg) Merge(a, b State) State {
	return State{Value: a.Value.Add(b.Value), Count: a.Count + b.Count}
}
func (avgAgg) Result(s State) decimal.Decimal {
	if s.Count == 0 {
		return decimal.Zero
	}
	return s.Value.Div(decimal.NewFromInt(s.Count))
}

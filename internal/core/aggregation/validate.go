package aggregation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aevon-lab/flowrule/internal/schema"
)

// Validate cross-checks a parsed rule against the function registry and the
// input layout. Checks run in a fixed order and stop at the first violation:
// unsupported functions, field set equality, duplicate aggregation, types.
func Validate(parsed *ParsedAggregation, layout schema.Layout) error {
	if err := checkFunctions(parsed.Rule); err != nil {
		return err
	}
	if err := checkFieldSet(parsed.Rule, layout); err != nil {
		return err
	}

	types := make(map[string]schema.DataType, len(layout))
	for _, f := range layout {
		types[f.Name] = f.Type
	}

	aggregated := make(map[string]struct{}, len(parsed.Rule))
	for _, term := range parsed.Rule {
		if term.Key {
			continue
		}
		if _, dup := aggregated[term.InputField]; dup {
			return ruleError(ErrAlreadyAggregated, fmt.Sprintf("field %q", term.InputField))
		}
		aggregated[term.InputField] = struct{}{}

		if !TypeCompatible(types[term.InputField], term.FuncName) {
			return ruleError(ErrIncompatibleType, fmt.Sprintf("field %q of type %s for function %q",
				term.InputField, types[term.InputField], term.FuncName))
		}
	}
	return nil
}

// ParseAndValidate parses a rule and validates it against layout.
func ParseAndValidate(rule []string, op OperationType, layout schema.Layout) (*ParsedAggregation, error) {
	parsed, err := Parse(rule, op)
	if err != nil {
		return nil, err
	}
	if err := Validate(parsed, layout); err != nil {
		return nil, err
	}
	return parsed, nil
}

func checkFunctions(rule []AggregationTerm) error {
	unsupported := make(map[string]struct{})
	for _, term := range rule {
		if !term.Key && !ValidFunction(term.FuncName) {
			unsupported[term.FuncName] = struct{}{}
		}
	}
	if len(unsupported) == 0 {
		return nil
	}
	return ruleError(ErrUnsupportedFunction, strings.Join(sortedKeys(unsupported), ", "))
}

// checkFieldSet requires the rule to use every layout field and nothing else.
func checkFieldSet(rule []AggregationTerm, layout schema.Layout) error {
	used := make(map[string]struct{}, len(rule))
	for _, term := range rule {
		used[term.InputField] = struct{}{}
	}
	declared := make(map[string]struct{}, len(layout))
	for _, f := range layout {
		declared[f.Name] = struct{}{}
	}

	extra := difference(used, declared)
	missing := difference(declared, used)
	if len(extra) == 0 && len(missing) == 0 {
		return nil
	}

	var parts []string
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("undeclared %v", extra))
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("unused %v", missing))
	}
	return ruleError(ErrFieldMismatch, strings.Join(parts, "; "))
}

func difference(a, b map[string]struct{}) []string {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return sortedKeys(out)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

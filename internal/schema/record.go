package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldError describes one field of a record that does not match the layout.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RecordError collects every field error of one record.
type RecordError struct {
	Errors []FieldError
}

func (e *RecordError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return "record does not match layout: " + strings.Join(msgs, "; ")
}

// Record converts a decoded JSON object into a positional record following
// the layout. Unknown keys are rejected; optional fields that are absent or
// null become nil. Numbers are returned as decimal.Decimal, timestamps as
// time.Time.
func (l Layout) Record(data map[string]any) ([]any, error) {
	var errs []FieldError

	index := l.Index()
	var unknown []string
	for key := range data {
		if _, ok := index[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{Field: key, Message: "field is not part of the layout"})
	}

	rec := make([]any, len(l))
	for i, f := range l {
		v, present := data[f.Name]
		if !present || v == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Message: "required field is missing"})
			}
			continue
		}
		conv, err := convertValue(f.Type, v)
		if err != nil {
			errs = append(errs, FieldError{Field: f.Name, Message: err.Error()})
			continue
		}
		rec[i] = conv
	}

	if len(errs) > 0 {
		return nil, &RecordError{Errors: errs}
	}
	return rec, nil
}

func convertValue(t DataType, v any) (any, error) {
	switch t {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %s", jsonTypeName(v))
		}
		return s, nil

	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %s", jsonTypeName(v))
		}
		return b, nil

	case TypeInt, TypeLong:
		d, err := numberOf(v)
		if err != nil {
			return nil, err
		}
		if !d.IsInteger() {
			return nil, fmt.Errorf("expected integer, got %s", d)
		}
		if t == TypeInt && (d.LessThan(decimal.NewFromInt(math.MinInt32)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt32))) {
			return nil, fmt.Errorf("value %s out of range for int", d)
		}
		if t == TypeLong && (d.LessThan(decimal.NewFromInt(math.MinInt64)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt64))) {
			return nil, fmt.Errorf("value %s out of range for long", d)
		}
		return d, nil

	case TypeFloat, TypeDouble, TypeDecimal:
		return numberOf(v)

	case TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected RFC 3339 timestamp string, got %s", jsonTypeName(v))
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %v", s, err)
		}
		return ts, nil
	}
	return nil, fmt.Errorf("unknown field type: %s", t)
}

// numberOf accepts JSON numbers (float64 or json.Number) and YAML integers.
func numberOf(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("value %v is not a finite number", n)
		}
		return decimal.NewFromFloat(n), nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q", n.String())
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	}
	return decimal.Zero, fmt.Errorf("expected number, got %s", jsonTypeName(v))
}

// jsonTypeName returns a human-readable type name for JSON values.
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

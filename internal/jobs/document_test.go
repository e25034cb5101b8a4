package jobs

import (
	"testing"

	"github.com/aevon-lab/flowrule/internal/core/transform"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const trafficDocument = `
name: traffic
input:
  format: yaml
  definition: |
    fields:
      src_ip: string!
      dst_ip: string
      packet_size: int32
      sampling_rate: int32
transformations:
  - src_ip
  - output: traffic
    expression: {operation: mult, children: [packet_size, sampling_rate]}
aggregations:
  operation_type: reduceByKey
  rule: ["key:(src_ip)", "sum(traffic)"]
`

func TestDecode_TrafficDocument(t *testing.T) {
	doc, err := Decode([]byte(trafficDocument))
	require.NoError(t, err)

	require.Equal(t, "traffic", doc.Name)
	require.Equal(t, "yaml", doc.Input.Format)
	require.Contains(t, doc.Input.Definition, "packet_size: int32")
	require.Equal(t, "reduceByKey", doc.Aggregations.OperationType)
	require.Equal(t, []string{"key:(src_ip)", "sum(traffic)"}, doc.Aggregations.Rule)

	require.Equal(t, []transform.FieldTransformation{
		transform.PassThrough("src_ip"),
		{
			Output: "traffic",
			Expr: transform.NewCall("mult",
				transform.FieldRef{Name: "packet_size"},
				transform.FieldRef{Name: "sampling_rate"}),
		},
	}, doc.FieldTransformations())
}

func TestDecode_JSONDocument(t *testing.T) {
	data := `{
  "name": "bytes",
  "input": {"format": "yaml", "definition": "fields:\n  packet_size: int32\n"},
  "transformations": [
    {"output": "traffic", "expression": {"operation": "mult", "children": ["packet_size", "10"]}}
  ],
  "aggregations": {"operation_type": "reduce", "rule": ["sum(traffic)"]}
}`

	doc, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Equal(t, "bytes", doc.Name)

	got := doc.FieldTransformations()
	require.Len(t, got, 1)
	require.Equal(t, "traffic = mult(packet_size, 10)", got[0].String())

	call, ok := got[0].Expr.(transform.Call)
	require.True(t, ok)
	lit, ok := call.Args[1].(transform.Literal)
	require.True(t, ok, "numeric text child is a literal, got %T", call.Args[1])
	require.True(t, decimal.NewFromInt(10).Equal(lit.Value.(decimal.Decimal)))
}

func TestDecodeExpr_Scalars(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want transform.Expr
	}{
		{
			name: "plain name is a field",
			yaml: "expression: packet_size",
			want: transform.FieldRef{Name: "packet_size"},
		},
		{
			name: "double quoted name is a field",
			yaml: `expression: "src_ip"`,
			want: transform.FieldRef{Name: "src_ip"},
		},
		{
			name: "single quoted text is a string literal",
			yaml: "expression: 'RU'",
			want: transform.Literal{Value: "RU"},
		},
		{
			name: "boolean literal",
			yaml: "expression: true",
			want: transform.Literal{Value: true},
		},
		{
			name: "explicit field",
			yaml: "expression: {field: '10'}",
			want: transform.FieldRef{Name: "10"},
		},
		{
			name: "explicit quoted literal stays text",
			yaml: `expression: {literal: "10"}`,
			want: transform.Literal{Value: "10"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode([]byte(minimalDocument("- output: out\n    " + tc.yaml)))
			require.NoError(t, err)
			require.Equal(t, tc.want, doc.Transformations[0].Expr)
		})
	}
}

func TestDecodeExpr_NumericLiterals(t *testing.T) {
	for _, raw := range []string{"10", `"10"`, "{literal: 10}", "2.5"} {
		t.Run(raw, func(t *testing.T) {
			doc, err := Decode([]byte(minimalDocument("- output: out\n    expression: " + raw)))
			require.NoError(t, err)

			lit, ok := doc.Transformations[0].Expr.(transform.Literal)
			require.True(t, ok, "got %T", doc.Transformations[0].Expr)
			_, ok = lit.Value.(decimal.Decimal)
			require.True(t, ok, "got %T", lit.Value)
		})
	}
}

func TestDecodeExpr_NestedCall(t *testing.T) {
	entry := `- output: traffic
    expression:
      operation: mult
      children:
        - {operation: add, children: [packet_size, 1]}
        - sampling_rate`

	doc, err := Decode([]byte(minimalDocument(entry)))
	require.NoError(t, err)
	require.Equal(t, "traffic = mult(add(packet_size, 1), sampling_rate)", doc.Transformations[0].String())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "malformed yaml",
			doc:    "name: [",
			errMsg: "invalid job document",
		},
		{
			name:   "missing name",
			doc:    "input: {format: yaml, definition: 'fields: {a: int32}'}\naggregations: {operation_type: reduce}",
			errMsg: "name is required",
		},
		{
			name:   "missing format",
			doc:    "name: x\ninput: {definition: 'fields: {a: int32}'}\naggregations: {operation_type: reduce}",
			errMsg: "input.format is required",
		},
		{
			name:   "missing definition",
			doc:    "name: x\ninput: {format: yaml}\naggregations: {operation_type: reduce}",
			errMsg: "input.definition is required",
		},
		{
			name:   "missing operation type",
			doc:    "name: x\ninput: {format: yaml, definition: 'fields: {a: int32}'}",
			errMsg: "aggregations.operation_type is required",
		},
		{
			name:   "transformation without expression",
			doc:    minimalDocument("- output: out"),
			errMsg: `transformation "out" has no expression`,
		},
		{
			name:   "transformation without output",
			doc:    minimalDocument("- expression: a"),
			errMsg: "transformation has no output",
		},
		{
			name:   "sequence transformation",
			doc:    minimalDocument("- [a, b]"),
			errMsg: "transformation must be a field name or a mapping",
		},
		{
			name:   "expression mapping without a form",
			doc:    minimalDocument("- output: out\n    expression: {children: [a]}"),
			errMsg: "expression needs one of literal, field or operation",
		},
		{
			name:   "null child",
			doc:    minimalDocument("- output: out\n    expression: {operation: mult, children: [a, null]}"),
			errMsg: "mult argument 2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			require.ErrorIs(t, err, ErrInvalidDocument)
			require.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func minimalDocument(transformations string) string {
	return `name: minimal
input:
  format: yaml
  definition: "fields: {a: int32}"
transformations:
  ` + transformations + `
aggregations:
  operation_type: reduce
  rule: ["sum(a)"]
`
}

// Package jobs builds, stores and serves validated aggregation jobs: an input
// schema, the transformations applied to each record and the aggregation rule
// run over the transformed records.
package jobs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aevon-lab/flowrule/internal/core/transform"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a job document cannot be decoded or
// misses a required section.
var ErrInvalidDocument = errors.New("invalid job document")

// Document is a job as submitted. YAML and JSON are both accepted.
type Document struct {
	Name            string               `yaml:"name"`
	Input           InputSpec            `yaml:"input"`
	Transformations []TransformationSpec `yaml:"transformations"`
	Aggregations    AggregationSpec      `yaml:"aggregations"`
}

// InputSpec carries the raw input schema definition.
type InputSpec struct {
	Format     string `yaml:"format"`
	Definition string `yaml:"definition"`
}

// AggregationSpec is the unparsed aggregation rule.
type AggregationSpec struct {
	OperationType string   `yaml:"operation_type"`
	Rule          []string `yaml:"rule"`
}

// TransformationSpec is one entry of the transformations list.
//
// A scalar entry passes the input field of that name through. A mapping entry
// names an output field and its expression:
//
//	transformations:
//	  - src_ip
//	  - output: traffic
//	    expression: {operation: mult, children: [packet_size, 10]}
type TransformationSpec struct {
	transform.FieldTransformation
}

// UnmarshalYAML decodes either form of a transformation entry.
func (t *TransformationSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			return fmt.Errorf("line %d: transformation entry is empty", value.Line)
		}
		t.FieldTransformation = transform.PassThrough(value.Value)
		return nil

	case yaml.MappingNode:
		var raw struct {
			Output     string    `yaml:"output"`
			Expression yaml.Node `yaml:"expression"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw.Output == "" {
			return fmt.Errorf("line %d: transformation has no output", value.Line)
		}
		if raw.Expression.Kind == 0 {
			return fmt.Errorf("line %d: transformation %q has no expression", value.Line, raw.Output)
		}
		expr, err := decodeExpr(&raw.Expression)
		if err != nil {
			return fmt.Errorf("transformation %q: %w", raw.Output, err)
		}
		t.FieldTransformation = transform.FieldTransformation{Output: raw.Output, Expr: expr}
		return nil
	}
	return fmt.Errorf("line %d: transformation must be a field name or a mapping", value.Line)
}

// exprNode is the mapping form of an expression.
type exprNode struct {
	Literal   *yaml.Node  `yaml:"literal"`
	Field     string      `yaml:"field"`
	Operation string      `yaml:"operation"`
	Children  []yaml.Node `yaml:"children"`
}

// decodeExpr turns a document node into an expression tree.
//
// Scalars are read as follows: single-quoted text is a string literal, plain
// true/false is a boolean literal, anything that parses as a number is a
// numeric literal, everything else names an input field. Mappings are either
// {literal: v}, {field: name} or {operation: op, children: [...]}.
func decodeExpr(node *yaml.Node) (transform.Expr, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)

	case yaml.MappingNode:
		var n exprNode
		if err := node.Decode(&n); err != nil {
			return nil, err
		}
		switch {
		case n.Literal != nil:
			return decodeLiteral(n.Literal)
		case n.Field != "":
			return transform.FieldRef{Name: n.Field}, nil
		case n.Operation != "":
			args := make([]transform.Expr, len(n.Children))
			for i := range n.Children {
				arg, err := decodeExpr(&n.Children[i])
				if err != nil {
					return nil, fmt.Errorf("%s argument %d: %w", n.Operation, i+1, err)
				}
				args[i] = arg
			}
			return transform.NewCall(n.Operation, args...), nil
		}
		return nil, fmt.Errorf("line %d: expression needs one of literal, field or operation", node.Line)

	case yaml.AliasNode:
		return decodeExpr(node.Alias)
	}
	return nil, fmt.Errorf("line %d: expression must be a scalar or a mapping", node.Line)
}

func decodeScalar(node *yaml.Node) (transform.Expr, error) {
	if node.ShortTag() == "!!null" {
		return nil, fmt.Errorf("line %d: expression is null", node.Line)
	}
	if node.Style&yaml.SingleQuotedStyle != 0 {
		return transform.Literal{Value: node.Value}, nil
	}
	if node.Style == 0 && node.ShortTag() == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return transform.Literal{Value: b}, nil
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(node.Value)); err == nil {
		return transform.Literal{Value: d}, nil
	}
	if node.Value == "" {
		return nil, fmt.Errorf("line %d: expression is empty", node.Line)
	}
	return transform.FieldRef{Name: node.Value}, nil
}

// decodeLiteral reads an explicit literal. Quoted text stays text.
func decodeLiteral(node *yaml.Node) (transform.Expr, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
		return nil, fmt.Errorf("line %d: literal must be a string, number or boolean", node.Line)
	}
	if node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		return transform.Literal{Value: node.Value}, nil
	}
	switch node.ShortTag() {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return transform.Literal{Value: b}, nil
	case "!!int", "!!float":
		d, err := decimal.NewFromString(node.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
		}
		return transform.Literal{Value: d}, nil
	}
	return transform.Literal{Value: node.Value}, nil
}

// Decode parses a job document and checks that every required section is present.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate reports the first missing required section.
func (d *Document) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDocument)
	case d.Input.Format == "":
		return fmt.Errorf("%w: input.format is required", ErrInvalidDocument)
	case strings.TrimSpace(d.Input.Definition) == "":
		return fmt.Errorf("%w: input.definition is required", ErrInvalidDocument)
	case d.Aggregations.OperationType == "":
		return fmt.Errorf("%w: aggregations.operation_type is required", ErrInvalidDocument)
	}
	return nil
}

// FieldTransformations returns the decoded transformations in declared order.
func (d *Document) FieldTransformations() []transform.FieldTransformation {
	out := make([]transform.FieldTransformation, len(d.Transformations))
	for i, t := range d.Transformations {
		out[i] = t.FieldTransformation
	}
	return out
}

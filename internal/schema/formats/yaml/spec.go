package yaml

import (
	"fmt"
	"strings"

	"github.com/aevon-lab/flowrule/internal/schema"
	"gopkg.in/yaml.v3"
)

// SchemaSpec is a YAML input schema. Field order in the document is the
// positional order of record values, so fields are kept as an ordered list.
//
//	description: netflow export
//	fields:
//	  src_ip: string!
//	  packet_size:
//	    type: int32
//	    required: true
type SchemaSpec struct {
	Description string `yaml:"description,omitempty"`
	Fields      Fields `yaml:"fields"`
}

// Fields is the ordered field list of a SchemaSpec.
type Fields []*Field

// UnmarshalYAML reads the fields mapping while preserving declaration order.
func (fs *Fields) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping of field name to type")
	}

	out := make(Fields, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i], value.Content[i+1]

		var f Field
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("field %q: %w", key.Value, err)
		}
		f.Name = key.Value
		out = append(out, &f)
	}
	*fs = out
	return nil
}

// Field defines a single column in a YAML schema.
//
// Fields support two declaration styles:
//
//	Shorthand (scalar): src_ip: string!
//	Long form (mapping): bytes:
//	                        type: int64
//	                        required: true
//
// Append "!" to the type name to mark a field as required.
type Field struct {
	Name     string          `yaml:"-"`
	Type     schema.DataType `yaml:"type"`
	Required bool            `yaml:"required,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling to support both shorthand
// and long-form field declarations.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return f.parseTypeString(value.Value)
	}

	// Long form: decode struct fields via alias (avoids infinite recursion),
	// then normalize the type string.
	type fieldAlias Field
	var alias fieldAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*f = Field(alias)

	if f.Type == "" {
		return fmt.Errorf("field missing 'type'")
	}
	return f.parseTypeString(string(f.Type))
}

// parseTypeString parses a user-facing type name like "int32!" and sets
// Type and (if "!" is present) Required on the receiver.
func (f *Field) parseTypeString(s string) error {
	if strings.HasSuffix(s, "!") {
		f.Required = true
		s = strings.TrimSuffix(s, "!")
	}

	t, err := schema.ParseDataType(s)
	if err != nil {
		return err
	}
	f.Type = t
	return nil
}

// Validate checks if the YAML schema spec is structurally valid.
func (s *SchemaSpec) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema must define at least one field")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, field := range s.Fields {
		if field.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("field %q declared more than once", field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return nil
}

// Layout returns the spec's fields as a record layout.
func (s *SchemaSpec) Layout() schema.Layout {
	layout := make(schema.Layout, len(s.Fields))
	for i, f := range s.Fields {
		layout[i] = schema.FieldSpec{Name: f.Name, Type: f.Type, Required: f.Required}
	}
	return layout
}

// String returns a human-readable description of the field type.
func (f *Field) String() string {
	if f.Required {
		return string(f.Type) + " required"
	}
	return string(f.Type)
}

package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DataType is the declared type of one input column.
type DataType string

const (
	TypeString    DataType = "string"
	TypeBool      DataType = "bool"
	TypeInt       DataType = "int"
	TypeLong      DataType = "long"
	TypeFloat     DataType = "float"
	TypeDouble    DataType = "double"
	TypeDecimal   DataType = "decimal"
	TypeTimestamp DataType = "timestamp"
)

// typeAliases maps every accepted spelling to its canonical DataType.
var typeAliases = map[string]DataType{
	"string":    TypeString,
	"bool":      TypeBool,
	"boolean":   TypeBool,
	"int":       TypeInt,
	"int32":     TypeInt,
	"integer":   TypeInt,
	"long":      TypeLong,
	"int64":     TypeLong,
	"float":     TypeFloat,
	"double":    TypeDouble,
	"decimal":   TypeDecimal,
	"timestamp": TypeTimestamp,
}

// ParseDataType resolves a type name (including aliases such as int32 or int64).
func ParseDataType(s string) (DataType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unsupported type %q (must be: string, bool, int32, int64, float, double, decimal, timestamp)", s)
	}
	return t, nil
}

// IsNumeric reports whether values of this type can be folded arithmetically.
func (t DataType) IsNumeric() bool {
	switch t {
	case TypeInt, TypeLong, TypeFloat, TypeDouble, TypeDecimal:
		return true
	}
	return false
}

// FieldSpec describes one column of a record.
type FieldSpec struct {
	Name     string   `json:"name" yaml:"name"`
	Type     DataType `json:"type" yaml:"type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// Layout is the ordered column list of a record. Record values are positional
// and follow the Layout order.
type Layout []FieldSpec

// Names returns the column names in declared order.
func (l Layout) Names() []string {
	names := make([]string, len(l))
	for i, f := range l {
		names[i] = f.Name
	}
	return names
}

// Index maps each column name to its position.
func (l Layout) Index() map[string]int {
	idx := make(map[string]int, len(l))
	for i, f := range l {
		idx[f.Name] = i
	}
	return idx
}

// Field returns the column with the given name.
func (l Layout) Field(name string) (FieldSpec, bool) {
	for _, f := range l {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks that every column has a name, a known type and that names are unique.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("layout must define at least one field")
	}
	seen := make(map[string]struct{}, len(l))
	for i, f := range l {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, err := ParseDataType(string(f.Type)); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("field %q declared more than once", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Format represents the format of an input schema definition.
type Format string

const (
	FormatProtobuf Format = "protobuf"
	FormatYaml     Format = "yaml"
)

// Definition is a raw input schema as carried by a job document.
type Definition struct {
	Format Format
	Body   []byte
}

// Fingerprint is the SHA-256 of the definition body.
func (d *Definition) Fingerprint() string {
	return ComputeFingerprint(d.Body)
}

// ComputeFingerprint calculates SHA-256 hash of the definition.
func ComputeFingerprint(definition []byte) string {
	hash := sha256.Sum256(definition)
	return hex.EncodeToString(hash[:])
}

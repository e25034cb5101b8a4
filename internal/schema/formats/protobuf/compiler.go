package protobuf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const virtualFileName = "input.proto"

// Compiler compiles protobuf schema definitions.
type Compiler struct{}

// NewCompiler creates a new protobuf compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a .proto definition and returns the layout of its first
// top-level message. Field declaration order is the record position order.
func (c *Compiler) Compile(ctx context.Context, def *schema.Definition) (schema.Layout, error) {
	if def.Format != schema.FormatProtobuf {
		return nil, fmt.Errorf("expected protobuf format, got %s", def.Format)
	}

	resolver := &singleFileResolver{
		fileName: virtualFileName,
		content:  string(def.Body),
	}

	compiler := protocompile.Compiler{
		Resolver:       protocompile.WithStandardImports(resolver),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(ctx, virtualFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files compiled")
	}

	messages := files[0].Messages()
	if messages.Len() == 0 {
		return nil, fmt.Errorf("proto must define at least one message")
	}

	return layoutOf(messages.Get(0))
}

// layoutOf flattens a message descriptor into columns. Records are flat rows,
// so repeated, map and nested message fields are rejected (Timestamp excepted).
func layoutOf(msg protoreflect.MessageDescriptor) (schema.Layout, error) {
	fields := msg.Fields()
	layout := make(schema.Layout, 0, fields.Len())

	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		name := string(fd.Name())

		if fd.IsList() || fd.IsMap() {
			return nil, &schema.DefinitionError{
				Format: schema.FormatProtobuf,
				Field:  name,
				Err:    fmt.Errorf("repeated and map fields are not supported"),
			}
		}

		t, err := dataTypeOf(fd)
		if err != nil {
			return nil, &schema.DefinitionError{Format: schema.FormatProtobuf, Field: name, Err: err}
		}

		layout = append(layout, schema.FieldSpec{
			Name:     name,
			Type:     t,
			Required: fd.Cardinality() == protoreflect.Required,
		})
	}
	return layout, nil
}

func dataTypeOf(fd protoreflect.FieldDescriptor) (schema.DataType, error) {
	switch fd.Kind() {
	case protoreflect.StringKind, protoreflect.EnumKind:
		return schema.TypeString, nil
	case protoreflect.BoolKind:
		return schema.TypeBool, nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return schema.TypeInt, nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return schema.TypeLong, nil
	case protoreflect.FloatKind:
		return schema.TypeFloat, nil
	case protoreflect.DoubleKind:
		return schema.TypeDouble, nil
	case protoreflect.MessageKind:
		if fd.Message().FullName() == "google.protobuf.Timestamp" {
			return schema.TypeTimestamp, nil
		}
	}
	return "", fmt.Errorf("unsupported field kind %s", fd.Kind())
}

// singleFileResolver provides proto content for compilation.
type singleFileResolver struct {
	fileName string
	content  string
}

func (r *singleFileResolver) FindFileByPath(path string) (protocompile.SearchResult, error) {
	if path == r.fileName {
		return protocompile.SearchResult{
			Source: strings.NewReader(r.content),
		}, nil
	}
	return protocompile.SearchResult{}, fmt.Errorf("file not found: %s", path)
}

package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/aevon-lab/flowrule/internal/schema/formats/protobuf"
	"github.com/aevon-lab/flowrule/internal/schema/formats/yaml"
)

func newRegistry() *schema.FormatRegistry {
	registry := schema.NewFormatRegistry()
	registry.RegisterFormat(schema.FormatProtobuf, protobuf.NewCompiler())
	registry.RegisterFormat(schema.FormatYaml, yaml.NewCompiler())
	return registry
}

func TestFormatRegistry_RegisterAndGet(t *testing.T) {
	registry := newRegistry()

	t.Run("GetCompiler - protobuf", func(t *testing.T) {
		compiler, err := registry.GetCompiler(schema.FormatProtobuf)
		if err != nil {
			t.Errorf("GetCompiler(FormatProtobuf) unexpected error: %v", err)
		}
		if compiler == nil {
			t.Error("GetCompiler(FormatProtobuf) returned nil compiler")
		}
	})

	t.Run("GetCompiler - unsupported format", func(t *testing.T) {
		_, err := registry.GetCompiler("avro")
		if !errors.Is(err, schema.ErrUnsupportedFormat) {
			t.Errorf("GetCompiler(avro) error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("SupportedFormats", func(t *testing.T) {
		formats := registry.SupportedFormats()
		if len(formats) != 2 || formats[0] != schema.FormatProtobuf || formats[1] != schema.FormatYaml {
			t.Errorf("SupportedFormats() = %v, want [protobuf yaml]", formats)
		}
	})
}

func TestFormatRegistry_CompileSameLayout(t *testing.T) {
	registry := newRegistry()
	ctx := context.Background()

	fromProto, err := registry.Compile(ctx, &schema.Definition{
		Format: schema.FormatProtobuf,
		Body: []byte(`
syntax = "proto3";
message Flow {
  string src_ip = 1;
  int32 packet_size = 2;
  uint64 bytes = 3;
}
`),
	})
	if err != nil {
		t.Fatalf("Compile(protobuf) unexpected error: %v", err)
	}

	fromYaml, err := registry.Compile(ctx, &schema.Definition{
		Format: schema.FormatYaml,
		Body: []byte(`
fields:
  src_ip: string
  packet_size: int32
  bytes: int64
`),
	})
	if err != nil {
		t.Fatalf("Compile(yaml) unexpected error: %v", err)
	}

	if len(fromProto) != len(fromYaml) {
		t.Fatalf("layouts differ: %v vs %v", fromProto, fromYaml)
	}
	for i := range fromProto {
		if fromProto[i] != fromYaml[i] {
			t.Errorf("column %d: protobuf %v, yaml %v", i, fromProto[i], fromYaml[i])
		}
	}
}

func TestFormatRegistry_CompileWrapsDefinitionError(t *testing.T) {
	registry := newRegistry()

	_, err := registry.Compile(context.Background(), &schema.Definition{
		Format: schema.FormatYaml,
		Body:   []byte("fields: ["),
	})

	var defErr *schema.DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("Compile() error = %v, want *DefinitionError", err)
	}
	if defErr.Format != schema.FormatYaml {
		t.Errorf("DefinitionError.Format = %q, want yaml", defErr.Format)
	}
}

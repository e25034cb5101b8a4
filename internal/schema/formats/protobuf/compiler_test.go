package protobuf

import (
	"context"
	"testing"

	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestCompiler_Compile(t *testing.T) {
	def := &schema.Definition{
		Format: schema.FormatProtobuf,
		Body: []byte(`
syntax = "proto3";
package flows;

import "google/protobuf/timestamp.proto";

message Flow {
  string src_ip = 1;
  string dst_ip = 2;
  int32 packet_size = 3;
  int32 sampling_rate = 4;
  uint64 bytes = 5;
  double duration = 6;
  bool tcp = 7;
  google.protobuf.Timestamp observed_at = 8;
}
`),
	}

	layout, err := NewCompiler().Compile(context.Background(), def)
	require.NoError(t, err)
	require.Equal(t, schema.Layout{
		{Name: "src_ip", Type: schema.TypeString},
		{Name: "dst_ip", Type: schema.TypeString},
		{Name: "packet_size", Type: schema.TypeInt},
		{Name: "sampling_rate", Type: schema.TypeInt},
		{Name: "bytes", Type: schema.TypeLong},
		{Name: "duration", Type: schema.TypeDouble},
		{Name: "tcp", Type: schema.TypeBool},
		{Name: "observed_at", Type: schema.TypeTimestamp},
	}, layout)
}

func TestCompiler_RejectsRepeatedFields(t *testing.T) {
	def := &schema.Definition{
		Format: schema.FormatProtobuf,
		Body: []byte(`
syntax = "proto3";
message Flow {
  repeated string hops = 1;
}
`),
	}

	_, err := NewCompiler().Compile(context.Background(), def)
	require.Error(t, err)

	var defErr *schema.DefinitionError
	require.ErrorAs(t, err, &defErr)
	require.Equal(t, "hops", defErr.Field)
}

func TestCompiler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		def    *schema.Definition
		errMsg string
	}{
		{
			name:   "wrong format",
			def:    &schema.Definition{Format: schema.FormatYaml, Body: []byte("fields: {}")},
			errMsg: "expected protobuf format",
		},
		{
			name:   "syntax error",
			def:    &schema.Definition{Format: schema.FormatProtobuf, Body: []byte(`syntax = "proto3"; message {`)},
			errMsg: "failed to compile proto",
		},
		{
			name:   "no message",
			def:    &schema.Definition{Format: schema.FormatProtobuf, Body: []byte(`syntax = "proto3"; package empty;`)},
			errMsg: "at least one message",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCompiler().Compile(context.Background(), tc.def)
			require.ErrorContains(t, err, tc.errMsg)
		})
	}
}

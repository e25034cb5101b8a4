package yaml

import (
	"context"
	"fmt"

	"github.com/aevon-lab/flowrule/internal/schema"
	"gopkg.in/yaml.v3"
)

// Compiler compiles YAML schema definitions.
type Compiler struct{}

// NewCompiler creates a new YAML compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a YAML schema definition and returns its record layout.
func (c *Compiler) Compile(ctx context.Context, def *schema.Definition) (schema.Layout, error) {
	if def.Format != schema.FormatYaml {
		return nil, fmt.Errorf("expected yaml format, got %s", def.Format)
	}

	var spec SchemaSpec
	if err := yaml.Unmarshal(def.Body, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML schema: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return spec.Layout(), nil
}

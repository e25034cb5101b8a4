package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FormatCompiler turns a schema definition into a record Layout.
// Each schema format (protobuf, YAML) implements this interface.
type FormatCompiler interface {
	// Compile parses the definition and returns its ordered columns.
	// Returns error if the definition is malformed or uses unsupported types.
	Compile(ctx context.Context, def *Definition) (Layout, error)
}

// FormatRegistry manages the compiler implementation for each schema format.
type FormatRegistry struct {
	mu        sync.RWMutex
	compilers map[Format]FormatCompiler
}

// NewFormatRegistry creates a new format registry.
func NewFormatRegistry() *FormatRegistry {
	return &FormatRegistry{
		compilers: make(map[Format]FormatCompiler),
	}
}

// RegisterFormat registers the compiler for a schema format.
// This should be called during initialization to enable format support.
func (r *FormatRegistry) RegisterFormat(format Format, compiler FormatCompiler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.compilers[format] = compiler
}

// GetCompiler retrieves the compiler for a given format.
func (r *FormatRegistry) GetCompiler(format Format) (FormatCompiler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	compiler, exists := r.compilers[format]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return compiler, nil
}

// Compile resolves the compiler for def.Format and compiles the definition.
func (r *FormatRegistry) Compile(ctx context.Context, def *Definition) (Layout, error) {
	compiler, err := r.GetCompiler(def.Format)
	if err != nil {
		return nil, err
	}
	layout, err := compiler.Compile(ctx, def)
	if err != nil {
		return nil, &DefinitionError{Format: def.Format, Err: err}
	}
	if err := layout.Validate(); err != nil {
		return nil, &DefinitionError{Format: def.Format, Err: err}
	}
	return layout, nil
}

// IsFormatSupported checks if a format has been registered.
func (r *FormatRegistry) IsFormatSupported(format Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.compilers[format]
	return exists
}

// SupportedFormats returns all registered formats, sorted.
func (r *FormatRegistry) SupportedFormats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.compilers))
	for format := range r.compilers {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/aevon-lab/flowrule/internal/core/transform"
	"golang.org/x/sync/errgroup"
)

// Opener opens the resource of one lookup kind from its locator.
type Opener func(ctx context.Context, kind, locator string) (transform.Resource, error)

// OpenTable is the default Opener. It reads a YAML table from the file at locator.
func OpenTable(ctx context.Context, kind, locator string) (transform.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s lookup: %w", kind, err)
	}
	t, err := LoadTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s lookup %s: %w", kind, locator, err)
	}
	return t, nil
}

// Pool holds the opened lookup resources. Each configured kind is opened once
// and shared by every program compiled against the pool.
type Pool struct {
	resources transform.Resources
}

// Open opens every configured lookup concurrently. A nil opener means OpenTable.
// If any lookup fails, the ones already opened are closed and the error returned.
func Open(ctx context.Context, locators map[string]string, open Opener) (*Pool, error) {
	if open == nil {
		open = OpenTable
	}

	var mu sync.Mutex
	p := &Pool{resources: make(transform.Resources, len(locators))}

	g, gctx := errgroup.WithContext(ctx)
	for kind, locator := range locators {
		g.Go(func() error {
			if locator == "" {
				return fmt.Errorf("lookup %q has no locator", kind)
			}
			res, err := open(gctx, kind, locator)
			if err != nil {
				return err
			}

			mu.Lock()
			p.resources[kind] = res
			mu.Unlock()

			attrs := []any{"kind", kind, "locator", locator}
			if t, ok := res.(*Table); ok {
				attrs = append(attrs, "entries", t.Len())
			}
			slog.Info("Lookup opened", attrs...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if cerr := p.Close(); cerr != nil {
			slog.Warn("Failed to close lookups after open error", "error", cerr)
		}
		return nil, fmt.Errorf("failed to open lookups: %w", err)
	}
	return p, nil
}

// Resources returns the opened resources keyed by kind.
func (p *Pool) Resources() transform.Resources {
	out := make(transform.Resources, len(p.resources))
	for kind, r := range p.resources {
		out[kind] = r
	}
	return out
}

// Resource returns the resource opened for kind.
func (p *Pool) Resource(kind string) (transform.Resource, bool) {
	r, ok := p.resources[kind]
	return r, ok
}

// Kinds returns the opened lookup kinds, sorted.
func (p *Pool) Kinds() []string {
	kinds := make([]string, 0, len(p.resources))
	for kind := range p.resources {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Close releases resources that hold OS handles.
func (p *Pool) Close() error {
	var errs []error
	for kind, r := range p.resources {
		c, ok := r.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s lookup: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/flowrule/internal/core/aggregation"
	"github.com/aevon-lab/flowrule/internal/core/storage"
	"github.com/aevon-lab/flowrule/internal/core/transform"
	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	defaultListLimit   = 50
	defaultCacheSize   = 256
	defaultMaxBodySize = 1
)

// Job is a validated job: the input layout, the compiled transformations and
// the parsed aggregation rule checked against the transformed layout.
type Job struct {
	ID              string                         `json:"id,omitempty"`
	Name            string                         `json:"name"`
	Fingerprint     string                         `json:"fingerprint"`
	Input           schema.Layout                  `json:"input"`
	Output          schema.Layout                  `json:"output"`
	Transformations []string                       `json:"transformations"`
	Aggregation     *aggregation.ParsedAggregation `json:"aggregation"`
	CreatedAt       time.Time                      `json:"created_at"`

	program *transform.Program
}

// Program returns the compiled transformations. It is nil for jobs read from
// a listing, which carry only the stored plan.
func (j *Job) Program() *transform.Program {
	return j.program
}

func (j *Job) clone() *Job {
	c := *j
	return &c
}

// RecordError reports the record of an Apply batch that failed.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	// Registry holds the transformation operations. Nil means transform.DefaultRegistry.
	Registry      *transform.Registry
	ListLimit     int
	CacheSize     int
	MaxBodySizeMB int
}

// Service builds jobs from documents and persists them.
type Service struct {
	formats          *schema.FormatRegistry
	registry         *transform.Registry
	resources        transform.Resources
	store            storage.JobStore
	listLimit        int
	maxBodySizeBytes int

	// Built jobs by document fingerprint
	cache      *planCache
	buildGroup singleflight.Group // Dedupe concurrent builds
}

// NewService wires a job service. resources may be nil when no lookup is configured.
func NewService(formats *schema.FormatRegistry, resources transform.Resources, store storage.JobStore, opts Options) *Service {
	if formats == nil {
		panic("jobs: format registry must not be nil")
	}
	if store == nil {
		panic("jobs: store must not be nil")
	}
	if opts.Registry == nil {
		opts.Registry = transform.DefaultRegistry()
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.MaxBodySizeMB <= 0 {
		opts.MaxBodySizeMB = defaultMaxBodySize
	}
	return &Service{
		formats:          formats,
		registry:         opts.Registry,
		resources:        resources,
		store:            store,
		listLimit:        opts.ListLimit,
		maxBodySizeBytes: opts.MaxBodySizeMB * 1024 * 1024,
		cache:            newPlanCache(opts.CacheSize),
	}
}

// Build decodes and validates a job document without storing it.
// Concurrent builds of the same document share one compilation.
func (s *Service) Build(ctx context.Context, data []byte) (*Job, error) {
	fingerprint := schema.ComputeFingerprint(data)

	if job := s.cache.Get(fingerprint); job != nil {
		return job, nil
	}

	result, err, _ := s.buildGroup.Do(fingerprint, func() (interface{}, error) {
		// Double-check cache after acquiring singleflight lock
		if job := s.cache.Get(fingerprint); job != nil {
			return job, nil
		}

		job, err := s.build(ctx, data)
		if err != nil {
			return nil, err
		}
		job.Fingerprint = fingerprint

		s.cache.Put(job)
		return job, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Job).clone(), nil
}

func (s *Service) build(ctx context.Context, data []byte) (*Job, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	input, err := s.formats.Compile(ctx, &schema.Definition{
		Format: schema.Format(doc.Input.Format),
		Body:   []byte(doc.Input.Definition),
	})
	if err != nil {
		return nil, err
	}

	transformations := doc.FieldTransformations()
	if len(transformations) == 0 {
		// No transformations: every input field passes through.
		for _, name := range input.Names() {
			transformations = append(transformations, transform.PassThrough(name))
		}
	}

	program, err := transform.NewCompiler(input, s.registry, s.resources).Compile(transformations)
	if err != nil {
		return nil, err
	}

	op, err := aggregation.ParseOperationType(doc.Aggregations.OperationType)
	if err != nil {
		return nil, err
	}
	parsed, err := aggregation.ParseAndValidate(doc.Aggregations.Rule, op, program.Output())
	if err != nil {
		return nil, err
	}

	rendered := make([]string, len(transformations))
	for i, t := range transformations {
		rendered[i] = t.String()
	}

	return &Job{
		Name:            doc.Name,
		Input:           input,
		Output:          program.Output(),
		Transformations: rendered,
		Aggregation:     parsed,
		program:         program,
	}, nil
}

// Submit validates a document and stores it under a new id.
func (s *Service) Submit(ctx context.Context, data []byte) (*Job, error) {
	job, err := s.Build(ctx, data)
	if err != nil {
		return nil, err
	}

	job.ID = uuid.NewString()
	job.CreatedAt = time.Now().UTC()

	plan, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job plan: %w", err)
	}

	rec := &storage.JobRecord{
		ID:          job.ID,
		Name:        job.Name,
		Fingerprint: job.Fingerprint,
		Document:    data,
		Plan:        plan,
		CreatedAt:   job.CreatedAt,
	}
	if err := s.store.SaveJob(ctx, rec); err != nil {
		return nil, err
	}
	job.CreatedAt = rec.CreatedAt

	slog.Info("Job stored",
		"job_id", job.ID,
		"name", job.Name,
		"fingerprint", job.Fingerprint,
		"operation_type", job.Aggregation.OperationType,
		"output_fields", len(job.Output))
	return job, nil
}

// Get returns a stored job with its compiled program.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	rec, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	job, err := s.Build(ctx, rec.Document)
	if err != nil {
		// The document was valid when stored; the registry or lookups changed since.
		slog.Warn("Stored job no longer builds", "job_id", id, "error", err)
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	job.ID = rec.ID
	job.CreatedAt = rec.CreatedAt
	return job, nil
}

// List returns stored jobs, newest first. A limit outside (0, ListLimit]
// is clamped to ListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	recs, err := s.store.ListJobs(ctx, limit)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(recs))
	for _, rec := range recs {
		var job Job
		if err := json.Unmarshal(rec.Plan, &job); err != nil {
			return nil, fmt.Errorf("failed to decode plan of job %s: %w", rec.ID, err)
		}
		job.ID = rec.ID
		job.CreatedAt = rec.CreatedAt
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

// Preview is the result of running a stored job over sample records.
type Preview struct {
	Fields          []string          `json:"fields"`
	Rows            []transform.Tuple `json:"rows"`
	AggregateFields []string          `json:"aggregate_fields"`
	Aggregates      []aggregation.Row `json:"aggregates"`
}

// Apply runs a stored job over decoded JSON records: the transformations per
// record, then the aggregation over the transformed rows. It stops at the
// first record that does not fit the input layout.
func (s *Service) Apply(ctx context.Context, id string, records []map[string]any) (*Preview, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	folder, err := aggregation.NewFolder(job.Aggregation, job.Output)
	if err != nil {
		return nil, err
	}

	tuples := make([]transform.Tuple, 0, len(records))
	for i, data := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := job.Input.Record(data)
		if err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		tuple, err := job.program.Apply(rec)
		if err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		if err := folder.Add(tuple); err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		tuples = append(tuples, tuple)
	}

	slog.Debug("Job previewed", "job_id", job.ID, "records", len(records))

	return &Preview{
		Fields:          job.Output.Names(),
		Rows:            tuples,
		AggregateFields: folder.Columns(),
		Aggregates:      folder.Rows(),
	}, nil
}

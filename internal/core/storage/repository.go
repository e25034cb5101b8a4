package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned when a job with the same name already exists.
var ErrDuplicate = errors.New("job already exists")

// ErrNotFound is returned when no job matches the requested id.
var ErrNotFound = errors.New("job not found")

// JobRecord is a validated job as persisted.
type JobRecord struct {
	ID          string
	Name        string
	Fingerprint string
	// Document is the job document exactly as submitted.
	Document []byte
	// Plan is the JSON encoding of the validated job: layouts, transformations
	// and the parsed aggregation.
	Plan      []byte
	CreatedAt time.Time
}

// JobStore defines the interface for storing and retrieving validated jobs.
type JobStore interface {
	SaveJob(ctx context.Context, job *JobRecord) error

	GetJob(ctx context.Context, id string) (*JobRecord, error)

	// ListJobs returns the most recently created jobs first.
	ListJobs(ctx context.Context, limit int) ([]*JobRecord, error)
}

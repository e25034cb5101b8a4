package postgres

import (
	"fmt"

	"github.com/aevon-lab/flowrule/internal/core/storage"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanJobRow scans a database row into a JobRecord.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanJobRow(row scanner) (*storage.JobRecord, error) {
	var job storage.JobRecord

	err := row.Scan(
		&job.ID,
		&job.Name,
		&job.Fingerprint,
		&job.Document,
		&job.Plan,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job row: %w", err)
	}
	job.CreatedAt = job.CreatedAt.UTC()

	return &job, nil
}

package postgres

// SQL queries for job storage operations

const (
	queryJobsTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'jobs'
		)
	`

	// querySaveJob inserts a validated job.
	// Job names are unique; ON CONFLICT DO NOTHING returns no rows
	// (sql.ErrNoRows) when the name is taken.
	querySaveJob = `
		INSERT INTO jobs (
			id, name, fingerprint, document, plan, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO NOTHING
		RETURNING created_at
	`

	queryGetJob = `
		SELECT id, name, fingerprint, document, plan, created_at
		FROM jobs
		WHERE id = $1
	`

	// queryListJobs returns the newest jobs first; id breaks ties so paging is stable.
	queryListJobs = `
		SELECT id, name, fingerprint, document, plan, created_at
		FROM jobs
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`
)

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aevon-lab/flowrule/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func TestAdapter_SaveJob(t *testing.T) {
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		job        *storage.JobRecord
		mockResult func(mock sqlmock.Sqlmock, job *storage.JobRecord)
		assertions func(t *testing.T, job *storage.JobRecord, err error)
	}{
		{
			name: "success sets created at",
			job: &storage.JobRecord{
				ID:          "job-1",
				Name:        "traffic",
				Fingerprint: "abc",
				Document:    []byte("name: traffic"),
				Plan:        []byte(`{"name":"traffic"}`),
				CreatedAt:   now,
			},
			mockResult: func(mock sqlmock.Sqlmock, job *storage.JobRecord) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveJob)).
					WithArgs(job.ID, job.Name, job.Fingerprint, job.Document, job.Plan, job.CreatedAt).
					WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now.Add(time.Second)))
			},
			assertions: func(t *testing.T, job *storage.JobRecord, err error) {
				require.NoError(t, err)
				require.Equal(t, now.Add(time.Second), job.CreatedAt)
			},
		},
		{
			name: "name conflict maps to ErrDuplicate",
			job: &storage.JobRecord{
				ID:          "job-2",
				Name:        "traffic",
				Fingerprint: "abc",
				Document:    []byte("name: traffic"),
				Plan:        []byte(`{}`),
				CreatedAt:   now,
			},
			mockResult: func(mock sqlmock.Sqlmock, job *storage.JobRecord) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveJob)).
					WithArgs(job.ID, job.Name, job.Fingerprint, job.Document, job.Plan, job.CreatedAt).
					WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
			},
			assertions: func(t *testing.T, job *storage.JobRecord, err error) {
				require.ErrorIs(t, err, storage.ErrDuplicate)
				require.Equal(t, now, job.CreatedAt)
			},
		},
		{
			name: "driver error is wrapped",
			job: &storage.JobRecord{
				ID:        "job-3",
				Name:      "broken",
				Document:  []byte("x"),
				Plan:      []byte(`{}`),
				CreatedAt: now,
			},
			mockResult: func(mock sqlmock.Sqlmock, job *storage.JobRecord) {
				mock.ExpectQuery(regexp.QuoteMeta(querySaveJob)).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, job *storage.JobRecord, err error) {
				require.ErrorContains(t, err, "failed to save job")
				require.NotErrorIs(t, err, storage.ErrDuplicate)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			tc.mockResult(mock, tc.job)

			err := adapter.SaveJob(context.Background(), tc.job)
			tc.assertions(t, tc.job, err)

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_GetJob(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	createdAt := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetJob)).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobRowColumns()).
			AddRow("job-1", "traffic", "abc", []byte("name: traffic"), []byte(`{"name":"traffic"}`), createdAt))

	job, err := adapter.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, &storage.JobRecord{
		ID:          "job-1",
		Name:        "traffic",
		Fingerprint: "abc",
		Document:    []byte("name: traffic"),
		Plan:        []byte(`{"name":"traffic"}`),
		CreatedAt:   createdAt,
	}, job)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetJobNotFound(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetJob)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(jobRowColumns()))

	job, err := adapter.GetJob(context.Background(), "missing")
	require.Nil(t, job)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListJobs(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	createdAt := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryListJobs)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(jobRowColumns()).
			AddRow("job-2", "bytes", "def", []byte("b"), []byte(`{}`), createdAt.Add(time.Minute)).
			AddRow("job-1", "traffic", "abc", []byte("a"), []byte(`{}`), createdAt),
		).RowsWillBeClosed()

	jobs, err := adapter.ListJobs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "job-2", jobs[0].ID)
	require.Equal(t, "bytes", jobs[0].Name)
	require.Equal(t, "job-1", jobs[1].ID)
	require.Equal(t, createdAt, jobs[1].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListJobsQueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryListJobs)).
		WithArgs(10).
		WillReturnError(errors.New("boom"))

	jobs, err := adapter.ListJobs(context.Background(), 10)
	require.Nil(t, jobs)
	require.ErrorContains(t, err, "failed to query jobs")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryJobsTableExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = validateSchema(db)
	require.EqualError(t, err, "jobs table does not exist")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(querySaveJob)).WillBeClosed()
	stmtSave, err := db.Prepare(querySaveJob)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryGetJob)).WillBeClosed()
	stmtGet, err := db.Prepare(queryGetJob)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryListJobs)).WillBeClosed()
	stmtList, err := db.Prepare(queryListJobs)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:           db,
		stmtSaveJob:  stmtSave,
		stmtGetJob:   stmtGet,
		stmtListJobs: stmtList,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:           db,
		stmtSaveJob:  mustPrepareStmt(t, db, mock, querySaveJob),
		stmtGetJob:   mustPrepareStmt(t, db, mock, queryGetJob),
		stmtListJobs: mustPrepareStmt(t, db, mock, queryListJobs),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func jobRowColumns() []string {
	return []string{
		"id",
		"name",
		"fingerprint",
		"document",
		"plan",
		"created_at",
	}
}

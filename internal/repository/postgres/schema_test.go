package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS optimization_cycles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The DDL must cover every column the report repo reads and writes.
func TestSchemaCoversReportColumns(t *testing.T) {
	for _, col := range []string{
		"id", "account_id", "status", "arms_processed", "allocations",
		"apply_results", "updated_count", "failed_count", "pending_count",
		"created_at",
	} {
		assert.Contains(t, schema, col)
	}
	assert.Contains(t, schema, "CREATE INDEX IF NOT EXISTS")
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the cycle report store. Statements are idempotent
// so the server can apply them on every start.
const schema = `
CREATE TABLE IF NOT EXISTS optimization_cycles (
	id             TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL,
	status         TEXT NOT NULL,
	arms_processed INTEGER NOT NULL DEFAULT 0,
	allocations    JSONB,
	apply_results  JSONB,
	updated_count  INTEGER NOT NULL DEFAULT 0,
	failed_count   INTEGER NOT NULL DEFAULT 0,
	pending_count  INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_optimization_cycles_account_created
	ON optimization_cycles (account_id, created_at DESC);
`

// EnsureSchema creates the tables the report store writes to if they do not
// exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

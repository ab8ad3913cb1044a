package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into table with the COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// ReplaceRows deletes rows matching keyColumn = key and copies the new rows
// in one transaction.
func ReplaceRows(ctx context.Context, pool Pool, table, keyColumn string, key any, columns []string, rows [][]any) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	del := "DELETE FROM " + pgx.Identifier{table}.Sanitize() + " WHERE " + pgx.Identifier{keyColumn}.Sanitize() + " = $1"
	if _, err := tx.Exec(ctx, del, key); err != nil {
		return 0, eris.Wrapf(err, "db: replace: clear %s", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace: COPY INTO %s", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/samadpls/archdata/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	config     TEXT NOT NULL,
	stats      TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dataset_records (
	run_id            TEXT NOT NULL REFERENCES runs(id),
	position          INTEGER NOT NULL,
	domain            TEXT NOT NULL,
	action            TEXT NOT NULL,
	description       TEXT NOT NULL,
	label_score       REAL NOT NULL,
	augmentation_type TEXT NOT NULL,
	conversation      TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_dataset_records_type ON dataset_records(augmentation_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, cfg model.RunConfig) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run config")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(model.RunStatusQueued), string(configJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stats = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(statsJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		errMsg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, config, stats, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, config, stats, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SaveRecords replaces the stored records of a run.
func (s *SQLiteStore) SaveRecords(ctx context.Context, runID string, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save records")
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return eris.Wrapf(err, "sqlite: look up run %s", runID)
	}
	if exists == 0 {
		return eris.Errorf("run not found: %s", runID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_records WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear records for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dataset_records (run_id, position, domain, action, description, label_score, augmentation_type, conversation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range records {
		row, err := recordRow(runID, i, r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d for run %s", i, runID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit records")
}

// ListRecords returns a run's records in dataset order.
func (s *SQLiteStore) ListRecords(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, action, description, label_score, augmentation_type, conversation
		 FROM dataset_records WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list records for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var records []model.Record
	for rows.Next() {
		var (
			r              model.Record
			augType, turns string
		)
		if err := rows.Scan(&r.Domain, &r.Action, &r.Description, &r.LabelScore, &augType, &turns); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if err := decodeRecord(&r, augType, turns); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r          model.Run
		configJSON string
		statsJSON  sql.NullString
	)

	err := row.Scan(&r.ID, &r.Status, &configJSON, &statsJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	var stats *string
	if statsJSON.Valid {
		stats = &statsJSON.String
	}
	if err := decodeRunJSON(&r, configJSON, stats); err != nil {
		return nil, err
	}
	return &r, nil
}

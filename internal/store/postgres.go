package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/db"
	"github.com/samadpls/archdata/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL DEFAULT 'queued',
	config     JSONB NOT NULL,
	stats      JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dataset_records (
	run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position          INTEGER NOT NULL,
	domain            TEXT NOT NULL,
	action            TEXT NOT NULL,
	description       TEXT NOT NULL,
	label_score       DOUBLE PRECISION NOT NULL,
	augmentation_type TEXT NOT NULL,
	conversation      JSONB NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_dataset_records_type ON dataset_records(augmentation_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, cfg model.RunConfig) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal run config")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, config, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(model.RunStatusQueued), configJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET stats = $1, status = $2, updated_at = $3 WHERE id = $4`,
		statsJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		errMsg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx,
		`SELECT id, status, config, stats, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: run not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, config, stats, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveRecords replaces the stored records of a run using COPY.
func (s *PostgresStore) SaveRecords(ctx context.Context, runID string, records []model.Record) error {
	rows := make([][]any, 0, len(records))
	for i, r := range records {
		row, err := recordRow(runID, i, r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	n, err := db.ReplaceRows(ctx, s.pool, "dataset_records", "run_id", runID, recordColumns, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: save records for run %s", runID)
	}
	if n != int64(len(rows)) {
		return eris.Errorf("postgres: saved %d of %d records for run %s", n, len(rows), runID)
	}
	return nil
}

// ListRecords returns a run's records in dataset order.
func (s *PostgresStore) ListRecords(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT domain, action, description, label_score, augmentation_type, conversation::text
		 FROM dataset_records WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list records for run %s", runID)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var (
			r              model.Record
			augType, turns string
		)
		if err := rows.Scan(&r.Domain, &r.Action, &r.Description, &r.LabelScore, &augType, &turns); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if err := decodeRecord(&r, augType, turns); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var (
		r          model.Run
		configJSON []byte
		statsJSON  *[]byte
	)
	if err := row.Scan(&r.ID, &r.Status, &configJSON, &statsJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	var stats *string
	if statsJSON != nil {
		s := string(*statsJSON)
		stats = &s
	}
	if err := decodeRunJSON(&r, string(configJSON), stats); err != nil {
		return nil, err
	}
	return &r, nil
}

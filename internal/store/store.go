// Package store persists generation runs and the records they produced.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for generation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, cfg model.RunConfig) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Records
	SaveRecords(ctx context.Context, runID string, records []model.Record) error
	ListRecords(ctx context.Context, runID string) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store for driver and applies migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverSQLite:
		s, err = NewSQLite(dsn)
	case DriverPostgres:
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const defaultListLimit = 100

func listLimit(f RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// recordColumns is the column order shared by both drivers.
var recordColumns = []string{
	"run_id", "position", "domain", "action", "description",
	"label_score", "augmentation_type", "conversation",
}

func recordRow(runID string, position int, r model.Record) ([]any, error) {
	turns, err := json.Marshal(r.Conversation)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal conversation %d", position)
	}
	return []any{
		runID, position, r.Domain, r.Action, r.Description,
		r.LabelScore, string(r.AugmentationType), string(turns),
	}, nil
}

func decodeRecord(r *model.Record, augType, turns string) error {
	typ, err := model.ParseAugmentationType(augType)
	if err != nil {
		return err
	}
	r.AugmentationType = typ
	return eris.Wrap(json.Unmarshal([]byte(turns), &r.Conversation), "store: unmarshal conversation")
}

func decodeRunJSON(r *model.Run, configJSON string, statsJSON *string) error {
	if err := json.Unmarshal([]byte(configJSON), &r.Config); err != nil {
		return eris.Wrap(err, "store: unmarshal run config")
	}
	if statsJSON != nil {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal([]byte(*statsJSON), r.Stats); err != nil {
			return eris.Wrap(err, "store: unmarshal run stats")
		}
	}
	return nil
}

// Package store persists qualification runs and their stage snapshots.
// Two backends implement the same interface: SQLite for single-machine
// use and Postgres for shared deployments, chosen by configuration.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/confscout/internal/config"
	"github.com/sells-group/confscout/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status        model.RunStatus `json:"status,omitempty"`
	ConferenceURL string          `json:"conference_url,omitempty"`
	Limit         int             `json:"limit,omitempty"`
	Offset        int             `json:"offset,omitempty"`
}

// Snapshot is a persisted copy of the company ledger after one stage.
type Snapshot struct {
	ID        string                `json:"id"`
	RunID     string                `json:"run_id"`
	Stage     model.Stage           `json:"stage"`
	Companies []model.CompanyRecord `json:"companies"`
	CreatedAt time.Time             `json:"created_at"`
}

// Store defines the persistence interface for qualification runs.
type Store interface {
	CreateRun(ctx context.Context, conferenceURL string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	SaveSnapshot(ctx context.Context, runID string, stage model.Stage, companies []model.CompanyRecord) (*Snapshot, error)
	ListSnapshots(ctx context.Context, runID string) ([]Snapshot, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store backend named by configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "confscout.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

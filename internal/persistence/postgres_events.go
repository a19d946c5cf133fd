package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/autoplan/pkg/api"
)

// PostgresEventStore stores run events in PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver, for example
// "github.com/jackc/pgx/v5/stdlib" registered as "pgx".
type PostgresEventStore struct {
	db *sql.DB
}

var _ EventStore = (*PostgresEventStore)(nil)

// NewPostgresEventStore initializes the required schema in the given
// database and returns a new PostgresEventStore.
func NewPostgresEventStore(db *sql.DB) (*PostgresEventStore, error) {
	s := &PostgresEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			at BIGINT NOT NULL,
			type TEXT NOT NULL,
			plan TEXT NOT NULL DEFAULT '',
			stage INTEGER NOT NULL DEFAULT -1,
			entry INTEGER NOT NULL DEFAULT -1,
			duration_ns BIGINT NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id, id);
	`)
	return err
}

func (s *PostgresEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (run_id, at, type, plan, stage, entry, duration_ns, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.RunID,
		at.UnixNano(),
		string(ev.Type),
		ev.Plan,
		ev.Stage,
		ev.Entry,
		int64(ev.Duration),
		ev.Detail,
	)
	return err
}

func (s *PostgresEventStore) ListEvents(ctx context.Context, runID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, at, type, plan, stage, entry, duration_ns, detail
		FROM run_events
		WHERE run_id = $1
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

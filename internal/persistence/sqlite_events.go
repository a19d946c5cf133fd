package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/autoplan/pkg/api"
)

// SQLiteEventStore stores run events in SQLite.
//
// It expects an *sql.DB opened with the "sqlite" driver from
// modernc.org/sqlite.
type SQLiteEventStore struct {
	db *sql.DB
}

var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			plan TEXT NOT NULL DEFAULT '',
			stage INTEGER NOT NULL DEFAULT -1,
			entry INTEGER NOT NULL DEFAULT -1,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (run_id, at, type, plan, stage, entry, duration_ns, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteEventStore) ListEvents(ctx context.Context, runID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, at, type, plan, stage, entry, duration_ns, detail
		FROM run_events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// scanEvents reads rows selected as
// run_id, at, type, plan, stage, entry, duration_ns, detail.
func scanEvents(rows *sql.Rows) ([]api.RunEvent, error) {
	var out []api.RunEvent
	for rows.Next() {
		var (
			id     string
			atN    int64
			typ    string
			plan   string
			stage  int
			entry  int
			dur    int64
			detail string
		)
		if err := rows.Scan(&id, &atN, &typ, &plan, &stage, &entry, &dur, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.RunEvent{
			RunID:    id,
			At:       time.Unix(0, atN),
			Type:     api.EventType(typ),
			Plan:     plan,
			Stage:    stage,
			Entry:    entry,
			Duration: time.Duration(dur),
			Detail:   detail,
		})
	}
	return out, rows.Err()
}

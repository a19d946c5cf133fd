package autoplan

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/autoplan/internal/persistence"
	"github.com/petrijr/autoplan/pkg/api"
	"github.com/petrijr/autoplan/pkg/auto"
)

// Re-export key types so users don't need to dig into pkg/auto and pkg/api.

type (
	Job        = auto.Job
	JobType    = auto.JobType
	BaseJob    = auto.BaseJob
	Mirrorable = auto.Mirrorable
	JobHost    = auto.JobHost
	Binding    = auto.Binding
	Builder    = auto.Builder
	PlanFunc   = auto.PlanFunc
	Sequence   = auto.Sequence
	Option     = auto.Option

	Slot[J JobType]         = auto.Slot[J]
	AutoBehavior[J JobType] = auto.AutoBehavior[J]

	Clock                = api.Clock
	State                = api.State
	Status               = api.Status
	RunInfo              = api.RunInfo
	StageInfo            = api.StageInfo
	EntryInfo            = api.EntryInfo
	RunEvent             = api.RunEvent
	EventType            = api.EventType
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	EventStore     = persistence.EventStore
	EventLog       = persistence.Options
	Recorder       = persistence.Recorder
	RecorderOption = persistence.RecorderOption
)

// Re-export constructors and options.

var (
	New                = auto.New
	Advance            = auto.Advance
	WithClock          = auto.WithClock
	WithMirror         = auto.WithMirror
	WithObserver       = auto.WithObserver
	WithRunID          = auto.WithRunID
	WithBuffer         = persistence.WithBuffer
	WithRecorderLogger = persistence.WithRecorderLogger

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export errors.

var (
	ErrInvalidBuildState = auto.ErrInvalidBuildState
	ErrEmptyStage        = auto.ErrEmptyStage
	ErrMalformedPlan     = auto.ErrMalformedPlan
	ErrAlreadyFinished   = auto.ErrAlreadyFinished
	ErrSlotConflict      = auto.ErrSlotConflict
	ErrDuplicateBehavior = auto.ErrDuplicateBehavior
	ErrInvalidBinding    = auto.ErrInvalidBinding
	ErrInvalidDuration   = auto.ErrInvalidDuration
	ErrNotBuilt          = auto.ErrNotBuilt
	ErrAlreadyBuilt      = auto.ErrAlreadyBuilt
)

// Re-export state values for convenience.

const (
	StateIdle     = api.StateIdle
	StateBuilt    = api.StateBuilt
	StateRunning  = api.StateRunning
	StateComplete = api.StateComplete
	StateFailed   = api.StateFailed
)

// Bind pairs a behavior with a job it can host.
func Bind[J JobType](b AutoBehavior[J], job J) Binding {
	return auto.Bind(b, job)
}

// Event store constructors
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// OpenEventLog connects to the backend named by opts.Driver. The returned
// close function is never nil.
func OpenEventLog(ctx context.Context, opts EventLog) (EventStore, func() error, error) {
	return persistence.Open(ctx, opts)
}

// NewInMemoryEventStore returns a non-durable EventStore.
func NewInMemoryEventStore() EventStore {
	return persistence.NewInMemoryEventStore()
}

// NewSQLiteEventStore stores run history in a SQLite database.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// NewPostgresEventStore stores run history in PostgreSQL.
func NewPostgresEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewPostgresEventStore(db)
}

// NewRedisEventStore stores run history in Redis under prefix.
func NewRedisEventStore(client *redis.Client, prefix string) EventStore {
	return persistence.NewRedisEventStore(client, prefix)
}

// NewMongoEventStore stores run history in the "autoplan" database.
func NewMongoEventStore(client *mongo.Client) EventStore {
	return persistence.NewMongoEventStore(client, "", "")
}

// NewRecorder returns an Observer that writes run history to store in the
// background. Close it to flush.
func NewRecorder(store EventStore, opts ...RecorderOption) *Recorder {
	return persistence.NewRecorder(store, opts...)
}

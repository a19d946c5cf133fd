// Package persistence keeps an append-only history of runs.
//
// History is write-only from the scheduler's point of view: it is recorded
// for post-match review and is never used to restore or resume a plan.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("autoplan: unknown event log driver")

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Options selects and configures an event store backend.
type Options struct {
	Driver string
	// DSN is a file path or ":memory:" for sqlite, a connection URL for
	// postgres and mongo, and an address or redis:// URL for redis.
	DSN string
	// Prefix namespaces redis keys.
	Prefix string
}

// Open connects to the configured backend. The returned close function
// releases the connection and is never nil.
func Open(ctx context.Context, opts Options) (EventStore, func() error, error) {
	nop := func() error { return nil }

	switch opts.Driver {
	case "", DriverNone:
		return NoopEventStore{}, nop, nil

	case DriverMemory:
		return NewInMemoryEventStore(), nop, nil

	case DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, err
		}
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		store, err := NewSQLiteEventStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	case DriverPostgres:
		db, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store, err := NewPostgresEventStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	case DriverRedis:
		ropts, err := redisOptions(opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return NewRedisEventStore(client, opts.Prefix), client.Close, nil

	case DriverMongo:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.DSN))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(cctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return NewMongoEventStore(client, "", ""), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func redisOptions(dsn string) (*redis.Options, error) {
	if dsn == "" {
		return &redis.Options{Addr: "localhost:6379"}, nil
	}
	if strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://") {
		return redis.ParseURL(dsn)
	}
	return &redis.Options{Addr: dsn}, nil
}

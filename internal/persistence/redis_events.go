package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/autoplan/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis. It uses one list per
// run and a set of known run ids:
//
//	<prefix>run:<id>   => LIST of gob-encoded events, oldest first
//	<prefix>idx:runs   => SET of run ids
type RedisEventStore struct {
	client *redis.Client
	prefix string
}

var _ EventStore = (*RedisEventStore)(nil)

// NewRedisEventStore creates a RedisEventStore.
// prefix is optional but recommended (e.g. "autoplan:").
func NewRedisEventStore(client *redis.Client, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = "autoplan:"
	}
	return &RedisEventStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisEventStore) keyRun(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisEventStore) keyRuns() string {
	return s.prefix + "idx:runs"
}

func (s *RedisEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.keyRun(ev.RunID), data)
	pipe.SAdd(ctx, s.keyRuns(), ev.RunID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisEventStore) ListEvents(ctx context.Context, runID string) ([]api.RunEvent, error) {
	raw, err := s.client.LRange(ctx, s.keyRun(runID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var out []api.RunEvent
	for _, item := range raw {
		ev, err := DecodeEvent([]byte(item))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ListRuns returns the ids of every run with at least one event.
func (s *RedisEventStore) ListRuns(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.keyRuns()).Result()
}

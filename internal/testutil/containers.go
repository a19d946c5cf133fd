// Package testutil starts throwaway backends for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// requireDocker skips the test under -short or when no container runtime
// is reachable.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func run(t *testing.T, image string, opts ...testcontainers.ContainerCustomizer) string {
	t.Helper()
	requireDocker(t)

	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := testcontainers.Run(ctx, image, opts...)
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Skipf("start %s container: %v", image, err)
	}

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Skipf("resolve %s endpoint: %v", image, err)
	}
	return endpoint
}

// RedisAddress starts a Redis container for the duration of t and returns
// its host:port.
func RedisAddress(t *testing.T) string {
	t.Helper()
	endpoint := run(t, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	return endpoint
}

// PostgresDSN starts a PostgreSQL container for the duration of t and
// returns a pgx connection URL.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	endpoint := run(t, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://autoplan:autoplan@%s:%s/autoplan_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "autoplan",
			"POSTGRES_PASSWORD": "autoplan",
			"POSTGRES_DB":       "autoplan_test",
		}),
	)
	return fmt.Sprintf("postgres://autoplan:autoplan@%s/autoplan_test?sslmode=disable", endpoint)
}

// MongoURI starts a MongoDB container for the duration of t and returns
// its connection URI.
func MongoURI(t *testing.T) string {
	t.Helper()
	endpoint := run(t, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("mongod startup complete"),
		),
	)
	return fmt.Sprintf("mongodb://%s", endpoint)
}

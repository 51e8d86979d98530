//go:build integration

// Package mongotest starts a disposable single-node replica set for
// repository integration tests.
package mongotest

import (
	"context"
	"testing"
	"time"

	"fixify/pkg/client"
	"fixify/pkg/config"
	"fixify/pkg/logger"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const image = "mongo:7"

// NewConfig returns a config wired to a fresh container. Each call uses its
// own database name so tests in a package can share nothing.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, image, mongodb.WithReplicaSet("rs0"))
	require.NoError(t, err, "failed to start MongoDB container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate MongoDB container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	mc, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetDirect(true))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return mc.Ping(ctx, nil) == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(func() { _ = mc.Disconnect(context.Background()) })

	cfg := config.NewDefault()
	cfg.MongoURI = uri
	cfg.MongoDatabaseName = "fixify_test"
	cfg.Log = logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Service: "test"})
	cfg.Client = &client.Client{Mongo: mc}
	return cfg
}

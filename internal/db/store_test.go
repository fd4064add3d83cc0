package db

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/petalworks/bloom-server/internal/models"
)

// dockerAvailable returns true if a Docker daemon is reachable.
func dockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL testcontainer, runs migrations, and returns a connected DB.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	if !dockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("bloom_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zerolog.New(zerolog.NewTestWriter(t))
	cfg := DefaultConfig(connStr)
	cfg.MaxConns = 5
	cfg.MinConns = 1

	database, err := New(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	err = database.Migrate(ctx)
	require.NoError(t, err)

	return database
}

// createTestHistoryItem upserts a history item with an explicit timestamp.
func createTestHistoryItem(t *testing.T, db *DB, userID, itemID, prompt string, ts time.Time) *models.HistoryItem {
	t.Helper()
	item := models.NewHistoryItem(userID, itemID, prompt)
	item.Timestamp = ts
	_, err := db.UpsertHistoryItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

// createTestActivation inserts an activation for the given key.
func createTestActivation(t *testing.T, db *DB, licenseKey, userID, productID string) *models.Activation {
	t.Helper()
	a := models.NewActivation(licenseKey, userID, productID, models.TierCreator, 300)
	err := db.InsertActivation(context.Background(), a)
	require.NoError(t, err)
	return a
}

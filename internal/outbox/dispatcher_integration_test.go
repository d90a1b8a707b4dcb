//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestDispatcherPublishesClaimedBatch(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx, "")
	defer cleanup()

	userID := uuid.NewString()
	seedOutbox(t, ctx, pool, userID, "daylog.saved")
	seedOutbox(t, ctx, pool, userID, "daylog.analyzed")

	writer := &stubWriter{}
	d := NewDispatcher(pool, writer, 10*time.Millisecond, 5, nil)

	require.NoError(t, d.processBatch(ctx))
	require.Len(t, writer.byTopic["daylog_events"], 2)

	var published int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 2, published)
}

func TestDispatcherRetriesAfterWriterFailure(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx, "")
	defer cleanup()

	userID := uuid.NewString()
	seedOutbox(t, ctx, pool, userID, "daylog.saved")

	writer := &stubWriter{err: errors.New("broker unavailable")}
	d := NewDispatcher(pool, writer, 10*time.Millisecond, 5, nil)

	require.Error(t, d.processBatch(ctx))

	var published int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 0, published)

	// The next poll must see the row again once the broker recovers.
	writer.err = nil
	require.NoError(t, d.processBatch(ctx))
	require.Len(t, writer.byTopic["daylog_events"], 1)

	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDispatcherReleasesConnectionOnScanFailure(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx, "pool_max_conns=1")
	defer cleanup()

	// A NULL partition_key makes the row scan fail mid-claim; the
	// dispatcher must roll back and release its only connection.
	_, err := pool.Exec(ctx, `ALTER TABLE outbox ALTER COLUMN partition_key DROP NOT NULL`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
         VALUES ($1, 'daylog', $2, 'daylog.saved', 'daylog_events', NULL, '{}'::jsonb)`,
		uuid.NewString(), uuid.NewString()+":2026-01-01")
	require.NoError(t, err)

	d := NewDispatcher(pool, &stubWriter{}, 10*time.Millisecond, 5, nil)
	require.Error(t, d.processBatch(ctx))

	probeCtx, probeCancel := context.WithTimeout(ctx, 5*time.Second)
	defer probeCancel()

	var one int
	require.NoError(t, pool.QueryRow(probeCtx, `SELECT 1`).Scan(&one),
		"claim transaction must not hold the pool's only connection")
	require.Equal(t, 1, one)
}

func seedOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, eventType string) int64 {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"user_id": userID,
		"date":    "2026-01-01",
	})
	require.NoError(t, err)

	row := pool.QueryRow(ctx,
		`INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         RETURNING event_id`,
		userID,
		"daylog",
		userID+":2026-01-01",
		eventType,
		"daylog_events",
		userID,
		payload,
	)

	var eventID int64
	require.NoError(t, row.Scan(&eventID))
	return eventID
}

func setupPostgres(t *testing.T, ctx context.Context, poolParams string) (*pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tasknest"),
		postgrescontainer.WithUsername("tasknest"),
		postgrescontainer.WithPassword("tasknest"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	if poolParams != "" {
		connStr += "&" + poolParams
	}
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return pool, cleanup
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	migrationsDir := resolvePath(t, "../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "expected at least one migration .up.sql file")

	sort.Strings(files)

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

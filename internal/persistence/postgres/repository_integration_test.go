//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tasknest"),
		postgrescontainer.WithUsername("tasknest"),
		postgrescontainer.WithPassword("tasknest"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)

	user := identity.Record{
		User: identity.User{
			ID:          uuid.NewString(),
			Email:       "dev@example.com",
			DisplayName: "dev",
		},
		PasswordHash: []byte("not-a-real-hash"),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	found, err := repo.FindUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)
	require.Equal(t, user.PasswordHash, found.PasswordHash)

	const date = "2026-08-31"

	absent, err := repo.LoadDay(ctx, user.ID, date)
	require.NoError(t, err)
	require.Nil(t, absent)

	rec := domain.DayRecord{
		Date: date,
		Activities: []domain.Activity{
			{ID: uuid.NewString(), Title: "Deep work", Category: domain.CategoryWork, Minutes: 120},
			{ID: uuid.NewString(), Title: "Sleep", Category: domain.CategorySleep, Minutes: 480},
		},
	}
	require.NoError(t, repo.SaveDay(ctx, user.ID, date, rec))

	stored, err := repo.LoadDay(ctx, user.ID, date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Activities, 2)
	require.Equal(t, rec.Activities[0].Title, stored.Activities[0].Title)
	require.False(t, stored.Analyzed)

	require.NoError(t, repo.MarkAnalyzed(ctx, user.ID, date))

	stored, err = repo.LoadDay(ctx, user.ID, date)
	require.NoError(t, err)
	require.True(t, stored.Analyzed)

	// Saves are scoped per user even for the same calendar date.
	otherUser := uuid.NewString()
	other, err := repo.LoadDay(ctx, otherUser, date)
	require.NoError(t, err)
	require.Nil(t, other)

	// Each write leaves one routable event behind for the dispatcher.
	var pending int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND published_at IS NULL`, user.ID).Scan(&pending)
	require.NoError(t, err)
	require.Equal(t, 2, pending)
}

func TestMarkAnalyzedMissingRowIsNoOp(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tasknest"),
		postgrescontainer.WithUsername("tasknest"),
		postgrescontainer.WithPassword("tasknest"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)
	require.NoError(t, repo.MarkAnalyzed(ctx, uuid.NewString(), "2026-01-01"))

	var pending int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&pending)
	require.NoError(t, err)
	require.Equal(t, 0, pending)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
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

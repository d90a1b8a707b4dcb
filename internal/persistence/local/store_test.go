package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(Options{BasePath: t.TempDir()})
}

func TestLoadDayAbsent(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.LoadDay(context.Background(), "u1", "2025-11-02")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := domain.DayRecord{
		Date: "2025-11-02",
		Activities: []domain.Activity{
			{ID: "a", Title: "Deep work", Category: domain.CategoryWork, Minutes: 480},
			{ID: "b", Title: "Run", Category: domain.CategoryExercise, Minutes: 45},
		},
	}
	require.NoError(t, s.SaveDay(ctx, "u1", "2025-11-02", rec))

	loaded, err := s.LoadDay(ctx, "u1", "2025-11-02")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, rec, *loaded)

	// Keys are scoped per user: another user sees nothing.
	other, err := s.LoadDay(ctx, "u2", "2025-11-02")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestSaveDayOverwritesWholeValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := domain.DayRecord{Date: "2025-11-02", Activities: []domain.Activity{{ID: "a", Title: "x", Category: domain.CategoryWork, Minutes: 60}}}
	require.NoError(t, s.SaveDay(ctx, "u1", "2025-11-02", first))

	second := domain.DayRecord{Date: "2025-11-02", Activities: nil}
	require.NoError(t, s.SaveDay(ctx, "u1", "2025-11-02", second))

	loaded, err := s.LoadDay(ctx, "u1", "2025-11-02")
	require.NoError(t, err)
	require.Empty(t, loaded.Activities)
}

func TestMarkAnalyzed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkAnalyzed(ctx, "u1", "2025-11-02"), "absent record is a no-op")

	rec := domain.DayRecord{Date: "2025-11-02", Activities: []domain.Activity{{ID: "a", Title: "x", Category: domain.CategoryWork, Minutes: 60}}}
	require.NoError(t, s.SaveDay(ctx, "u1", "2025-11-02", rec))
	require.NoError(t, s.MarkAnalyzed(ctx, "u1", "2025-11-02"))

	loaded, err := s.LoadDay(ctx, "u1", "2025-11-02")
	require.NoError(t, err)
	require.True(t, loaded.Analyzed)
	require.Equal(t, rec.Activities, loaded.Activities)
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := identity.Record{
		User:         identity.User{ID: "user-1", Email: "alex.taylor@gmail.com", DisplayName: "Alex Taylor"},
		PasswordHash: []byte("not-a-real-hash"),
	}
	require.NoError(t, s.CreateUser(ctx, rec))

	byEmail, err := s.FindUserByEmail(ctx, "alex.taylor@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, rec, *byEmail)

	byID, err := s.FindUser(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	require.Equal(t, rec, *byID)

	missing, err := s.FindUserByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSimulatedLatencyHonorsContext(t *testing.T) {
	s := New(Options{BasePath: t.TempDir(), Latency: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.LoadDay(ctx, "u1", "2025-11-02")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

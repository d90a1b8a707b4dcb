package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GanagallaJoshitha/tasknest/internal/auth"
)

type memStore struct {
	byEmail map[string]Record
	byID    map[string]Record
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]Record), byID: make(map[string]Record)}
}

func (m *memStore) CreateUser(ctx context.Context, rec Record) error {
	m.byEmail[rec.Email] = rec
	m.byID[rec.ID] = rec
	return nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (*Record, error) {
	if rec, ok := m.byEmail[email]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *memStore) FindUser(ctx context.Context, id string) (*Record, error) {
	if rec, ok := m.byID[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

var tokenConfig = auth.Config{Secret: "test-secret", Issuer: "tasknest", TTL: time.Hour}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alex.Taylor@gmail.com", "hunter22", "Alex Taylor")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alex.taylor@gmail.com", user.Email, "emails are normalized")
	require.Equal(t, "Alex Taylor", user.DisplayName)
	require.NotEmpty(t, token)

	claims, err := auth.Parse(token, tokenConfig)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)

	again, loginToken, err := svc.Login(ctx, "alex.taylor@gmail.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, user, again)
	require.NotEmpty(t, loginToken)
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	user, _, err := svc.Register(context.Background(), "jordan@example.com", "pw", "")
	require.NoError(t, err)
	require.Equal(t, "jordan", user.DisplayName)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "a@b.c", "pw", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "a@b.c", "other", "")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "a@b.c", "correct", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@b.c", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestCurrentUserFallsBackToClaims(t *testing.T) {
	svc := NewService(newMemStore(), tokenConfig)
	user := svc.CurrentUser(context.Background(), &auth.Claims{
		Subject:     "user-x",
		Email:       "x@y.z",
		DisplayName: "X",
	})
	require.Equal(t, User{ID: "user-x", Email: "x@y.z", DisplayName: "X"}, user)
}

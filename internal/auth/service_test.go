package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelanceflow/freelanceflow/internal/shared"
)

type memoryAuthRepo struct {
	users    map[string]*User
	sessions map[string]int64
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{users: make(map[string]*User), sessions: make(map[string]int64)}
}

func (m *memoryAuthRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *memoryAuthRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	m.sessions[id] = userID
	return nil
}

func (m *memoryAuthRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *memoryAuthRepo, email, password string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[email] = &User{
		ID:           1,
		Email:        email,
		Name:         "Demo Freelancer",
		PasswordHash: string(hash),
		IsActive:     active,
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryAuthRepo()
	seedUser(t, repo, "demo@freelanceflow.local", "password123", true)
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "demo@freelanceflow.local", "password123")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = svc.Authenticate(ctx, "demo@freelanceflow.local", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@freelanceflow.local", "password123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMemoryAuthRepo()
	seedUser(t, repo, "old@freelanceflow.local", "password123", false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "old@freelanceflow.local", "password123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newMemoryAuthRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSession(ctx, "sess-1", 1, time.Now().Add(time.Hour), "127.0.0.1", "test-agent"))
	require.Contains(t, repo.sessions, "sess-1")

	require.NoError(t, svc.RemoveSession(ctx, "sess-1"))
	require.NotContains(t, repo.sessions, "sess-1")
}

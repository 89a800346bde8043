package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlaswear/atlaswear/internal/shared"
)

type memoryRepo struct {
	byEmail map[string]*User
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]*User)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	if _, ok := r.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	r.nextID++
	u := &User{ID: r.nextID, Email: email, Name: name, PasswordHash: passwordHash, IsActive: true}
	r.byEmail[email] = u
	return u, nil
}

func seedUser(t *testing.T, repo *memoryRepo, email, password string, active, admin bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.nextID++
	u := &User{ID: repo.nextID, Email: email, PasswordHash: string(hash), IsActive: active, IsAdmin: admin}
	repo.byEmail[email] = u
	return u
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "shopper@example.com", "correct-horse", true, false)
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "shopper@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "shopper@example.com", user.Email)

	_, err = svc.Authenticate(ctx, "shopper@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "gone@example.com", "correct-horse", false, false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "gone@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, "new@example.com", "New Shopper", "secret-password")
	require.NoError(t, err)
	require.NotEqual(t, "secret-password", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "new@example.com", "secret-password")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.Register(ctx, "new@example.com", "Again", "secret-password")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestIsAdmin(t *testing.T) {
	repo := newMemoryRepo()
	admin := seedUser(t, repo, "admin@example.com", "pw-irrelevant", true, true)
	shopper := seedUser(t, repo, "shopper@example.com", "pw-irrelevant", true, false)
	suspended := seedUser(t, repo, "old-admin@example.com", "pw-irrelevant", false, true)
	svc := NewService(repo)
	ctx := context.Background()

	ok, err := svc.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.IsAdmin(ctx, shopper.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsAdmin(ctx, suspended.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

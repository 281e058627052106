package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHasher returns the real scrypt hasher with a lower cost for faster testing.
func newTestHasher(t *testing.T) service.PasswordHasher {
	t.Helper()

	hasher, err := auth.NewScryptHasherWithParams(auth.ScryptParams{N: 1 << 10})
	require.NoError(t, err)

	return hasher
}

// memoryUserStore is an in-memory UserRepository and TransactionManager.
// It enforces the unique email index like the database does and rolls back
// writes made by a failed Execute callback.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]*entity.User)}
}

func (s *memoryUserStore) UserRepo() repository.UserRepository {
	return s
}

func (s *memoryUserStore) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*entity.User, len(s.users))
	for id, user := range s.users {
		copied := *user
		snapshot[id] = &copied
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users = snapshot
		s.mu.Unlock()

		return err
	}

	return nil
}

func (s *memoryUserStore) Find(_ context.Context, email string) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []*entity.User
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			found = append(found, &copied)
		}
	}

	return found, nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user

	return &copied, nil
}

func (s *memoryUserStore) Create(_ context.Context, email, password string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return nil, domainerrors.ErrEmailInUse.WrapMessage("email already exists")
		}
	}

	now := time.Now()
	user := &entity.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[user.ID] = user
	copied := *user

	return &copied, nil
}

func (s *memoryUserStore) Update(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	copied := *user
	copied.UpdatedAt = time.Now()
	s.users[user.ID] = &copied

	return nil
}

func (s *memoryUserStore) Remove(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)

	return nil
}

// insertRaw bypasses the unique check to model a store that lost the invariant.
func (s *memoryUserStore) insertRaw(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.users[id] = &entity.User{ID: id, Email: email, Password: password}
}

func (s *memoryUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}

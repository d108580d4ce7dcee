package local

import (
	"context"
	"sync"
)

// MemoryUserStore keeps users in a map, it is safe for concurrent use
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

var _ UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]*User{}}
}

func (m *MemoryUserStore) EnsureSchema(context.Context) error {
	return nil
}

func (m *MemoryUserStore) FindOne(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError(err, "find")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound.Clone().
			WithMetadata(map[string]any{"username": username})
	}

	return user.clone(), nil
}

func (m *MemoryUserStore) Save(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(err, "save")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return ErrUserExists.Clone().
			WithMetadata(map[string]any{"username": user.Username})
	}

	m.users[user.Username] = user.clone()
	return nil
}

// Len returns the number of stored users
func (m *MemoryUserStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

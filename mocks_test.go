package local_test

import (
	"context"
	"testing"

	local "github.com/goliatone/go-auth-local"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserStore implements local.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUserStore) FindOne(ctx context.Context, username string) (*local.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*local.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *local.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type capturingSink struct {
	events []local.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt local.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

// fast hashing settings keep the suites quick
func testConfig(store local.UserStore) local.Config {
	return local.Config{
		Store:      store,
		Iterations: 1000,
		KeyLength:  64,
	}
}

func newMemoryStrategy(t *testing.T, opts ...local.Option) (*local.Strategy, *local.MemoryUserStore) {
	t.Helper()

	store := local.NewMemoryUserStore()
	opts = append([]local.Option{local.WithLogger(local.NopLogger())}, opts...)

	s, err := local.New(context.Background(), testConfig(store), opts...)
	require.NoError(t, err)

	return s, store
}

func credentials(username, password string) local.Request {
	return local.NewRequest(map[string]any{
		"username": username,
		"password": password,
	}, nil)
}

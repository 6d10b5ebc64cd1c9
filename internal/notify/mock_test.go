package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Permission() Permission {
	args := m.Called()
	return args.Get(0).(Permission)
}

func (m *mockSink) Notify(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// memoryStore is an in-memory Store
type memoryStore struct {
	values map[string]string
	writes int
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Swap(_ context.Context, key, value string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	previous, found := s.values[key]
	if found && previous == value {
		return previous, true, nil
	}
	s.values[key] = value
	s.writes++
	return previous, found, nil
}

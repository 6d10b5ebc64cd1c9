package handlers

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/theme"
)

type mockController struct {
	mock.Mock
}

func (m *mockController) NavigateDay(ctx context.Context, dir navigator.Direction) error {
	return m.Called(ctx, dir).Error(0)
}

func (m *mockController) GoToToday(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) FetchLatest(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) ForceCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) ForceRescan(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) Rescanning() bool {
	return m.Called().Bool(0)
}

type mockThemeManager struct {
	mock.Mock
}

func (m *mockThemeManager) Init(ctx context.Context, system theme.Theme, control theme.Control) theme.Theme {
	active := m.Called(ctx, system).Get(0).(theme.Theme)
	if control != nil {
		control.SetTheme(active, theme.StyleFor(active))
	}
	return active
}

func (m *mockThemeManager) Toggle(ctx context.Context, system theme.Theme) (theme.Theme, error) {
	args := m.Called(ctx, system)
	return args.Get(0).(theme.Theme), args.Error(1)
}

// memoryPreferences is an in-memory theme.Store
type memoryPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryPreferences() *memoryPreferences {
	return &memoryPreferences{values: map[string]string{}}
}

func (s *memoryPreferences) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memoryPreferences) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

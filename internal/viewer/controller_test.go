package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/signals"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

var (
	testDates = []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	// 2024-01-05 is not in testDates
	testNow = time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
)

func menuFor(date string) menuapi.Menu {
	return menuapi.Menu{Date: date, ContentPL: "pl " + date, ContentEN: "en " + date, Images: []menuapi.Dish{}}
}

func newTestController(t *testing.T, source *mockSource, opts ...Option) (*Controller, *fakeDisplay) {
	t.Helper()
	display := newFakeDisplay()
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithSettleDelay(0)}, opts...)
	c, err := New(source, display.targets(), opts...)
	require.NoError(t, err)
	return c, display
}

// withState seeds the controller as if dates were loaded and current is displayed
func withState(c *Controller, current string, dates []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{CurrentDate: current, AvailableDates: dates}
}

func TestNew_MissingTargets(t *testing.T) {
	display := newFakeDisplay()

	tests := []struct {
		name    string
		display Display
		missing string
	}{
		{"panel", Display{Label: display, Nav: display, Rescan: display}, "menu panel"},
		{"label", Display{Panel: display, Nav: display, Rescan: display}, "date label"},
		{"nav", Display{Panel: display, Label: display, Rescan: display}, "navigation controls"},
		{"rescan", Display{Panel: display, Label: display, Nav: display}, "rescan control"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(&mockSource{}, tt.display)
			assert.Nil(t, c)
			require.ErrorIs(t, err, ErrMissingTarget)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}

	t.Run("nil source", func(t *testing.T) {
		_, err := New(nil, display.targets())
		assert.Error(t, err)
	})
}

func TestLoadAvailableDates(t *testing.T) {
	t.Run("success updates list and buttons", func(t *testing.T) {
		source := &mockSource{}
		source.On("Dates", mock.Anything).Return(testDates, nil)
		c, display := newTestController(t, source)

		c.LoadAvailableDates(context.Background())

		assert.Equal(t, testDates, c.State().AvailableDates)
		assert.Equal(t, 1, display.snapshot().navCalls)
	})

	t.Run("failure keeps previous list", func(t *testing.T) {
		source := &mockSource{}
		source.On("Dates", mock.Anything).Return(nil, errors.New("connection refused"))
		c, display := newTestController(t, source)
		withState(c, "", testDates)

		c.LoadAvailableDates(context.Background())

		assert.Equal(t, testDates, c.State().AvailableDates)
		assert.Zero(t, display.snapshot().navCalls)
	})

	t.Run("failure at startup leaves the list empty", func(t *testing.T) {
		source := &mockSource{}
		source.On("Dates", mock.Anything).Return(nil, errors.New("connection refused"))
		c, _ := newTestController(t, source)

		c.LoadAvailableDates(context.Background())

		assert.Empty(t, c.State().AvailableDates)
	})
}

func TestState_IsACopy(t *testing.T) {
	c, _ := newTestController(t, &mockSource{})
	withState(c, "2024-01-03", []string{"2024-01-03"})

	s := c.State()
	s.AvailableDates[0] = "changed"

	assert.Equal(t, "2024-01-03", c.State().AvailableDates[0])
}

func TestFetchLatest(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuFor("2024-01-03"), nil).Once()
		checker := &mockChecker{}
		checker.On("Check", mock.Anything, menuFor("2024-01-03")).Return(nil).Once()
		c, display := newTestController(t, source, WithNotifier(checker))
		withState(c, "", testDates)

		require.NoError(t, c.FetchLatest(ctx))

		snap := display.snapshot()
		assert.Equal(t, "menu", snap.panel)
		assert.Equal(t, "Menu for: 2024-01-03", snap.label)
		assert.Equal(t, "2024-01-03", c.State().CurrentDate)
		assert.Equal(t, navigator.Buttons{PrevDisabled: false, NextDisabled: true, TodayHidden: true}, snap.buttons)
		checker.AssertExpectations(t)
	})

	t.Run("server date wins", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuFor("2023-12-29"), nil)
		c, display := newTestController(t, source)
		withState(c, "2024-01-03", testDates)

		require.NoError(t, c.FetchLatest(ctx))

		assert.Equal(t, "2023-12-29", c.State().CurrentDate)
		// not in the list: both directions disabled
		snap := display.snapshot()
		assert.True(t, snap.buttons.PrevDisabled)
		assert.True(t, snap.buttons.NextDisabled)
	})

	t.Run("404 offers check now", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuapi.Menu{}, fmt.Errorf("/menu: %w", menuapi.ErrNotFound))
		c, display := newTestController(t, source)

		err := c.FetchLatest(ctx)
		require.ErrorIs(t, err, menuapi.ErrNotFound)

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, "No menu available yet for today.", snap.errPanel.Message)
		assert.Equal(t, viewhelpers.CheckNowAction, snap.errPanel.Action)
		assert.Zero(t, snap.navCalls, "latest failures leave buttons alone")
	})

	t.Run("other errors offer retry", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuapi.Menu{}, &menuapi.StatusError{StatusCode: http.StatusInternalServerError, Endpoint: "/menu"})
		c, display := newTestController(t, source)

		require.Error(t, c.FetchLatest(ctx))

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, "Error loading menu: /menu returned HTTP 500", snap.errPanel.Message)
		assert.Equal(t, viewhelpers.RetryAction, snap.errPanel.Action)
	})

	t.Run("notifier failure does not fail the fetch", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuFor("2024-01-03"), nil)
		checker := &mockChecker{}
		checker.On("Check", mock.Anything, mock.Anything).Return(errors.New("db locked"))
		c, display := newTestController(t, source, WithNotifier(checker))

		require.NoError(t, c.FetchLatest(ctx))
		assert.Equal(t, "menu", display.snapshot().panel)
	})

	t.Run("emits MenuRendered", func(t *testing.T) {
		received := make(chan signals.MenuRenderedData, 1)
		signals.OnMenuRendered(func(_ context.Context, data signals.MenuRenderedData) {
			select {
			case received <- data:
			default:
			}
		}, "viewer-test")
		t.Cleanup(func() { signals.MenuRendered.RemoveListener("viewer-test") })

		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuFor("2024-01-03"), nil)
		c, _ := newTestController(t, source)

		require.NoError(t, c.FetchLatest(ctx))

		select {
		case data := <-received:
			assert.Equal(t, "2024-01-03", data.Date)
			assert.Equal(t, uint64(1), data.Seq)
		case <-time.After(time.Second):
			t.Fatal("MenuRendered was not emitted")
		}
	})
}

func TestFetchMenuForDate_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("404 offers go to latest", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-01").Return(menuapi.Menu{}, fmt.Errorf("/menu: %w", menuapi.ErrNotFound))
		c, display := newTestController(t, source)
		withState(c, "2024-01-01", testDates)

		require.Error(t, c.FetchMenuForDate(ctx, "2024-01-01"))

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, "No menu available for 2024-01-01.", snap.errPanel.Message)
		assert.Equal(t, viewhelpers.GoToLatestAction, snap.errPanel.Action)
		assert.Equal(t, 1, snap.navCalls, "buttons refreshed after date failure")
		assert.Equal(t, "2024-01-01", c.State().CurrentDate)
	})

	t.Run("other errors include the reason", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-02").Return(menuapi.Menu{}, errors.New("timeout"))
		c, display := newTestController(t, source)

		require.Error(t, c.FetchMenuForDate(ctx, "2024-01-02"))

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, "Error loading menu for 2024-01-02: timeout", snap.errPanel.Message)
		assert.Equal(t, viewhelpers.GoToLatestAction, snap.errPanel.Action)
	})
}

func TestFetch_UnusableResponseShowsError(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, body string) *menuapi.Client {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, body)
		}))
		t.Cleanup(server.Close)
		return menuapi.NewClient(server.URL, time.Second)
	}

	t.Run("empty body for a date", func(t *testing.T) {
		checker := &mockChecker{}
		display := newFakeDisplay()
		c, err := New(newServer(t, ""), display.targets(), WithNotifier(checker), WithClock(func() time.Time { return testNow }))
		require.NoError(t, err)
		withState(c, "2024-01-02", testDates)

		err = c.FetchMenuForDate(ctx, "2024-01-02")
		require.ErrorIs(t, err, menuapi.ErrEmptyResponse)

		snap := display.snapshot()
		assert.Equal(t, "error", snap.panel)
		require.NotNil(t, snap.errPanel)
		assert.Contains(t, snap.errPanel.Message, "Error loading menu for 2024-01-02")
		assert.Equal(t, viewhelpers.GoToLatestAction, snap.errPanel.Action)
		assert.Empty(t, snap.label)
		assert.Equal(t, "2024-01-02", c.State().CurrentDate)
		checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("object without date for latest", func(t *testing.T) {
		checker := &mockChecker{}
		display := newFakeDisplay()
		c, err := New(newServer(t, `{}`), display.targets(), WithNotifier(checker), WithClock(func() time.Time { return testNow }))
		require.NoError(t, err)

		err = c.FetchLatest(ctx)
		require.ErrorIs(t, err, menuapi.ErrEmptyResponse)

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Contains(t, snap.errPanel.Message, "Error loading menu: ")
		assert.Equal(t, viewhelpers.RetryAction, snap.errPanel.Action)
		assert.Empty(t, c.State().CurrentDate)
		checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("source returning a dateless menu", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "").Return(menuapi.Menu{ContentPL: "a"}, nil)
		c, display := newTestController(t, source)
		withState(c, "2024-01-03", testDates)

		require.ErrorIs(t, c.FetchLatest(ctx), menuapi.ErrEmptyResponse)
		assert.Equal(t, "error", display.snapshot().panel)
		assert.Equal(t, "2024-01-03", c.State().CurrentDate)
	})
}

func TestNavigateDay(t *testing.T) {
	ctx := context.Background()

	t.Run("older", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-02").Return(menuFor("2024-01-02"), nil).Once()
		c, display := newTestController(t, source)
		withState(c, "2024-01-03", testDates)

		require.NoError(t, c.NavigateDay(ctx, navigator.Older))

		assert.Equal(t, "2024-01-02", c.State().CurrentDate)
		assert.Equal(t, navigator.Buttons{}, display.snapshot().buttons)
		source.AssertExpectations(t)
	})

	t.Run("newer", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-02").Return(menuFor("2024-01-02"), nil).Once()
		c, _ := newTestController(t, source)
		withState(c, "2024-01-01", testDates)

		require.NoError(t, c.NavigateDay(ctx, navigator.Newer))
		assert.Equal(t, "2024-01-02", c.State().CurrentDate)
	})

	t.Run("out of range is a no-op", func(t *testing.T) {
		source := &mockSource{}
		c, display := newTestController(t, source)
		withState(c, "2024-01-01", testDates)

		require.NoError(t, c.NavigateDay(ctx, navigator.Older))

		assert.Equal(t, "2024-01-01", c.State().CurrentDate)
		assert.Empty(t, display.snapshot().panel, "nothing displayed")
		source.AssertNotCalled(t, "Menu", mock.Anything, mock.Anything)
	})

	t.Run("current not in list is a no-op", func(t *testing.T) {
		source := &mockSource{}
		c, _ := newTestController(t, source)
		withState(c, "2023-12-29", testDates)

		require.NoError(t, c.NavigateDay(ctx, navigator.Newer))
		source.AssertNotCalled(t, "Menu", mock.Anything, mock.Anything)
	})
}

func TestGoToToday(t *testing.T) {
	ctx := context.Background()

	t.Run("today scanned", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-05").Return(menuFor("2024-01-05"), nil).Once()
		c, _ := newTestController(t, source)
		withState(c, "2024-01-03", []string{"2024-01-05", "2024-01-03"})

		require.NoError(t, c.GoToToday(ctx))
		assert.Equal(t, "2024-01-05", c.State().CurrentDate)
		source.AssertExpectations(t)
	})

	t.Run("falls back to most recent", func(t *testing.T) {
		source := &mockSource{}
		source.On("Menu", mock.Anything, "2024-01-03").Return(menuFor("2024-01-03"), nil).Once()
		c, _ := newTestController(t, source)
		withState(c, "2024-01-01", testDates)

		require.NoError(t, c.GoToToday(ctx))
		assert.Equal(t, "2024-01-03", c.State().CurrentDate)
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		source := &mockSource{}
		c, _ := newTestController(t, source)

		require.NoError(t, c.GoToToday(ctx))
		source.AssertNotCalled(t, "Menu", mock.Anything, mock.Anything)
	})
}

// blockingSource lets a test decide when each Menu call returns
type blockingSource struct {
	mockSource
	release map[string]chan menuapi.Menu
	started chan string
}

func (b *blockingSource) Menu(ctx context.Context, date string) (menuapi.Menu, error) {
	b.started <- date
	select {
	case menu := <-b.release[date]:
		return menu, nil
	case <-ctx.Done():
		return menuapi.Menu{}, ctx.Err()
	}
}

func TestFetch_StaleResponseIsDiscarded(t *testing.T) {
	source := &blockingSource{
		release: map[string]chan menuapi.Menu{
			"2024-01-02": make(chan menuapi.Menu),
			"2024-01-01": make(chan menuapi.Menu),
		},
		started: make(chan string, 2),
	}
	display := newFakeDisplay()
	c, err := New(source, display.targets(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	withState(c, "2024-01-03", testDates)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slow := make(chan error, 1)
	go func() { slow <- c.FetchMenuForDate(ctx, "2024-01-02") }()
	require.Equal(t, "2024-01-02", <-source.started)

	fast := make(chan error, 1)
	go func() { fast <- c.FetchMenuForDate(ctx, "2024-01-01") }()
	require.Equal(t, "2024-01-01", <-source.started)

	// newer request completes first
	source.release["2024-01-01"] <- menuFor("2024-01-01")
	require.NoError(t, <-fast)

	source.release["2024-01-02"] <- menuFor("2024-01-02")
	assert.ErrorIs(t, <-slow, ErrSuperseded)

	snap := display.snapshot()
	require.NotNil(t, snap.menu)
	assert.Equal(t, "2024-01-01", snap.menu.Date)
	assert.Equal(t, "Menu for: 2024-01-01", snap.label)
	assert.Equal(t, "2024-01-01", c.State().CurrentDate)
}

func TestForceCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("success reloads dates and latest", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, false).Return(menuapi.CheckResult{Status: "ok"}, nil).Once()
		source.On("Dates", mock.Anything).Return(testDates, nil).Once()
		source.On("Menu", mock.Anything, "").Return(menuFor("2024-01-03"), nil).Once()
		c, display := newTestController(t, source)

		require.NoError(t, c.ForceCheck(ctx))

		assert.Equal(t, "menu", display.snapshot().panel)
		assert.Equal(t, testDates, c.State().AvailableDates)
		source.AssertExpectations(t)
	})

	t.Run("failure shows retry", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, false).Return(menuapi.CheckResult{}, errors.New("refused"))
		c, display := newTestController(t, source)

		require.Error(t, c.ForceCheck(ctx))

		snap := display.snapshot()
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, viewhelpers.RetryAction, snap.errPanel.Action)
		source.AssertNotCalled(t, "Menu", mock.Anything, mock.Anything)
	})

	t.Run("settle delay honours cancellation", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, false).Return(menuapi.CheckResult{}, nil)
		c, display := newTestController(t, source, WithSettleDelay(time.Hour))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, c.ForceCheck(cancelled), context.Canceled)

		snap := display.snapshot()
		assert.Equal(t, "error", snap.panel, "the checking placeholder must not stay up")
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, viewhelpers.RetryAction, snap.errPanel.Action)
		source.AssertNotCalled(t, "Menu", mock.Anything, mock.Anything)
	})

	t.Run("cancellation after a newer fetch leaves it alone", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, false).Return(menuapi.CheckResult{}, nil)
		c, display := newTestController(t, source, WithSettleDelay(time.Hour))

		cancelled, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- c.ForceCheck(cancelled) }()

		require.Eventually(t, func() bool { return display.snapshot().loading == "Checking..." }, time.Second, 5*time.Millisecond)
		c.begin("Loading...")
		cancel()

		assert.ErrorIs(t, <-done, context.Canceled)
		snap := display.snapshot()
		assert.Equal(t, "loading", snap.panel)
		assert.Equal(t, "Loading...", snap.loading)
	})
}

func TestForceRescan(t *testing.T) {
	ctx := context.Background()

	t.Run("success restores the control", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, true).Return(menuapi.CheckResult{NewFound: true}, nil).Once()
		source.On("Dates", mock.Anything).Return(testDates, nil).Once()
		source.On("Menu", mock.Anything, "").Return(menuFor("2024-01-03"), nil).Once()
		c, display := newTestController(t, source)

		require.NoError(t, c.ForceRescan(ctx))

		snap := display.snapshot()
		assert.Equal(t, []bool{true, false}, snap.busyLog)
		assert.False(t, snap.busy)
		assert.Equal(t, "🔄 Force Rescan", snap.busyLabel)
		assert.False(t, c.Rescanning())
		source.AssertExpectations(t)
	})

	t.Run("failure restores the control and shows the panel", func(t *testing.T) {
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, true).Return(menuapi.CheckResult{}, errors.New("boom"))
		c, display := newTestController(t, source)

		require.Error(t, c.ForceRescan(ctx))

		snap := display.snapshot()
		assert.Equal(t, []bool{true, false}, snap.busyLog)
		assert.Equal(t, "🔄 Force Rescan", snap.busyLabel)
		require.NotNil(t, snap.errPanel)
		assert.Equal(t, "Failed to rescan menu.", snap.errPanel.Message)
		assert.Equal(t, viewhelpers.RetryAction, snap.errPanel.Action)
		assert.False(t, c.Rescanning())
	})

	t.Run("concurrent rescan is rejected", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		source := &mockSource{}
		source.On("CheckNow", mock.Anything, true).Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).Return(menuapi.CheckResult{}, errors.New("stop here")).Once()
		c, display := newTestController(t, source)

		done := make(chan error, 1)
		go func() { done <- c.ForceRescan(ctx) }()
		<-entered

		assert.True(t, c.Rescanning())
		assert.Equal(t, "Scanning...", display.snapshot().busyLabel)
		assert.ErrorIs(t, c.ForceRescan(ctx), ErrRescanInProgress)

		close(release)
		require.Error(t, <-done)
		assert.Equal(t, []bool{true, false}, display.snapshot().busyLog, "rejected call had no side effects")
		source.AssertNumberOfCalls(t, "CheckNow", 1)
	})
}

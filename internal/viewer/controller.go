// Package viewer drives the menu display: date navigation, fetching, rendering and polling.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/signals"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

var (
	// ErrSuperseded is returned when a newer request was dispatched before this one completed
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrRescanInProgress is returned when a rescan is requested while one is running
	ErrRescanInProgress = errors.New("rescan already in progress")
)

const (
	loadingText  = "Loading..."
	checkingText = "Checking..."
	scanningText = "Scanning..."
)

// MenuChecker is told about every menu that gets displayed
type MenuChecker interface {
	Check(ctx context.Context, menu menuapi.Menu) error
}

// Controller owns the viewer State and keeps the Display in sync with it
type Controller struct {
	source   menuapi.Source
	display  Display
	notifier MenuChecker
	logger   zerolog.Logger

	mu    sync.Mutex
	state State

	seq        *atomic.Uint64
	rescanning *atomic.Bool

	now         func() time.Time
	location    *time.Location
	settleDelay time.Duration
}

// Option configures a Controller
type Option func(*Controller)

// WithClock overrides the clock used to compute today
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLocation sets the time zone in which today is computed
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.location = loc }
}

// WithSettleDelay sets how long ForceCheck waits for the backend before reloading
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settleDelay = d }
}

// WithNotifier attaches the new-menu notifier
func WithNotifier(n MenuChecker) Option {
	return func(c *Controller) { c.notifier = n }
}

// New creates a controller. Every Display target is required.
func New(source menuapi.Source, display Display, opts ...Option) (*Controller, error) {
	if source == nil {
		return nil, errors.New("menu source is required")
	}
	if err := display.validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		source:      source,
		display:     display,
		logger:      logging.GetLogger("viewer"),
		state:       State{AvailableDates: []string{}},
		seq:         atomic.NewUint64(0),
		rescanning:  atomic.NewBool(false),
		now:         time.Now,
		location:    time.UTC,
		settleDelay: constants.DefaultCheckSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Rescanning reports whether a rescan is running
func (c *Controller) Rescanning() bool {
	return c.rescanning.Load()
}

// Today returns the current date in the configured location
func (c *Controller) Today() string {
	return constants.Today(c.now(), c.location)
}

// Init loads the date list and displays the latest menu
func (c *Controller) Init(ctx context.Context) error {
	c.LoadAvailableDates(ctx)
	return c.FetchLatest(ctx)
}

// LoadAvailableDates refreshes the date list. A failure keeps the previous list.
func (c *Controller) LoadAvailableDates(ctx context.Context) {
	dates, err := c.source.Dates(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load available dates")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AvailableDates = dates
	c.updateNavButtonsLocked()
	c.logger.Debug().Int("count", len(dates)).Msg("Available dates loaded")
}

// UpdateNavButtons recomputes the navigation control state
func (c *Controller) UpdateNavButtons() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateNavButtonsLocked()
}

func (c *Controller) updateNavButtonsLocked() {
	c.display.Nav.SetButtons(navigator.ComputeButtons(c.state.CurrentDate, c.state.AvailableDates, c.Today()))
}

// NavigateDay moves one date older or newer. It is a no-op at either end of the
// list or when the current date is not in it.
func (c *Controller) NavigateDay(ctx context.Context, dir navigator.Direction) error {
	c.mu.Lock()
	target, ok := navigator.Step(c.state.CurrentDate, c.state.AvailableDates, dir)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug().Int("direction", int(dir)).Msg("Navigation out of range, ignoring")
		return nil
	}
	c.state.CurrentDate = target
	c.mu.Unlock()

	return c.FetchMenuForDate(ctx, target)
}

// GoToToday displays today's menu when it was scanned, otherwise the most recent one
func (c *Controller) GoToToday(ctx context.Context) error {
	c.mu.Lock()
	target, ok := navigator.TodayTarget(c.state.AvailableDates, c.Today())
	if !ok {
		c.mu.Unlock()
		c.logger.Debug().Msg("No dates available, ignoring go to today")
		return nil
	}
	c.state.CurrentDate = target
	c.mu.Unlock()

	return c.FetchMenuForDate(ctx, target)
}

// FetchLatest displays the most recent menu
func (c *Controller) FetchLatest(ctx context.Context) error {
	return c.fetch(ctx, "")
}

// FetchMenuForDate displays the menu for date
func (c *Controller) FetchMenuForDate(ctx context.Context, date string) error {
	return c.fetch(ctx, date)
}

// begin takes a new request sequence number and shows the placeholder for it
func (c *Controller) begin(placeholder string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.seq.Inc()
	c.display.Panel.ShowLoading(placeholder)
	return seq
}

// isCurrentLocked reports whether seq is still the latest dispatched request
func (c *Controller) isCurrentLocked(seq uint64) bool {
	return c.seq.Load() == seq
}

func (c *Controller) fetch(ctx context.Context, date string) error {
	seq := c.begin(loadingText)
	logger := c.logger.With().Str("date", date).Uint64("seq", seq).Logger()
	logger.Debug().Msg("Fetching menu")

	menu, err := c.source.Menu(ctx, date)
	if err == nil && menu.Date == "" {
		err = fmt.Errorf("menu response has no date: %w", menuapi.ErrEmptyResponse)
	}

	c.mu.Lock()
	if !c.isCurrentLocked(seq) {
		c.mu.Unlock()
		logger.Debug().Msg("Discarding stale menu response")
		return ErrSuperseded
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch menu")
		c.display.Panel.ShowError(fetchErrorPanel(date, err))
		if date != "" {
			c.updateNavButtonsLocked()
		}
		c.mu.Unlock()
		return err
	}

	c.state.CurrentDate = menu.Date
	c.display.Label.SetDateLabel("Menu for: " + menu.Date)
	c.display.Panel.ShowMenu(menu)
	c.updateNavButtonsLocked()
	c.mu.Unlock()

	logger.Info().Str("menu_date", menu.Date).Int("dishes", len(menu.Images)).Msg("Menu displayed")

	if c.notifier != nil {
		if err := c.notifier.Check(ctx, menu); err != nil {
			logger.Warn().Err(err).Msg("New menu check failed")
		}
	}
	signals.EmitMenuRendered(ctx, menu.Date, seq)
	return nil
}

// fetchErrorPanel picks the message and recovery action for a failed fetch
func fetchErrorPanel(date string, err error) viewhelpers.ErrorPanel {
	notFound := errors.Is(err, menuapi.ErrNotFound)
	switch {
	case date == "" && notFound:
		return viewhelpers.ErrorPanel{Message: "No menu available yet for today.", Action: viewhelpers.CheckNowAction}
	case date == "":
		return viewhelpers.ErrorPanel{Message: "Error loading menu: " + err.Error(), Action: viewhelpers.RetryAction}
	case notFound:
		return viewhelpers.ErrorPanel{Message: fmt.Sprintf("No menu available for %s.", date), Action: viewhelpers.GoToLatestAction}
	default:
		return viewhelpers.ErrorPanel{Message: fmt.Sprintf("Error loading menu for %s: %s", date, err.Error()), Action: viewhelpers.GoToLatestAction}
	}
}

// ForceCheck asks the backend to look for a new menu, gives it a moment,
// then reloads the date list and the latest menu.
func (c *Controller) ForceCheck(ctx context.Context) error {
	seq := c.begin(checkingText)

	if _, err := c.source.CheckNow(ctx, false); err != nil {
		c.logger.Error().Err(err).Msg("Check-now request failed")
		c.mu.Lock()
		if c.isCurrentLocked(seq) {
			c.display.Panel.ShowError(fetchErrorPanel("", err))
		}
		c.mu.Unlock()
		return fmt.Errorf("check-now failed: %w", err)
	}

	if c.settleDelay > 0 {
		timer := time.NewTimer(c.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.mu.Lock()
			if c.isCurrentLocked(seq) {
				c.display.Panel.ShowError(fetchErrorPanel("", ctx.Err()))
			}
			c.mu.Unlock()
			return ctx.Err()
		case <-timer.C:
		}
	}

	c.LoadAvailableDates(ctx)
	return c.FetchLatest(ctx)
}

// ForceRescan makes the backend rescan even if a menu is known, then reloads everything.
// The rescan control is busy for the whole call.
func (c *Controller) ForceRescan(ctx context.Context) error {
	if !c.rescanning.CompareAndSwap(false, true) {
		return ErrRescanInProgress
	}
	defer c.rescanning.Store(false)

	c.mu.Lock()
	original := c.display.Rescan.Label()
	c.display.Rescan.SetBusy(true, scanningText)
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.display.Rescan.SetBusy(false, original)
		c.mu.Unlock()
	}()

	c.logger.Info().Msg("Forcing menu rescan")
	if _, err := c.source.CheckNow(ctx, true); err != nil {
		c.logger.Error().Err(err).Msg("Rescan failed")
		c.mu.Lock()
		// invalidate in-flight fetches so the failure stays visible
		c.seq.Inc()
		c.display.Panel.ShowError(viewhelpers.ErrorPanel{Message: "Failed to rescan menu.", Action: viewhelpers.RetryAction})
		c.mu.Unlock()
		return fmt.Errorf("rescan failed: %w", err)
	}

	c.LoadAvailableDates(ctx)
	return c.FetchLatest(ctx)
}

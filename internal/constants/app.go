// Package constants provides shared constants for the canteen-menu application
package constants

import "time"

// AppName is the human readable name used in page titles and log lines
const AppName = "Canteen Menu"

// DateLayout is the wire and storage format of every menu date
const DateLayout = "2006-01-02"

// Preference keys stored in the preferences table
const (
	PreferenceTheme            = "theme"
	PreferenceLastSeenMenuDate = "lastSeenMenuDate"
)

const (
	// DefaultPollInterval is how often the displayed menu is refreshed while viewing today
	DefaultPollInterval = 5 * time.Minute
	// DefaultCheckSettleDelay is the pause between a manual check-now and the refetch
	DefaultCheckSettleDelay = time.Second
	// DefaultAPITimeout bounds every request to the menu API
	DefaultAPITimeout = 15 * time.Second
	// DefaultCheckTimeout bounds check-now calls, which wait for the backend to scrape and extract the menu
	DefaultCheckTimeout = 3 * time.Minute
)

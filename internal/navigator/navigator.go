// Package navigator holds the pure date-navigation rules of the menu viewer.
// Dates are YYYY-MM-DD strings ordered most recent first.
package navigator

import "slices"

// Direction is a step through the date list
type Direction int

const (
	// Older moves towards the end of the list
	Older Direction = 1
	// Newer moves towards index 0
	Newer Direction = -1
)

// Buttons is the derived state of the navigation controls
type Buttons struct {
	PrevDisabled bool
	NextDisabled bool
	TodayHidden  bool
}

// ComputeButtons derives the navigation control state for the currently displayed date
func ComputeButtons(current string, dates []string, today string) Buttons {
	idx := indexOf(current, dates)
	return Buttons{
		PrevDisabled: idx == -1 || idx >= len(dates)-1,
		NextDisabled: idx <= 0,
		TodayHidden:  len(dates) == 0 || current == today || idx == 0,
	}
}

// Step returns the date one step away from current. ok is false when current is
// not in the list or the step would leave it.
func Step(current string, dates []string, dir Direction) (string, bool) {
	idx := indexOf(current, dates)
	if idx == -1 {
		return "", false
	}
	next := idx + int(dir)
	if next < 0 || next >= len(dates) {
		return "", false
	}
	return dates[next], true
}

// TodayTarget returns today when it was scanned, otherwise the most recent date
func TodayTarget(dates []string, today string) (string, bool) {
	if len(dates) == 0 {
		return "", false
	}
	if slices.Contains(dates, today) {
		return today, true
	}
	return dates[0], true
}

func indexOf(current string, dates []string) int {
	if current == "" {
		return -1
	}
	return slices.Index(dates, current)
}

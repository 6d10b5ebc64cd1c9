// Package constants provides shared constants for the canteen-menu application
package constants

import "time"

// IsValidDate checks that a string is a calendar date in DateLayout form.
// Used for validating dates received from the API and from user input.
func IsValidDate(date string) bool {
	if len(date) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// Today returns the current calendar date in the given location, formatted with DateLayout
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

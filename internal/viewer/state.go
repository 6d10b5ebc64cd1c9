package viewer

import "slices"

// State is the navigation state owned by a Controller
type State struct {
	// CurrentDate is empty until a date is chosen or a menu is displayed
	CurrentDate string
	// AvailableDates is ordered most recent first
	AvailableDates []string
}

func (s State) clone() State {
	return State{
		CurrentDate:    s.CurrentDate,
		AvailableDates: slices.Clone(s.AvailableDates),
	}
}

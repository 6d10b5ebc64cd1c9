package viewer

import (
	"errors"
	"fmt"

	"github.com/belphemur/canteen-menu/internal/menuapi"
	"github.com/belphemur/canteen-menu/internal/navigator"
	"github.com/belphemur/canteen-menu/internal/viewhelpers"
)

// ErrMissingTarget is returned by New when a required display target is absent
var ErrMissingTarget = errors.New("missing display target")

// MenuPanel is the area holding the menu, the loading placeholder or an error
type MenuPanel interface {
	ShowLoading(text string)
	ShowMenu(menu menuapi.Menu)
	ShowError(panel viewhelpers.ErrorPanel)
}

// DateLabel shows which date is displayed
type DateLabel interface {
	SetDateLabel(text string)
}

// NavControls are the previous / next / today buttons
type NavControls interface {
	SetButtons(buttons navigator.Buttons)
}

// BusyControl is the rescan trigger
type BusyControl interface {
	Label() string
	SetBusy(busy bool, label string)
}

// Display is the set of UI targets the controller drives. All of them are required.
type Display struct {
	Panel  MenuPanel
	Label  DateLabel
	Nav    NavControls
	Rescan BusyControl
}

func (d Display) validate() error {
	var missing []string
	if d.Panel == nil {
		missing = append(missing, "menu panel")
	}
	if d.Label == nil {
		missing = append(missing, "date label")
	}
	if d.Nav == nil {
		missing = append(missing, "navigation controls")
	}
	if d.Rescan == nil {
		missing = append(missing, "rescan control")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingTarget, missing)
	}
	return nil
}

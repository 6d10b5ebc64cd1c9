// Package notify raises a "new menu" notification when the displayed menu date changes.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/constants"
	"github.com/belphemur/canteen-menu/internal/logging"
	"github.com/belphemur/canteen-menu/internal/menuapi"
)

// Permission mirrors the browser notification permission states
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission maps an arbitrary string to a Permission, unknown values are PermissionDefault
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// Notification is what gets shown to the user
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Date  string `json:"date"`
}

// Sink delivers notifications to the user
type Sink interface {
	Permission() Permission
	Notify(ctx context.Context, n Notification) error
}

// Store persists the last seen menu date
type Store interface {
	Swap(ctx context.Context, key, value string) (previous string, found bool, err error)
}

// Template is the static part of the notification
type Template struct {
	Title string
	Body  string
	Icon  string
}

// Notifier compares each rendered menu against the last seen one
type Notifier struct {
	store    Store
	sink     Sink
	template Template
	logger   zerolog.Logger
}

// New creates a Notifier
func New(store Store, sink Sink, template Template) *Notifier {
	return &Notifier{
		store:    store,
		sink:     sink,
		template: template,
		logger:   logging.GetLogger("notifier"),
	}
}

// Check records menu.Date as seen and notifies when it differs from the previous one.
// It only notifies when permission was already granted and never asks for it.
func (n *Notifier) Check(ctx context.Context, menu menuapi.Menu) error {
	previous, found, err := n.store.Swap(ctx, constants.PreferenceLastSeenMenuDate, menu.Date)
	if err != nil {
		return fmt.Errorf("failed to record last seen menu date: %w", err)
	}
	if found && previous == menu.Date {
		return nil
	}

	n.logger.Info().Str("previous", previous).Str("date", menu.Date).Msg("New menu date seen")

	if n.sink == nil {
		return nil
	}
	if permission := n.sink.Permission(); permission != PermissionGranted {
		n.logger.Debug().Str("permission", string(permission)).Msg("Notification permission not granted, skipping")
		return nil
	}

	if err := n.sink.Notify(ctx, Notification{
		Title: n.template.Title,
		Body:  n.template.Body,
		Icon:  n.template.Icon,
		Date:  menu.Date,
	}); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}

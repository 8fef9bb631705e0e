package browser

import "errors"

var (
	// ErrNoActiveTab is returned when an operation requires a current tab
	// and the session has none. Navigate or open a page first.
	ErrNoActiveTab = errors.New("no active tab")

	// ErrTabNotFound is returned for a tab index that resolves to nothing.
	ErrTabNotFound = errors.New("tab not found")

	// ErrContextBusyClosing is returned when a context operation arrives
	// while a close is already in flight. Transient; callers may retry.
	ErrContextBusyClosing = errors.New("browser context is closing")

	// ErrTooManySessions is returned when creating a session would exceed
	// the registry's session cap.
	ErrTooManySessions = errors.New("maximum number of sessions reached")
)

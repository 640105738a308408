package rill

import "github.com/zoobzio/capitan"

// Field keys for executor and coordinator events.
var (
	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyKind is the classified failure kind.
	KeyKind = capitan.NewStringKey("kind")

	// KeyAttempt is the 1-based attempt number.
	KeyAttempt = capitan.NewIntKey("attempt")

	// KeyDelay is a scheduled backoff or debounce duration.
	KeyDelay = capitan.NewDurationKey("delay")

	// KeyState is the connection state when the coordinator stops.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the connection state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the connection state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeySource is the feed source tag of a snapshot or view.
	KeySource = capitan.NewStringKey("source")

	// KeyItems is the number of items in a snapshot, batch, or view.
	KeyItems = capitan.NewIntKey("items")

	// KeyDebounce is the configured quiescence window.
	KeyDebounce = capitan.NewDurationKey("debounce")
)

// Package notifications pushes upload outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so callers
// never need to check whether notifications are enabled. Delivery failures are
// returned to the caller, which is expected to log them and carry on.
package notifications

// Package notifications pushes daemon events to an ntfy topic.
//
// NewService returns a no-op notifier when no topic is configured, so
// callers never need to check whether notifications are enabled.
package notifications

// Package notifications delivers job lifecycle events via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// workflow code can publish unconditionally. Events carry a loosely typed
// Payload; each event owns its title, tags and message layout.
package notifications

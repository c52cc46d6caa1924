// Package notifications delivers capture and encode events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// daemon depends only on the Service interface, so alternative transports
// slot in without touching workflow code.
package notifications

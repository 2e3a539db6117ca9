// Package notifications publishes run events to ntfy.
//
// A blank topic yields a no-op Service. Each event kind can be switched off
// in the [notifications] section.
package notifications

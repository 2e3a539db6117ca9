// Package preflight checks that the services and paths a run depends on are
// usable before any file is processed.
//
// "cinematch check" prints every result; "cinematch run" refuses to start
// when the catalog check fails. Each check makes a single attempt.
package preflight

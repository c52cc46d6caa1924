// Package daemon ties the watch loop, encode dispatcher, and history
// store together behind a single-instance file lock.
package daemon

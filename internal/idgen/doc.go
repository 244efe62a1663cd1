// Package idgen generates identifiers: opaque UUID strings for events and
// queue messages, and sequential integers for process records.
package idgen

// Package progress keeps the scheduler's aggregated lifecycle counters and
// notifies an optional observer after every change.
package progress

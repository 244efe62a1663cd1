package catalog

import "errors"

// ErrUnknownProcess is returned when a catalog id has no entry.
var ErrUnknownProcess = errors.New("unknown process")

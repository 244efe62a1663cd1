package scheduler

import "errors"

var (
	// ErrNoRunningProcess is returned by Close when the Running slot is empty.
	ErrNoRunningProcess = errors.New("no running process")

	// ErrAlreadyRunning is returned by Dispatch while the Running slot is occupied.
	ErrAlreadyRunning = errors.New("a process is already running")

	// ErrNoPendingProcess is returned by Dispatch when New and Ready are empty.
	ErrNoPendingProcess = errors.New("no pending process")
)

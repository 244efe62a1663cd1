// Package scheduler moves process records through their lifecycle. It keeps
// FIFO queues for New, Ready and Blocked records plus a single Running slot,
// and is the only component that asks the resource pool for grants.
//
// Admission is a pure enqueue guarded by a side-effect-free feasibility
// check. Dispatch allocates, and Close releases. In the blocking variant a
// record that cannot be granted its resources waits in Blocked until the
// next Close moves it back to Ready.
package scheduler

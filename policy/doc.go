// Package policy provides optional operator rules applied before the
// scheduler admits a process: allow and block lists by application, plus an
// ask mode for interactive approval.
package policy

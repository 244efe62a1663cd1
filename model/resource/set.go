package resource

import "strings"

// Set is an ordered, duplicate-free collection of resource types a process
// needs one quantum of.
type Set []Type

// NewSet builds a Set preserving first-seen order and dropping duplicates.
func NewSet(types ...Type) Set {
	ret := make(Set, 0, len(types))
	for _, t := range types {
		if !ret.Contains(t) {
			ret = append(ret, t)
		}
	}
	return ret
}

// Contains reports whether t is in the set.
func (s Set) Contains(t Type) bool {
	for _, candidate := range s {
		if candidate == t {
			return true
		}
	}
	return false
}

// Types returns a copy of the member types.
func (s Set) Types() []Type {
	return append([]Type(nil), s...)
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for _, t := range s {
		names = append(names, t.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

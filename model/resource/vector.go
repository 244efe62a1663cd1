package resource

// Vector holds one integer quantity per resource type or, in the Banker's
// matrices, per column.
type Vector []int

// NewVector returns a Vector of Count entries all set to value.
func NewVector(value int) Vector {
	ret := make(Vector, Count)
	for i := range ret {
		ret[i] = value
	}
	return ret
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	return append(Vector(nil), v...)
}

// Add adds other into v in place. Vectors must have equal length.
func (v Vector) Add(other Vector) {
	for i := range v {
		v[i] += other[i]
	}
}

// Sub subtracts other from v in place. Vectors must have equal length.
func (v Vector) Sub(other Vector) {
	for i := range v {
		v[i] -= other[i]
	}
}

// LessOrEqual reports whether every entry of v is <= the matching entry of other.
func (v Vector) LessOrEqual(other Vector) bool {
	for i := range v {
		if v[i] > other[i] {
			return false
		}
	}
	return true
}

// IsNonNegative reports whether no entry is below zero.
func (v Vector) IsNonNegative() bool {
	for _, q := range v {
		if q < 0 {
			return false
		}
	}
	return true
}

// Equal reports element-wise equality.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

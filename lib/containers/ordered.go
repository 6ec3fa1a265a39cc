package containers

import (
	"golang.org/x/exp/constraints"
)

// CmpUint compares two unsigned integers, returning -1, 0, or 1; it's
// the building block for descriptor-id comparisons (spec's compare(a, b)
// = sign(a.descriptor_id - b.descriptor_id), done without risking
// underflow from a plain subtraction).
func CmpUint[T constraints.Unsigned](a, b T) int {
	switch {
	case a < b:
		return -1
	case a == b:
		return 0
	default:
		return 1
	}
}

// Package maps provides small generic helpers over Go maps.
package maps

import (
	"golang.org/x/exp/constraints"

	"github.com/pfftools/pff-rec/lib/slices"
)

func Keys[K comparable, V any](m map[K]V) []K {
	ret := make([]K, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	return ret
}

// SortedKeys returns the keys of m in ascending order, useful for
// deterministic iteration in logs, dumps, and tests.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	ret := Keys(m)
	slices.Sort(ret)
	return ret
}

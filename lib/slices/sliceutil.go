// Package slices provides small generic helpers over slices that are
// used for keeping a tree node's children sorted-unique by descriptor
// id without pulling in a full balanced-tree implementation.
package slices

import (
	"sort"

	"golang.org/x/exp/constraints"
)

func Sort[T constraints.Ordered](slice []T) {
	sort.Slice(slice, func(i, j int) bool {
		return slice[i] < slice[j]
	})
}

// SearchAscending returns the index of the first element for which
// keyFn returns a value >= key, using binary search over a slice that
// is assumed sorted ascending by keyFn. If every element is < key, it
// returns len(slice).
func SearchAscending[T any, K constraints.Ordered](slice []T, key K, keyFn func(T) K) int {
	return sort.Search(len(slice), func(i int) bool {
		return keyFn(slice[i]) >= key
	})
}

// InsertUnique inserts v into slice, which must already be sorted
// ascending by keyFn, maintaining sort order. If an element with the
// same key already exists, InsertUnique reports ok=false and leaves
// slice unmodified; the caller is responsible for deciding what to do
// with the duplicate (spec.md's build algorithm discards it).
func InsertUnique[T any, K constraints.Ordered](slice []T, v T, keyFn func(T) K) (_ []T, ok bool) {
	key := keyFn(v)
	i := SearchAscending(slice, key, keyFn)
	if i < len(slice) && keyFn(slice[i]) == key {
		return slice, false
	}
	slice = append(slice, v)
	copy(slice[i+1:], slice[i:])
	slice[i] = v
	return slice, true
}

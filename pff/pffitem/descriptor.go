// Package pffitem defines the Item Descriptor: the small
// immutable-after-construction value carried at each node of the item
// tree.
package pffitem

import (
	"github.com/pfftools/pff-rec/lib/containers"
	"github.com/pfftools/pff-rec/pff/pffprim"
)

// Descriptor is the payload carried at each ItemTreeNode. It is a
// plain value type; once constructed and attached to a node it is
// never mutated.
type Descriptor struct {
	DescriptorID       pffprim.DescriptorID
	DataID             pffprim.DataID
	LocalDescriptorsID pffprim.LocalDescriptorsID

	// Recovered distinguishes items reconstructed from deleted
	// regions of the file from items found in the live index.
	Recovered bool
}

// Compare gives Descriptor a total ordering by DescriptorID, per
// spec: compare(a, b) = sign(a.descriptor_id - b.descriptor_id).
func Compare(a, b Descriptor) int {
	return containers.CmpUint(a.DescriptorID, b.DescriptorID)
}

package pffutil

import (
	"fmt"

	"github.com/pfftools/pff-rec/pff/pffitem"
	"github.com/pfftools/pff-rec/pff/pffprim"
)

// search performs the depth-first pre-order walk both the builder's
// parent lookup and FindByIdentifier are defined in terms of (spec
// §4.3's "search the already-built portion of the item tree" and
// §4.4's find_by_identifier are the same operation). id=0 matches the
// synthetic root itself. It shares t's depthGuard with the builder,
// so a search and a build enforce the same 256-deep bound the same
// way.
func (t *Tree) search(id pffprim.DescriptorID, node NodeRef, depth int) (NodeRef, bool, error) {
	if err := t.guard.Enter(depth, fmt.Sprintf(" while searching for descriptor %d", id)); err != nil {
		return 0, false, err
	}
	if t.nodes[node].descriptor.DescriptorID == id {
		return node, true, nil
	}
	for _, child := range t.nodes[node].children {
		ref, ok, err := t.search(id, child, depth+1)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return ref, true, nil
		}
	}
	return 0, false, nil
}

// FindByIdentifier performs a depth-first pre-order search from the
// tree's synthetic root for the node with the given descriptor id.
// id=0 returns the synthetic root itself; it is the caller's
// responsibility to reject that if meaningless to them.
func (t *Tree) FindByIdentifier(id pffprim.DescriptorID) (NodeRef, bool, error) {
	return t.search(id, RootRef, 0)
}

// FindDirectChildByIdentifier performs a single-level linear scan over
// node's immediate children, returning the first (and, given the
// sorted-unique invariant, only) child whose descriptor id equals id.
func (t *Tree) FindDirectChildByIdentifier(node NodeRef, id pffprim.DescriptorID) (NodeRef, bool) {
	for _, child := range t.nodes[node].children {
		if t.nodes[child].descriptor.DescriptorID == id {
			return child, true
		}
	}
	return 0, false
}

// AppendIdentifierUnderNode constructs a descriptor and attaches it as
// a child of node without the sorted-unique check (appended at the
// end), for recovery / orphan-promotion paths outside the core build
// (spec §4.4).
func (t *Tree) AppendIdentifierUnderNode(
	node NodeRef,
	descriptorID pffprim.DescriptorID,
	dataID pffprim.DataID,
	localDescriptorsID pffprim.LocalDescriptorsID,
	recovered bool,
) (NodeRef, error) {
	n, err := t.stage(pffitem.Descriptor{
		DescriptorID:       descriptorID,
		DataID:             dataID,
		LocalDescriptorsID: localDescriptorsID,
		Recovered:          recovered,
	})
	if err != nil {
		return 0, err
	}
	return t.appendChildUnchecked(node, n), nil
}

package pffutil

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"github.com/pfftools/pff-rec/lib/containers"
	"github.com/pfftools/pff-rec/pff/pffitem"
	"github.com/pfftools/pff-rec/pff/pffprim"
	"github.com/pfftools/pff-rec/pfftree"
)

// DefaultRecursionLimit is the depth bound of §6: "fixed at 256
// (compile-time)... the default must match for cross-implementation
// test corpus compatibility." Build and the navigator both honor it
// unless overridden with WithRecursionLimit.
const DefaultRecursionLimit = 256

// Option configures Build.
type Option func(*options)

type options struct {
	recursionLimit int
	maxNodes       int
}

// WithRecursionLimit overrides DefaultRecursionLimit.
func WithRecursionLimit(n int) Option {
	return func(o *options) { o.recursionLimit = n }
}

// WithMaxNodes bounds the number of nodes the resulting tree's arena
// may hold; exceeding it surfaces as ErrAllocationFailure. Zero (the
// default) means unbounded.
func WithMaxNodes(n int) Option {
	return func(o *options) { o.maxNodes = n }
}

// Build performs a depth-first walk of cursor's on-disk descriptor
// index and reconstructs the logical item tree, per spec §4.3.
func Build(ctx context.Context, cursor pfftree.Cursor, opts ...Option) (*Tree, error) {
	ctx = dlog.WithField(ctx, "pff.util.item-tree.op", "build")

	cfg := options{recursionLimit: DefaultRecursionLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	tree := newTree(cfg.maxNodes, cfg.recursionLimit)
	b := &builder{
		cursor:  cursor,
		tree:    tree,
		guard:   depthGuard{limit: cfg.recursionLimit},
		visited: containers.NewSet[pfftree.NodeHandle](),
	}
	if err := b.walk(ctx, cursor.Root(), 0); err != nil {
		return nil, err
	}
	return tree, nil
}

type builder struct {
	cursor pfftree.Cursor
	tree   *Tree
	guard  depthGuard

	// visited tracks every physical leaf node of the descriptor
	// index that has already been turned into a tree node. It's
	// the rewrite's answer to an ambiguity the source leaves
	// open: a read-ahead materializes a leaf to resolve someone
	// else's parent, and the top-level walk later reaches that
	// same physical leaf again in its natural position. Without
	// this guard that second visit would produce a second tree
	// node for the same leaf (a duplicate orphan entry, in the
	// common case); with it, §8 invariant 4 ("the two sets are
	// disjoint and together cover all ... leaves") holds exactly.
	//
	// This is keyed by the cursor's NodeHandle, not by descriptor
	// id: two distinct on-disk leaves that happen to carry the
	// same descriptor id (the format's duplicate-child-id quirk,
	// §4.3) are both visited and both processed — the second
	// still goes through the sorted-unique duplicate-discard path
	// in commitChildSortedUnique, it just isn't skipped outright.
	visited containers.Set[pfftree.NodeHandle]
}

// walk descends one node of the on-disk descriptor index. Order
// matches the source: the top-of-subtree NumberOfSubNodes probe runs
// first (and is the only call whose I/O error is swallowed), then
// IsDeleted, then the leaf/internal dispatch.
func (b *builder) walk(ctx context.Context, node pfftree.NodeHandle, depth int) error {
	if err := b.guard.Enter(depth, ""); err != nil {
		return err
	}

	n, err := b.cursor.NumberOfSubNodes(ctx, node)
	if err != nil {
		if ioErr, ok := isCursorIoError(err); ok {
			dlog.Debugf(ctx, "pffutil: number_of_sub_nodes failed, skipping subtree: %v", ioErr)
			b.tree.corrupt = true
			return nil
		}
		return wrapCursor("NumberOfSubNodes", err)
	}

	deleted, err := b.cursor.IsDeleted(ctx, node)
	if err != nil {
		return wrapCursor("IsDeleted", err)
	}
	if deleted {
		return nil
	}

	isLeaf, err := b.cursor.IsLeaf(ctx, node)
	if err != nil {
		return wrapCursor("IsLeaf", err)
	}
	if isLeaf {
		return b.processLeaf(ctx, node, depth)
	}

	for i := 0; i < n; i++ {
		child, err := b.cursor.SubNodeByIndex(ctx, node, i)
		if err != nil {
			return wrapCursor(fmt.Sprintf("SubNodeByIndex(%d)", i), err)
		}
		if err := b.walk(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) processLeaf(ctx context.Context, node pfftree.NodeHandle, depth int) error {
	if b.visited.Has(node) {
		return nil
	}
	b.visited.Insert(node)

	v, err := b.cursor.NodeValue(ctx, node)
	if err != nil {
		return wrapCursor("NodeValue", err)
	}

	// Copy out the fields we need. NodeValue returns IndexValue by
	// value (see pfftree.IndexValue), so these locals are unaffected
	// by later cursor calls.
	identifier, parentIdentifier := v.Identifier, v.ParentIdentifier
	dataID, ldscID := pffprim.DataID(v.DataIdentifier), pffprim.LocalDescriptorsID(v.LocalDescriptorsIdentifier)

	id, ok := pffprim.NarrowDescriptorID(identifier)
	if !ok {
		return newError(ErrOutOfBounds, "descriptor identifier %d exceeds uint32", identifier)
	}
	parentID := pffprim.DescriptorID(parentIdentifier)

	desc := pffitem.Descriptor{DescriptorID: id, DataID: dataID, LocalDescriptorsID: ldscID}

	if id == parentID {
		return b.attachRootFolder(ctx, desc, id)
	}
	return b.attachOrOrphan(ctx, desc, id, parentID, depth)
}

func (b *builder) attachRootFolder(ctx context.Context, desc pffitem.Descriptor, id pffprim.DescriptorID) error {
	if b.tree.rootFolder.OK {
		return newError(ErrDuplicateRoot, "second self-parented leaf with descriptor id %d", id)
	}
	n, err := b.tree.stage(desc)
	if err != nil {
		return err
	}
	ref, _ := b.tree.commitChildSortedUnique(RootRef, n)
	b.tree.rootFolder = containers.OptionalValue(ref)
	dlog.Debugf(ctx, "pffutil: descriptor %d is the root folder", id)
	return nil
}

func (b *builder) attachOrOrphan(ctx context.Context, desc pffitem.Descriptor, id, parentID pffprim.DescriptorID, depth int) error {
	parentRef, found, err := b.tree.search(parentID, RootRef, 0)
	if err != nil {
		return err
	}

	if !found {
		readAheadCtx := dlog.WithField(ctx, "pff.util.item-tree.read-ahead", parentID)
		dlog.Debugf(readAheadCtx, "pffutil: reading ahead for descriptor %d parent %d", id, parentID)
		handle, ok, err := b.cursor.LookupLeafByIdentifier(ctx, uint32(parentID))
		if err != nil {
			return wrapCursor("LookupLeafByIdentifier", err)
		}
		if ok {
			if err := b.walk(readAheadCtx, handle, depth+1); err != nil {
				return err
			}
			parentRef, found, err = b.tree.search(parentID, RootRef, 0)
			if err != nil {
				return err
			}
		}
	}

	n, err := b.tree.stage(desc)
	if err != nil {
		return err
	}

	if !found {
		orphanCtx := dlog.WithField(ctx, "pff.util.item-tree.orphan", id)
		dlog.Debugf(orphanCtx, "pffutil: parent %d missing - found orphan node %d", parentID, id)
		b.tree.commitOrphan(n)
		return nil
	}

	b.tree.commitChildSortedUnique(parentRef, n)
	return nil
}

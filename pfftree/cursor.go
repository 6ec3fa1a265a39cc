// Package pfftree defines the Lazy Index Cursor contract: the
// consumer-facing view of the on-disk descriptor B-tree that the item
// tree builder (package pffutil) walks. Byte-level decoding of index
// pages lives outside this module's scope (spec Non-goals); this
// package specifies only the contract the builder depends on, plus a
// bounded decode cache and an in-memory reference implementation used
// by the builder's own tests and by cmd/pff-tree.
package pfftree

import (
	"context"
	"fmt"
)

// NodeHandle is an opaque reference to a node in the on-disk
// descriptor index, as returned by SubNodeByIndex and
// LookupLeafByIdentifier. Implementations are free to make this any
// comparable value (a file offset, a page+slot pair, ...); the
// builder only ever compares handles with ==.
type NodeHandle any

// IndexValue is the decoded content of a leaf node of the descriptor
// index. Unlike the original PFF library this contract returns
// IndexValue by value: the rewrite's Design Notes call for the cursor
// to hand back owned/copied values instead of references that can be
// invalidated by the next cursor call, so callers of this interface
// never need to defensively copy fields out before making further
// cursor calls.
type IndexValue struct {
	Identifier                 uint64
	ParentIdentifier           uint32
	DataIdentifier             uint64
	LocalDescriptorsIdentifier uint64
}

// Cursor is the external collaborator the item tree builder consumes;
// the navigator works on the built tree in memory and does not use
// it. Every operation may trigger an I/O + decode pass
// through a bounded cache (see BoundedCache) and so takes a context.
type Cursor interface {
	// NumberOfSubNodes returns the number of children of node.
	NumberOfSubNodes(ctx context.Context, node NodeHandle) (int, error)

	// SubNodeByIndex returns the i'th child of node. i is
	// 0-based; ErrOutOfBounds is returned if i is out of range.
	SubNodeByIndex(ctx context.Context, node NodeHandle, i int) (NodeHandle, error)

	// IsLeaf reports whether node directly carries a descriptor
	// record (true) or has children that must be recursed into
	// (false).
	IsLeaf(ctx context.Context, node NodeHandle) (bool, error)

	// IsDeleted reports whether node (and its whole subtree, if
	// it is not a leaf) should be skipped by the builder.
	IsDeleted(ctx context.Context, node NodeHandle) (bool, error)

	// NodeValue decodes the leaf's descriptor record. It is only
	// valid to call this on a node for which IsLeaf returned
	// true.
	NodeValue(ctx context.Context, node NodeHandle) (IndexValue, error)

	// LookupLeafByIdentifier searches the whole descriptor index
	// (not just the already-visited portion) for the leaf node
	// carrying the given descriptor id, for the builder's
	// read-ahead path. ok is false if no such leaf exists.
	LookupLeafByIdentifier(ctx context.Context, id uint32) (node NodeHandle, ok bool, err error)

	// Root returns the handle to the root of the on-disk
	// descriptor index, the starting point for the builder's
	// depth-first walk.
	Root() NodeHandle
}

// IoError wraps a failure from the underlying cursor I/O or decode
// path. Everywhere except the top-of-subtree NumberOfSubNodes probe,
// an IoError is fatal and propagates to the builder's caller.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("pfftree: %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// ErrOutOfBounds is returned by SubNodeByIndex when the requested
// index is not a valid child slot.
var ErrOutOfBounds = outOfBoundsError("sub node index out of bounds")

type outOfBoundsError string

func (e outOfBoundsError) Error() string { return string(e) }

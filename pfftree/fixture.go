package pfftree

import (
	"context"
	"fmt"
)

// FixtureLeaf describes one leaf of a synthetic descriptor index: a
// single logical item as it would be decoded from an on-disk leaf
// node. It is the unit the reference FixtureCursor is built from, and
// the unit cmd/pff-tree reads from a JSON fixture file.
type FixtureLeaf struct {
	ID                 uint64
	ParentID           uint32
	DataID             uint64
	LocalDescriptorsID uint64
}

// FixtureNode describes one node of the synthetic on-disk descriptor
// index. Exactly one of Leaf or Children should be set: a node with
// Leaf set is a leaf of the index; a node with Children set (possibly
// empty) is an internal node. Deleted and FailSubNodes let tests and
// the CLI fixture describe the corruption-tolerance paths from
// spec.md §7/§8 without needing an actual corrupt PFF file.
type FixtureNode struct {
	Leaf     *FixtureLeaf
	Children []FixtureNode

	// Deleted marks this node (and, if internal, its whole
	// subtree) as deleted; the builder skips it entirely.
	Deleted bool

	// FailSubNodes makes NumberOfSubNodes return an IoError for
	// this node, simulating the "top-of-subtree probe" failure
	// that spec.md §4.3/§7 says the builder swallows and
	// continues past.
	FailSubNodes bool
}

type compiledNode struct {
	isLeaf       bool
	leaf         FixtureLeaf
	children     []int
	deleted      bool
	failSubNodes bool
}

// FixtureCursor is an in-memory Cursor implementation built from a
// FixtureNode tree. It is the module's reference implementation of
// the Lazy Index Cursor contract, used by every builder test and by
// cmd/pff-tree; real on-disk page decoding is out of this module's
// scope (spec.md Non-goals).
type FixtureCursor struct {
	nodes        []compiledNode
	decodeCache  *BoundedCache[int, IndexValue]
	byIdentifier map[uint32]int
}

// NewFixtureCursor compiles a FixtureNode tree into a Cursor. The
// decode cache size is fixed at 64 entries; that's plenty for the
// small fixtures this module's tests and CLI use, and matches the
// spirit (if not the tuning) of the teacher's bounded caches.
func NewFixtureCursor(root FixtureNode) *FixtureCursor {
	c := &FixtureCursor{
		decodeCache:  NewBoundedCache[int, IndexValue](64),
		byIdentifier: make(map[uint32]int),
	}
	c.compile(root, false)
	return c
}

// compile appends n and its subtree to c.nodes. underDeleted is true
// when an ancestor of n is marked Deleted; leaves inside a deleted
// subtree are kept out of LookupLeafByIdentifier.
func (c *FixtureCursor) compile(n FixtureNode, underDeleted bool) int {
	idx := len(c.nodes)
	c.nodes = append(c.nodes, compiledNode{}) // reserve the slot
	cn := compiledNode{
		deleted:      n.Deleted,
		failSubNodes: n.FailSubNodes,
	}
	deleted := underDeleted || n.Deleted
	if n.Leaf != nil {
		cn.isLeaf = true
		cn.leaf = *n.Leaf
		if !deleted {
			// Narrowing to uint32 is intentional: an
			// identifier that doesn't fit is simply never
			// reachable by LookupLeafByIdentifier (the
			// builder will hit OutOfBounds on its own copy
			// of the value first).
			if id, ok := NarrowUint32(n.Leaf.ID); ok {
				c.byIdentifier[id] = idx
			}
		}
	} else {
		for _, child := range n.Children {
			cn.children = append(cn.children, c.compile(child, deleted))
		}
	}
	c.nodes[idx] = cn
	return idx
}

// NarrowUint32 reports whether wide fits in a uint32, returning the
// narrowed value if so.
func NarrowUint32(wide uint64) (uint32, bool) {
	if wide > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(wide), true
}

var _ Cursor = (*FixtureCursor)(nil)

func (c *FixtureCursor) Root() NodeHandle { return 0 }

func (c *FixtureCursor) node(h NodeHandle) (compiledNode, error) {
	idx, ok := h.(int)
	if !ok || idx < 0 || idx >= len(c.nodes) {
		return compiledNode{}, &IoError{Op: "node", Err: fmt.Errorf("invalid node handle %v", h)}
	}
	return c.nodes[idx], nil
}

func (c *FixtureCursor) NumberOfSubNodes(_ context.Context, h NodeHandle) (int, error) {
	n, err := c.node(h)
	if err != nil {
		return 0, err
	}
	if n.failSubNodes {
		return 0, &IoError{Op: "NumberOfSubNodes", Err: fmt.Errorf("simulated I/O failure at node %v", h)}
	}
	return len(n.children), nil
}

func (c *FixtureCursor) SubNodeByIndex(_ context.Context, h NodeHandle, i int) (NodeHandle, error) {
	n, err := c.node(h)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(n.children) {
		return nil, ErrOutOfBounds
	}
	return n.children[i], nil
}

func (c *FixtureCursor) IsLeaf(_ context.Context, h NodeHandle) (bool, error) {
	n, err := c.node(h)
	if err != nil {
		return false, err
	}
	return n.isLeaf, nil
}

func (c *FixtureCursor) IsDeleted(_ context.Context, h NodeHandle) (bool, error) {
	n, err := c.node(h)
	if err != nil {
		return false, err
	}
	return n.deleted, nil
}

func (c *FixtureCursor) NodeValue(_ context.Context, h NodeHandle) (IndexValue, error) {
	idx, ok := h.(int)
	if !ok {
		return IndexValue{}, &IoError{Op: "NodeValue", Err: fmt.Errorf("invalid node handle %v", h)}
	}
	if cached, ok := c.decodeCache.Get(idx); ok {
		return cached, nil
	}
	n, err := c.node(h)
	if err != nil {
		return IndexValue{}, err
	}
	if !n.isLeaf {
		return IndexValue{}, &IoError{Op: "NodeValue", Err: fmt.Errorf("node %v is not a leaf", h)}
	}
	v := IndexValue{
		Identifier:                 n.leaf.ID,
		ParentIdentifier:           uint32(n.leaf.ParentID),
		DataIdentifier:             n.leaf.DataID,
		LocalDescriptorsIdentifier: n.leaf.LocalDescriptorsID,
	}
	c.decodeCache.Add(idx, v)
	return v, nil
}

func (c *FixtureCursor) LookupLeafByIdentifier(_ context.Context, id uint32) (NodeHandle, bool, error) {
	idx, ok := c.byIdentifier[id]
	if !ok {
		return nil, false, nil
	}
	return idx, true, nil
}

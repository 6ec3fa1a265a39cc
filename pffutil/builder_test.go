package pffutil_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfftools/pff-rec/pff/pffprim"
	"github.com/pfftools/pff-rec/pfftree"
	"github.com/pfftools/pff-rec/pffutil"
)

func leaf(id, parent uint64) pfftree.FixtureNode {
	return pfftree.FixtureNode{Leaf: &pfftree.FixtureLeaf{ID: id, ParentID: uint32(parent)}}
}

func flat(leaves ...pfftree.FixtureNode) pfftree.FixtureNode {
	return pfftree.FixtureNode{Children: leaves}
}

func descriptorIDs(refs []pffutil.NodeRef, tree *pffutil.Tree) []pffprim.DescriptorID {
	out := make([]pffprim.DescriptorID, len(refs))
	for i, ref := range refs {
		out[i] = tree.Descriptor(ref).DescriptorID
	}
	return out
}

// S1: normal tree.
func TestBuildS1NormalTree(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(1, 1),
		leaf(2, 1),
		leaf(3, 1),
		leaf(4, 2),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)
	assert.False(t, tree.Corrupt())
	assert.Empty(t, tree.Orphans())

	rootFolder, ok := tree.RootFolder()
	require.True(t, ok)
	assert.Equal(t, pffprim.DescriptorID(1), tree.Descriptor(rootFolder).DescriptorID)

	children := tree.Children(rootFolder)
	assert.Equal(t, []pffprim.DescriptorID{2, 3}, descriptorIDs(children, tree))

	node2 := children[0]
	grandchildren := tree.Children(node2)
	assert.Equal(t, []pffprim.DescriptorID{4}, descriptorIDs(grandchildren, tree))
}

// S2: out-of-order build via read-ahead.
func TestBuildS2OutOfOrder(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(4, 2),
		leaf(2, 1),
		leaf(1, 1),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)
	assert.Empty(t, tree.Orphans())

	rootFolder, ok := tree.RootFolder()
	require.True(t, ok)
	assert.Equal(t, pffprim.DescriptorID(1), tree.Descriptor(rootFolder).DescriptorID)

	children := tree.Children(rootFolder)
	assert.Equal(t, []pffprim.DescriptorID{2}, descriptorIDs(children, tree))
	assert.Equal(t, []pffprim.DescriptorID{4}, descriptorIDs(tree.Children(children[0]), tree))
}

// S3: true orphan, parent unreachable.
func TestBuildS3TrueOrphan(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(1, 1),
		leaf(7, 99),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	rootFolder, ok := tree.RootFolder()
	require.True(t, ok)
	assert.Empty(t, tree.Children(rootFolder))

	assert.Equal(t, []pffprim.DescriptorID{7}, descriptorIDs(tree.Orphans(), tree))
}

// S4: duplicate child id from two distinct on-disk leaves; the second
// descriptor is discarded and the build still succeeds. The two
// leaves carry distinct DataIDs so the kept node can be checked
// against the first leaf's, pinning down first-wins rather than just
// "a node with id 5 survived."
func TestBuildS4DuplicateChildID(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(1, 1),
		pfftree.FixtureNode{Leaf: &pfftree.FixtureLeaf{ID: 5, ParentID: 1, DataID: 100}},
		pfftree.FixtureNode{Leaf: &pfftree.FixtureLeaf{ID: 5, ParentID: 1, DataID: 200}},
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	rootFolder, _ := tree.RootFolder()
	children := tree.Children(rootFolder)
	assert.Equal(t, []pffprim.DescriptorID{5}, descriptorIDs(children, tree))
	assert.Equal(t, pffprim.DataID(100), tree.Descriptor(children[0]).DataID, "first leaf wins over the later duplicate")
}

// S5: no root folder present; both leaves become orphans.
func TestBuildS5NoRootFolder(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(10, 20),
		leaf(20, 30),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	_, ok := tree.RootFolder()
	assert.False(t, ok)

	orphans := descriptorIDs(tree.Orphans(), tree)
	assert.ElementsMatch(t, []pffprim.DescriptorID{10, 20}, orphans)
	assert.Len(t, orphans, 2, "each leaf must produce exactly one orphan entry, not one per visit")
}

// S6: a synthetic parent chain long enough to overflow the recursion
// bound. The chain is presented leaf-last-first, so resolving the
// last leaf's ancestry forces read-ahead all the way back up the
// chain.
func TestBuildS6RecursionOverflow(t *testing.T) {
	ctx := context.Background()
	const chainLen = 300

	var leaves []pfftree.FixtureNode
	leaves = append(leaves, leaf(1, 1)) // the chain's root folder
	for i := 2; i <= chainLen; i++ {
		leaves = append(leaves, leaf(uint64(i), uint64(i-1)))
	}
	// Reverse so the deepest descendant is visited first, forcing
	// the longest possible read-ahead chain.
	for i, j := 0, len(leaves)-1; i < j; i, j = i+1, j-1 {
		leaves[i], leaves[j] = leaves[j], leaves[i]
	}

	cur := pfftree.NewFixtureCursor(flat(leaves...))

	_, err := pffutil.Build(ctx, cur)
	require.Error(t, err)
	assert.ErrorIs(t, err, pffutil.ErrOutOfBounds)
}

func TestBuildEmptyCursor(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat())

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)
	assert.Empty(t, tree.Orphans())
	_, ok := tree.RootFolder()
	assert.False(t, ok)
	assert.Empty(t, tree.Children(tree.Root()))
}

func TestBuildDuplicateRoot(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(1, 1),
		leaf(2, 2),
	))

	_, err := pffutil.Build(ctx, cur)
	require.Error(t, err)
	assert.ErrorIs(t, err, pffutil.ErrDuplicateRoot)
}

func TestBuildDescriptorIDOverflow(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		pfftree.FixtureNode{Leaf: &pfftree.FixtureLeaf{ID: uint64(pffprim.MaxDescriptorID) + 1, ParentID: 0}},
	))

	_, err := pffutil.Build(ctx, cur)
	require.Error(t, err)
	assert.ErrorIs(t, err, pffutil.ErrOutOfBounds)
}

// Recursion depth exactly at the configured bound succeeds; one level
// deeper fails with OutOfBounds. Built on nested internal nodes rather
// than a 256-deep fixture so the test stays small.
func TestBuildRecursionBoundary(t *testing.T) {
	ctx := context.Background()

	nest := func(depth int) pfftree.FixtureNode {
		n := leaf(1, 1)
		for i := 0; i < depth; i++ {
			n = pfftree.FixtureNode{Children: []pfftree.FixtureNode{n}}
		}
		return n
	}

	cur := pfftree.NewFixtureCursor(nest(3))
	_, err := pffutil.Build(ctx, cur, pffutil.WithRecursionLimit(3))
	assert.NoError(t, err)

	cur = pfftree.NewFixtureCursor(nest(4))
	_, err = pffutil.Build(ctx, cur, pffutil.WithRecursionLimit(3))
	assert.ErrorIs(t, err, pffutil.ErrOutOfBounds)
}

func TestBuildCorruptSubtreeTolerance(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		pfftree.FixtureNode{FailSubNodes: true, Children: []pfftree.FixtureNode{leaf(99, 99)}},
		leaf(1, 1),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)
	assert.True(t, tree.Corrupt())

	_, ok, err := tree.FindByIdentifier(99)
	require.NoError(t, err)
	assert.False(t, ok, "the skipped subtree's leaf must not appear in the tree")

	rootFolder, ok := tree.RootFolder()
	require.True(t, ok)
	assert.Equal(t, pffprim.DescriptorID(1), tree.Descriptor(rootFolder).DescriptorID)
}

func TestBuildDeletedSubtreeSkipped(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		pfftree.FixtureNode{Deleted: true, Children: []pfftree.FixtureNode{leaf(2, 1)}},
		leaf(1, 1),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	_, ok, err := tree.FindByIdentifier(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Invariant 1: children of every node are strictly ascending by
// descriptor id.
func TestInvariantChildrenSortedAscending(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(
		leaf(1, 1),
		leaf(9, 1),
		leaf(3, 1),
		leaf(5, 1),
		leaf(2, 1),
	))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	rootFolder, _ := tree.RootFolder()
	ids := descriptorIDs(tree.Children(rootFolder), tree)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

// Invariant 3: find_by_identifier(tree, 0) returns the synthetic root.
func TestInvariantFindRootByZero(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(flat(leaf(1, 1)))

	tree, err := pffutil.Build(ctx, cur)
	require.NoError(t, err)

	ref, ok, err := tree.FindByIdentifier(pffprim.RootDescriptorID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pffutil.RootRef, ref)
}

// Round-trip: building twice from the same cursor produces
// node-by-node-equal trees.
func TestBuildIsDeterministic(t *testing.T) {
	ctx := context.Background()
	mk := func() pfftree.FixtureNode {
		return flat(leaf(4, 2), leaf(2, 1), leaf(1, 1), leaf(3, 1))
	}

	tree1, err := pffutil.Build(ctx, pfftree.NewFixtureCursor(mk()))
	require.NoError(t, err)
	tree2, err := pffutil.Build(ctx, pfftree.NewFixtureCursor(mk()))
	require.NoError(t, err)

	dump := func(tree *pffutil.Tree, ref pffutil.NodeRef) string {
		var rec func(pffutil.NodeRef) string
		rec = func(ref pffutil.NodeRef) string {
			s := fmt.Sprintf("%d[", tree.Descriptor(ref).DescriptorID)
			for _, c := range tree.Children(ref) {
				s += rec(c)
			}
			return s + "]"
		}
		return rec(ref)
	}

	assert.Equal(t, dump(tree1, tree1.Root()), dump(tree2, tree2.Root()))
}

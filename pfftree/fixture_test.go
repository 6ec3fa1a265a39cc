package pfftree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfftools/pff-rec/pfftree"
)

func leaf(id, parent uint64) pfftree.FixtureNode {
	return pfftree.FixtureNode{Leaf: &pfftree.FixtureLeaf{ID: id, ParentID: uint32(parent)}}
}

func TestFixtureCursorBasics(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(pfftree.FixtureNode{Children: []pfftree.FixtureNode{
		leaf(1, 1),
		leaf(2, 1),
	}})

	root := cur.Root()
	n, err := cur.NumberOfSubNodes(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	isLeaf, err := cur.IsLeaf(ctx, root)
	require.NoError(t, err)
	assert.False(t, isLeaf)

	child0, err := cur.SubNodeByIndex(ctx, root, 0)
	require.NoError(t, err)
	isLeaf, err = cur.IsLeaf(ctx, child0)
	require.NoError(t, err)
	assert.True(t, isLeaf)

	v, err := cur.NodeValue(ctx, child0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Identifier)
	assert.Equal(t, uint32(1), v.ParentIdentifier)

	handle, ok, err := cur.LookupLeafByIdentifier(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	v, err = cur.NodeValue(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Identifier)

	_, ok, err = cur.LookupLeafByIdentifier(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFixtureCursorOutOfBounds(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(pfftree.FixtureNode{Children: []pfftree.FixtureNode{leaf(1, 1)}})

	_, err := cur.SubNodeByIndex(ctx, cur.Root(), 5)
	assert.ErrorIs(t, err, pfftree.ErrOutOfBounds)
}

func TestFixtureCursorFailSubNodes(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(pfftree.FixtureNode{Children: []pfftree.FixtureNode{
		{FailSubNodes: true, Children: []pfftree.FixtureNode{leaf(3, 3)}},
		leaf(1, 1),
	}})

	root := cur.Root()
	badSubtree, err := cur.SubNodeByIndex(ctx, root, 0)
	require.NoError(t, err)
	_, err = cur.NumberOfSubNodes(ctx, badSubtree)
	var ioErr *pfftree.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestFixtureCursorDeletedIsInvisibleToLookup(t *testing.T) {
	ctx := context.Background()
	cur := pfftree.NewFixtureCursor(pfftree.FixtureNode{Children: []pfftree.FixtureNode{
		{Leaf: &pfftree.FixtureLeaf{ID: 7, ParentID: 7}, Deleted: true},
	}})
	_, ok, err := cur.LookupLeafByIdentifier(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

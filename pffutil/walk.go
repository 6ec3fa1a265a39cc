package pffutil

import (
	"errors"
	iofs "io/fs"
)

// Walk visits every node of tree in depth-first pre-order starting at
// tree.Root(), calling fn with each node's depth (the root is depth
// 0). If fn returns an error that is io/fs.SkipDir, that node's
// children are skipped but the walk otherwise continues; any other
// error aborts the walk and is returned to the caller. Recursion is
// bounded by tree's own depthGuard, the same one Build and search
// enforce: AppendIdentifierUnderNode can grow a chain one node at a
// time with no recursion of its own, so without this a walk over such
// a chain would have no bound at all. This is the rewrite's one
// addition beyond the spec's own build/navigate surface, modeled on
// the teacher's TreeWalkHandler.Node callback.
func Walk(tree *Tree, fn func(depth int, n NodeRef) error) error {
	return walkNode(tree, tree.Root(), 0, fn)
}

func walkNode(tree *Tree, ref NodeRef, depth int, fn func(int, NodeRef) error) error {
	if err := tree.guard.Enter(depth, ""); err != nil {
		return err
	}
	if err := fn(depth, ref); err != nil {
		if errors.Is(err, iofs.SkipDir) {
			return nil
		}
		return err
	}
	for _, child := range tree.Children(ref) {
		if err := walkNode(tree, child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

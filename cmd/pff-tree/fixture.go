package main

import (
	"bufio"
	"fmt"
	"os"

	"git.lukeshu.com/go/lowmemjson"

	"github.com/pfftools/pff-rec/pfftree"
)

// fixtureNode mirrors pfftree.FixtureNode but with JSON-friendly field
// names, decoded via lowmemjson the way the teacher decodes its own
// JSON-described fixtures (cmd/btrfs-rec/util.go's readJSONFile).
type fixtureNode struct {
	ID                 *uint64       `json:"id,omitempty"`
	ParentID           uint32        `json:"parent_id,omitempty"`
	DataID             uint64        `json:"data_id,omitempty"`
	LocalDescriptorsID uint64        `json:"local_descriptors_id,omitempty"`
	Children           []fixtureNode `json:"children,omitempty"`
	Deleted            bool          `json:"deleted,omitempty"`
	FailSubNodes       bool          `json:"fail_sub_nodes,omitempty"`
}

func (n fixtureNode) toFixture() pfftree.FixtureNode {
	out := pfftree.FixtureNode{
		Deleted:      n.Deleted,
		FailSubNodes: n.FailSubNodes,
	}
	if n.ID != nil {
		out.Leaf = &pfftree.FixtureLeaf{
			ID:                 *n.ID,
			ParentID:           n.ParentID,
			DataID:             n.DataID,
			LocalDescriptorsID: n.LocalDescriptorsID,
		}
		return out
	}
	out.Children = make([]pfftree.FixtureNode, len(n.Children))
	for i, child := range n.Children {
		out.Children[i] = child.toFixture()
	}
	return out
}

// loadFixture reads filename as a JSON-described synthetic descriptor
// index and compiles it into a Cursor.
func loadFixture(filename string) (*pfftree.FixtureCursor, error) {
	fh, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var root fixtureNode
	if err := lowmemjson.DecodeThenEOF(bufio.NewReader(fh), &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return pfftree.NewFixtureCursor(root.toFixture()), nil
}

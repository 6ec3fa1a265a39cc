package main

import (
	"fmt"
	"strings"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/pfftools/pff-rec/lib/maps"
	"github.com/pfftools/pff-rec/pff/pffprim"
	"github.com/pfftools/pff-rec/pffutil"
)

func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "dump",
			Short: "Dump the whole tree in depth-first pre-order",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(tree *pffutil.Tree, cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			seen := make(map[pffprim.DescriptorID]pffutil.NodeRef)
			if err := pffutil.Walk(tree, func(depth int, ref pffutil.NodeRef) error {
				desc := tree.Descriptor(ref)
				fmt.Fprintf(out, "%s%s", strings.Repeat("  ", depth), spew.Sdump(desc))
				seen[desc.DescriptorID] = ref
				return nil
			}); err != nil {
				return err
			}

			// Printed independently of visit order so the
			// summary line is stable across runs regardless of
			// how read-ahead reordered materialization.
			ids := maps.SortedKeys(seen)
			fmt.Fprintf(out, "descriptor ids present (%d): %v\n", len(ids), ids)
			return nil
		},
	})
}

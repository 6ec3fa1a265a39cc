package main

import (
	"fmt"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/pfftools/pff-rec/pffutil"
)

func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "build",
			Short: "Build the item tree and report a summary",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(tree *pffutil.Tree, cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if rootFolder, ok := tree.RootFolder(); ok {
				fmt.Fprintf(out, "root folder: descriptor %d\n", tree.Descriptor(rootFolder).DescriptorID)
			} else {
				fmt.Fprintln(out, "root folder: none found")
			}

			orphans := tree.Orphans()
			fmt.Fprintf(out, "orphans: %d\n", len(orphans))
			for _, ref := range orphans {
				fmt.Fprintf(out, "  - descriptor %d\n", tree.Descriptor(ref).DescriptorID)
			}

			fmt.Fprintf(out, "corrupt: %v\n", tree.Corrupt())
			return nil
		},
	})
}

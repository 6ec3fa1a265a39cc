package main

import (
	"fmt"
	"strconv"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/pfftools/pff-rec/pff/pffprim"
	"github.com/pfftools/pff-rec/pffutil"
)

func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "find DESCRIPTOR_ID",
			Short: "Look up a node by descriptor id and print its descriptor",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		RunE: func(tree *pffutil.Tree, cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("parsing descriptor id %q: %w", args[0], err)
			}

			ref, ok, err := tree.FindByIdentifier(pffprim.DescriptorID(id))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no node with descriptor id %d", id)
			}

			fmt.Fprintln(cmd.OutOrStdout(), spew.Sdump(tree.Descriptor(ref)))
			if parent, ok := tree.Parent(ref); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "parent: descriptor %d\n", tree.Descriptor(parent).DescriptorID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "parent: none (root or orphan)")
			}
			return nil
		},
	})
}

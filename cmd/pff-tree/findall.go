package main

import (
	"fmt"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/pfftools/pff-rec/pff/pffprim"
	"github.com/pfftools/pff-rec/pffutil"
)

// find-all mirrors the teacher's TreeSearchAll: it keeps going past a
// miss instead of stopping at the first one, and reports every miss
// together as a derror.MultiError.
func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "find-all DESCRIPTOR_ID...",
			Short: "Look up several descriptor ids at once, reporting every miss",
			Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		},
		RunE: func(tree *pffutil.Tree, cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var errs derror.MultiError

			for _, arg := range args {
				var id uint32
				if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
					errs = append(errs, fmt.Errorf("parsing descriptor id %q: %w", arg, err))
					continue
				}
				ref, ok, err := tree.FindByIdentifier(pffprim.DescriptorID(id))
				if err != nil {
					errs = append(errs, fmt.Errorf("descriptor %d: %w", id, err))
					continue
				}
				if !ok {
					errs = append(errs, fmt.Errorf("no node with descriptor id %d", id))
					continue
				}
				fmt.Fprintf(out, "%d: %s", id, spew.Sdump(tree.Descriptor(ref)))
			}

			if len(errs) > 0 {
				return errs
			}
			return nil
		},
	})
}

// Command pff-tree builds a logical PFF/OST item tree from a
// JSON-described synthetic descriptor index and lets you search or
// dump the result. It exists to exercise pffutil interactively, the
// same role cmd/btrfs-dbg plays for the teacher's rebuilt trees rather
// than being a "real" end-user tool: real on-disk page decoding is out
// of this module's scope.
package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pfftools/pff-rec/pffutil"
)

type logLevelFlag struct {
	logrus.Level
}

func (lvl *logLevelFlag) Type() string { return "loglevel" }
func (lvl *logLevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

var _ pflag.Value = (*logLevelFlag)(nil)

// subcommand is a cobra.Command whose RunE receives the tree already
// built from the --fixture flag, mirroring the teacher's
// cmd/btrfs-rec subcommand-with-an-opened-filesystem convention.
type subcommand struct {
	cobra.Command
	RunE func(tree *pffutil.Tree, cmd *cobra.Command, args []string) error
}

var subcommands []subcommand

func main() {
	logLevel := logLevelFlag{Level: logrus.InfoLevel}
	var fixtureFlag string
	var recursionLimitFlag int

	argparser := &cobra.Command{
		Use:   "pff-tree {[flags]|SUBCOMMAND}",
		Short: "Build and inspect a PFF/OST item tree from a JSON fixture",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{ //nolint:exhaustivestruct
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevel, "verbosity", "set the verbosity")
	argparser.PersistentFlags().StringVar(&fixtureFlag, "fixture", "", "JSON file `fixture.json` describing the synthetic descriptor index")
	if err := argparser.MarkPersistentFlagFilename("fixture"); err != nil {
		panic(err)
	}
	if err := argparser.MarkPersistentFlagRequired("fixture"); err != nil {
		panic(err)
	}
	argparser.PersistentFlags().IntVar(&recursionLimitFlag, "recursion-limit", pffutil.DefaultRecursionLimit, "override the builder/navigator recursion depth bound")

	for _, child := range subcommands {
		cmd := child.Command
		runE := child.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetLevel(logLevel.Level)
			ctx := dlog.WithLogger(cmd.Context(), dlog.WrapLogrus(logger))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{EnableSignalHandling: true})
			grp.Go("main", func(ctx context.Context) error {
				cursor, err := loadFixture(fixtureFlag)
				if err != nil {
					return err
				}
				tree, err := pffutil.Build(ctx, cursor, pffutil.WithRecursionLimit(recursionLimitFlag))
				if err != nil {
					return err
				}
				cmd.SetContext(ctx)
				return runE(tree, cmd, args)
			})
			return grp.Wait()
		}
		argparser.AddCommand(&cmd)
	}

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		_, _ = os.Stderr.WriteString(argparser.CommandPath() + ": error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

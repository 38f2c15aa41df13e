package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/datatype/compiler"
	"github.com/syssam/datatype/compiler/config"
	"github.com/syssam/datatype/compiler/gen"
)

func newGenerateCmd(o *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the targets of a project",
		Long: `Generate the targets of a project.

Targets whose definition files, settings and generator version did not change
since their last generation are reported as cached and left untouched. Use
--force to regenerate them anyway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, targets, err := o.project()
			if err != nil {
				return err
			}
			var extra []gen.Option
			if force {
				extra = append(extra, gen.WithForce())
			}
			results, err := o.each(cmd.Context(), p, targets, compiler.Generate, extra...)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), targets, results)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate even when the cache is up to date")
	return cmd
}

func printResults(w io.Writer, targets []config.Target, results []*compiler.Result) {
	for i, res := range results {
		state := "generated"
		if res.CacheHit {
			state = "cached"
		}
		fmt.Fprintf(w, "%s: %s %d files\n", targets[i].Name, state, len(res.Files))
	}
}

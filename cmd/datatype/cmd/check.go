package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/syssam/datatype/compiler"
)

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that generated code is up to date",
		Long: `Check that the generated code of every target matches its definition files.

Nothing is generated. A target is up to date when its last generation used
the current definition files, settings and generator version, and every file
it produced still exists.

Exit codes:
  0 - Every target is up to date
  1 - At least one target is out of date
  2 - Error during check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, targets, err := o.project()
			if err != nil {
				return err
			}
			results, err := o.each(cmd.Context(), p, targets, compiler.Check)
			if err != nil {
				return err
			}
			var stale []string
			for i, res := range results {
				if res.CacheHit {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is up to date\n", targets[i].Name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s is out of date\n", targets[i].Name)
				stale = append(stale, targets[i].Name)
			}
			if len(stale) > 0 {
				return errors.WithHint(errors.Wrapf(ErrStale, "targets %v", stale), "run 'datatype generate' to update")
			}
			return nil
		},
	}
}

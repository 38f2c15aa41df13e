package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/syssam/datatype"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the generator version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := semver.NewVersion(datatype.Version)
			if err != nil {
				return err
			}
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", datatype.Name, v.Original())
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print the version number only")
	return cmd
}

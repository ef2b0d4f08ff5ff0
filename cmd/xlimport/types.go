package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTypesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered record types and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tCOLUMNS\tCOPY TABLE")
			for _, rt := range root.registry.All() {
				cols := make([]string, 0, len(rt.Columns()))
				for _, c := range rt.Columns() {
					cols = append(cols, fmt.Sprintf("%d:%s", c.Index, c.Field))
				}
				table := rt.CopyTable()
				if table == "" {
					table = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Key, rt.Label, strings.Join(cols, " "), table)
			}
			return tw.Flush()
		},
	}
}

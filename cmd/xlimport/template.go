package main

import (
	"fmt"

	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/spf13/cobra"
)

func newTemplateCmd(root *rootOptions) *cobra.Command {
	var recordType string
	cmd := &cobra.Command{
		Use:   "template FILE",
		Short: "Write an empty workbook with a header row for a record type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.recordType(recordType)
			if err != nil {
				return err
			}
			if err := workbook.Create(args[0], workbook.TemplateRows(rt.Columns())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", rt.Key, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&recordType, "type", "t", "", "Record type key")
	cmd.MarkFlagRequired("type")
	return cmd
}

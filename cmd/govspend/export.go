package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"govspend/internal/cli"
	"govspend/internal/export"
	applog "govspend/internal/log"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records, totals and series to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := cli.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.Service.ListRecords(cmd.Context())
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("out")
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := export.Write(f, records, selectionFlags(cmd)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", path, err)
			}

			rt.Logger.WithComponent(applog.ComponentExport).Info("Workbook written",
				"path", path,
				applog.FieldRecords, len(records))
			return nil
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringP("out", "o", "spending.xlsx", "Output file")
	return cmd
}

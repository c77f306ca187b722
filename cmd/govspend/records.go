package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"govspend/internal/cli"
	"govspend/internal/core"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the normalized spending records as JSON",
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
			filtered := core.Filter(records, selectionFlags(cmd))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(filtered)
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print department totals and per-department history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := cli.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			state := core.InitialState()
			records, err := rt.Service.ListRecords(cmd.Context())
			if err != nil {
				rt.Logger.Warn("Using fallback spending data", "error", err)
				state = core.Reduce(state, core.FetchFailed{Err: err})
			} else {
				state = core.Reduce(state, core.FetchResolved{Records: records})
			}
			sel := selectionFlags(cmd)
			state = core.Reduce(state, core.YearChanged{Year: sel.Year})
			state = core.Reduce(state, core.DepartmentChanged{Department: sel.Department})

			view, err := core.ViewOrFallback(state)
			if err != nil {
				rt.Logger.Warn("Spending totals unusable, using fallback data", "error", err)
			}
			return writeReport(cmd.OutOrStdout(), view)
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func selectionFlags(cmd *cobra.Command) core.FilterSelection {
	year, _ := cmd.Flags().GetString("year")
	department, _ := cmd.Flags().GetString("department")
	return core.NewSelection(year, department)
}

// writeReport prints the share table for the selection followed by the
// unfiltered history of every department.
func writeReport(out io.Writer, v core.DashboardView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	if v.UsedFallback {
		fmt.Fprintln(tw, "Live data unavailable; showing sample data.\t")
	}
	fmt.Fprintf(tw, "Selection\tyear=%s\tdepartment=%s\t\n", orAll(v.Selection.Year), orAll(v.Selection.Department))
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintln(tw, "Department\tAmount\tShare\t")
	for _, s := range v.Pie {
		share := 0.0
		if v.PieTotal != 0 {
			share = s.Value / v.PieTotal * 100
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t\n", s.Label, amount(s.Value), share)
	}
	fmt.Fprintf(tw, "Total\t%s\t\t\n", amount(v.PieTotal))
	fmt.Fprintln(tw, "\t\t\t")

	fmt.Fprintln(tw, "Department\tYear\tAmount\t")
	for _, ts := range v.Series {
		for _, p := range ts.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", ts.Department, p.Year, amount(p.Amount))
		}
	}
	return tw.Flush()
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

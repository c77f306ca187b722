package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "govspend",
		Short:         "Government spending dashboard",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(recordsCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(notifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addSelectionFlags registers --year and --department on cmd.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("year", "y", "", "Only include this year")
	cmd.Flags().StringP("department", "d", "", "Only include this department")
}

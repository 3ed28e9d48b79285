package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/report"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:       "export csv|xlsx",
	Short:     "Export payments as CSV or the dashboard summary as XLSX",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"csv", "xlsx"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	date, err := asOf()
	if err != nil {
		return err
	}
	l, err := repository.Snapshot(context.Background(), newRepository())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch args[0] {
	case "csv":
		return report.WritePaymentsCSV(w, l.Loans, l.Services)
	default:
		return report.WriteSummaryXLSX(w, l, date)
	}
}

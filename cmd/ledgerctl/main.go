// Command ledgerctl classifies documents and inspects the ledger from the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/pkg/logging"
)

var (
	asOfFlag string
	jsonFlag bool
	verbose  bool

	// newRepository is swapped in tests.
	newRepository = func() repository.LedgerRepository { return repository.NewSeededRepository() }
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Inspect the finance ledger and classify documents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&asOfFlag, "as-of", "", "reference date (YYYY-MM-DD), defaults to today")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// asOf parses --as-of, defaulting to today.
func asOf() (time.Time, error) {
	if asOfFlag == "" {
		return ledger.AsOfOrToday(time.Time{}), nil
	}
	t, err := time.Parse(time.DateOnly, asOfFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", asOfFlag)
	}
	return ledger.DateOf(t), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func logger(cmd *cobra.Command) *slog.Logger {
	if !verbose {
		return logging.Discard()
	}
	return logging.Setup(logging.Options{Level: slog.LevelDebug, Output: cmd.ErrOrStderr()})
}

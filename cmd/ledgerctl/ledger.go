package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	loansservice "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/report"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending obligations grouped by account",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue loans with accrued late fees",
	Args:  cobra.NoArgs,
	RunE:  runOverdue,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the ledger for inconsistencies",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(pendingCmd, overdueCmd, validateCmd)
}

func runPending(cmd *cobra.Command, _ []string) error {
	date, err := asOf()
	if err != nil {
		return err
	}
	ctx := context.Background()
	repo := newRepository()

	pending, err := reconcile.New(repo, nil, logger(cmd)).Pending(ctx, date)
	if err != nil {
		return err
	}
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	summary := report.GroupPendingByAccount(pending, accounts)

	if jsonFlag {
		return printJSON(cmd, summary)
	}
	if len(summary.Accounts) == 0 {
		cmd.Println("Nothing pending.")
		return nil
	}

	cmd.Printf("Pending as of %s\n\n", ledger.FormatDate(date))
	for _, a := range summary.Accounts {
		cmd.Printf("%s (%s)\n", a.Account.Name, a.Account.ID)
		for _, o := range a.Obligations {
			marker := " "
			if o.IsOverdue {
				marker = "!"
			}
			cmd.Printf("  %s %s  %-28s %12s", marker, ledger.FormatDate(o.DueDate), o.Source.Name, o.Amount.Display())
			if o.LateFee != nil && o.LateFee.IsPositive() {
				cmd.Printf("  + %s recargo", o.LateFee.Display())
			}
			cmd.Println()
		}
		cmd.Printf("  total %s\n\n", a.Total.Display())
	}
	cmd.Printf("Total pendiente: %s\n", summary.Total.Display())
	return nil
}

func runOverdue(cmd *cobra.Command, _ []string) error {
	date, err := asOf()
	if err != nil {
		return err
	}
	loans, err := newRepository().ListLoans(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list loans: %w", err)
	}
	overdue := loansservice.GetOverdueLoans(loans, date)

	if jsonFlag {
		return printJSON(cmd, overdue)
	}
	if len(overdue) == 0 {
		cmd.Println("No overdue loans.")
		return nil
	}
	for _, o := range overdue {
		cmd.Printf("%-28s %3d días  recargo %s  total con recargos %s\n",
			o.Loan.Name, o.DaysOverdue, o.LateFee.Display(), o.ProjectedTotalWithFees.Display())
	}
	return nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	l, err := repository.Snapshot(context.Background(), newRepository())
	if err != nil {
		return err
	}
	warnings := ledger.ValidateLedger(l)

	if jsonFlag {
		if err := printJSON(cmd, warnings); err != nil {
			return err
		}
	} else {
		for _, w := range warnings {
			cmd.Printf("[%s] %s: %s\n", w.Code, w.Entity, w.Message)
		}
	}
	if len(warnings) > 0 {
		return fmt.Errorf("%d validation warnings", len(warnings))
	}
	if !jsonFlag {
		cmd.Println("Ledger is consistent.")
	}
	return nil
}

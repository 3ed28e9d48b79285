package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/pkg/config"
)

var (
	statePath string
	resetYes  bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete recorded payments and stored services from local state",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().StringVar(&statePath, "state", "", "local state file, defaults to STORAGE_STATE_PATH")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return errors.New("reset deletes every recorded payment, pass --yes to confirm")
	}

	path := statePath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Storage.StatePath
	}

	state, err := repository.OpenLocalState(path)
	if err != nil {
		return err
	}
	defer state.Close()

	ctx := context.Background()
	data, err := state.Load(ctx)
	if err != nil {
		return err
	}
	if err := state.Clear(ctx); err != nil {
		return err
	}

	logger(cmd).Info("local state cleared", slog.String("path", path))
	cmd.Printf("Cleared %d recorded payments and %d stored services from %s\n",
		len(data.Payments), len(data.Services), path)
	return nil
}

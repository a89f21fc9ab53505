package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunpeak/dispatchd/app"
	"github.com/sunpeak/dispatchd/config"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [query]",
	Short: "Run one dispatch query and print the analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  dispatchOnce,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}

func dispatchOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out, err := svc.Agent.Run(ctx, args[0], nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feedScope/internal/config"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <topic>...",
		Short: "Print the message count of each topic",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCount,
	}
	addReadFlags(cmd)
	return cmd
}

func runCount(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, reader, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	counts, err := reader.Stats(ctx, args...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(counts)
}

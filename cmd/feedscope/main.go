package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"feedScope/internal/chain"
	"feedScope/internal/config"
	"feedScope/internal/feed"
	"feedScope/internal/indexer"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "feedscope",
		Short:        "Read Net Protocol topic feeds on Base",
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newServeCmd(), newCountCmd(), newFetchCmd(), newSyncCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addReadFlags registers the flags shared by every command that talks to the contract.
func addReadFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", config.DefaultRPC, "Base RPC URL")
	cmd.Flags().String("contract", config.DefaultContract, "Net Protocol contract address")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts per RPC call")
	cmd.Flags().Duration("retry-backoff", 300*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// connect dials the RPC endpoint and builds a feed reader on top of it.
func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, *feed.Reader, error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}
	contract, err := indexer.ParseAddress(cfg.Contract)
	if err != nil {
		return nil, nil, fmt.Errorf("contract: %w", err)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	reader := feed.NewReader(client, feed.ReaderConfig{
		Contract:     contract,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)
	return client, reader, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

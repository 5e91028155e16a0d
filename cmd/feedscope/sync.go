package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedScope/internal/config"
	"feedScope/internal/indexer"
	"feedScope/internal/storage"
	"feedScope/internal/storage/postgres"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy topic feeds into JSONL or Postgres",
		RunE:  runSync,
	}
	addReadFlags(cmd)
	cmd.Flags().StringSlice("topic", nil, "topics to sync (comma-separated, default registry and evidence)")
	cmd.Flags().String("out", "./data/messages.jsonl", "output JSONL path (ignored with --pg-dsn)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN; stores messages and checkpoints in the database")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (ignored with --pg-dsn)")
	cmd.Flags().Uint64("batch-size", 100, "messages per range call")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	topics := indexer.ParseTopics(cfg.Topics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, reader, err := connect(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	var (
		sink  storage.Storage
		state indexer.StateStore
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
		state = &indexer.DBStateStore{Store: store}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
		state = &indexer.FileStateStore{Path: cfg.Checkpoint}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		ChainID:   chainID.Uint64(),
		Topics:    topics,
		BatchSize: cfg.BatchSize,
	}, reader, sink, state, logger)

	logger.Info("sync start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", reader.Contract().Hex()),
		zap.Strings("topics", topics),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("out", cfg.Out),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	results, err := runner.Run(ctx)
	for _, res := range results {
		logger.Info("topic synced", zap.String("topic", res.Topic), zap.Uint64("from", res.From), zap.Uint64("to", res.To), zap.Int("stored", res.Stored))
	}
	return err
}

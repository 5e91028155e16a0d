package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedScope/internal/api"
	"feedScope/internal/cache"
	"feedScope/internal/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feeds over HTTP",
		RunE:  runServe,
	}

	addReadFlags(cmd)
	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	cmd.Flags().Uint64("default-limit", 50, "messages returned when limit is omitted")
	cmd.Flags().Uint64("max-limit", 500, "largest accepted limit")
	cmd.Flags().String("cache-backend", cache.BackendMemory, "response cache (memory, redis, none)")
	cmd.Flags().Duration("cache-ttl", 60*time.Second, "response cache lifetime")
	cmd.Flags().String("redis-addr", "127.0.0.1:6379", "redis address for the redis cache backend")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().Int("redis-db", 0, "redis database")
	cmd.Flags().Duration("request-timeout", 15*time.Second, "per-request timeout")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	client, reader, err := connect(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if chainID, err := client.ChainID(ctx); err != nil {
		logger.Warn("chain id unavailable", zap.Error(err))
	} else {
		logger.Info("connected", zap.String("rpc", cfg.RPCURL), zap.String("chain_id", chainID.String()))
	}

	responses, err := cache.New(ctx, cache.Config{
		Backend:       cfg.CacheBackend,
		TTL:           cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return err
	}
	defer responses.Close()

	server := api.NewServer(reader, responses, api.Config{
		Topics: api.Topics{
			Registry:     cfg.RegistryTopic,
			Evidence:     cfg.EvidenceTopic,
			Applications: cfg.ApplicationsTopic,
		},
		DefaultLimit:   cfg.DefaultLimit,
		MaxLimit:       cfg.MaxLimit,
		CacheTTL:       cfg.CacheTTL,
		RequestTimeout: cfg.RequestTimeout,
		Version:        version,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", zap.String("addr", cfg.Listen), zap.String("contract", reader.Contract().Hex()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedScope/internal/config"
	"feedScope/internal/feed"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <topic>",
		Short: "Print the newest messages of a topic as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}
	addReadFlags(cmd)
	cmd.Flags().Uint64("limit", 50, "number of newest messages")
	cmd.Flags().String("kind", "raw", "interpretation (agent, evidence, raw)")
	return cmd
}

type fetchOutput struct {
	Topic       string `json:"topic"`
	Total       uint64 `json:"total"`
	Start       uint64 `json:"start"`
	End         uint64 `json:"end"`
	Count       int    `json:"count"`
	Items       any    `json:"items"`
	DecodeError string `json:"decodeError,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetUint64("limit")
	kind, _ := cmd.Flags().GetString("kind")

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

	topic := args[0]
	page, err := reader.Latest(ctx, topic, limit)
	if err != nil {
		return err
	}

	out := fetchOutput{
		Topic: page.Topic,
		Total: page.Total,
		Start: page.Start,
		End:   page.End,
		Count: len(page.Messages),
	}
	switch kind {
	case "agent":
		out.Items = feed.InterpretAgents(page.Messages)
	case "evidence":
		out.Items = feed.InterpretEvidenceList(page.Messages)
	case "raw":
		out.Items = page.Messages
	default:
		return fmt.Errorf("unknown kind %q (agent, evidence, raw)", kind)
	}
	if page.DecodeErr != nil {
		logger.Warn("range result not decodable", zap.String("topic", topic), zap.Error(page.DecodeErr))
		out.DecodeError = page.DecodeErr.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

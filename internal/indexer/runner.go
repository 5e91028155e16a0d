package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"feedScope/internal/model"
	"feedScope/internal/storage"
)

// MessageSource reads a topic feed. *feed.Reader implements it.
type MessageSource interface {
	Count(ctx context.Context, topic string) (uint64, error)
	Range(ctx context.Context, topic string, start, end uint64) ([]model.Message, error)
	Contract() common.Address
}

// RunConfig holds runtime settings for a sync.
type RunConfig struct {
	ChainID   uint64
	Topics    []string
	BatchSize uint64
}

// Result summarises one topic's sync.
type Result struct {
	Topic  string
	From   uint64
	To     uint64
	Stored int
}

// Runner copies topic feeds into storage, resuming from the saved checkpoint.
type Runner struct {
	cfg     RunConfig
	source  MessageSource
	storage storage.Storage
	state   StateStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner builds a Runner with its dependencies. A nil state store always starts from index 0.
func NewRunner(cfg RunConfig, source MessageSource, sink storage.Storage, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		storage: sink,
		state:   state,
		logger:  logger,
		now:     time.Now,
	}
}

// Run syncs every configured topic in order.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if r.source == nil {
		return nil, fmt.Errorf("message source is nil")
	}
	if r.storage == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	results := make([]Result, 0, len(r.cfg.Topics))
	for _, topic := range r.cfg.Topics {
		res, err := r.syncTopic(ctx, topic)
		if err != nil {
			return results, fmt.Errorf("sync %s: %w", topic, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) syncTopic(ctx context.Context, topic string) (Result, error) {
	contract := r.source.Contract().Hex()
	name := StateName(contract, topic)

	var next uint64
	if r.state != nil {
		saved, ok, err := r.state.Load(ctx, name)
		if err != nil {
			return Result{}, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			next = saved
			r.logger.Info("resume from checkpoint", zap.String("topic", topic), zap.Uint64("next_index", next))
		}
	}

	total, err := r.source.Count(ctx, topic)
	if err != nil {
		return Result{}, fmt.Errorf("count: %w", err)
	}

	res := Result{Topic: topic, From: next, To: next}
	if next >= total {
		r.logger.Info("nothing to sync", zap.String("topic", topic), zap.Uint64("next_index", next), zap.Uint64("total", total))
		return res, nil
	}

	batches, err := SplitRange(next, total, r.cfg.BatchSize)
	if err != nil {
		return res, err
	}

	for _, batch := range batches {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		r.logger.Info("fetch messages", zap.String("topic", topic), zap.Uint64("start", batch.Start), zap.Uint64("end", batch.End))

		msgs, err := r.source.Range(ctx, topic, batch.Start, batch.End)
		if err != nil {
			return res, fmt.Errorf("range [%d, %d): %w", batch.Start, batch.End, err)
		}
		if uint64(len(msgs)) != batch.Len() {
			return res, fmt.Errorf("range [%d, %d): got %d messages, want %d", batch.Start, batch.End, len(msgs), batch.Len())
		}

		records := indexRecords(r.cfg.ChainID, contract, batch, msgs, r.now())
		if err := r.storage.PutMessageBatch(ctx, records); err != nil {
			return res, fmt.Errorf("store messages: %w", err)
		}

		if r.state != nil {
			if err := r.state.Save(ctx, name, batch.End); err != nil {
				return res, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		res.To = batch.End
		res.Stored += len(records)
		r.logger.Info("batch complete", zap.String("topic", topic), zap.Int("messages", len(records)), zap.Uint64("start", batch.Start), zap.Uint64("end", batch.End))
	}

	return res, nil
}
